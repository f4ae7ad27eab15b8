package token

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotkit/sessiontoken/crypt/codec"
	"github.com/plotkit/sessiontoken/crypt/random"
	"github.com/plotkit/sessiontoken/log"
)

// unsignedReferenceLength derives the expected length of a default unsigned
// token from a reference serialization, so a change in key order or JSON
// separators breaks the test instead of silently shifting the wire format
func unsignedReferenceLength() int {
	reference := `{"` + SessionIDKey + `":"` + strings.Repeat("a", 43) + `"}`
	return len(codec.EncodeString(reference))
}

func decodePayload(t *testing.T, token string) map[string]any {
	segment, _, _ := strings.Cut(token, SegmentSeparator)
	data, err := codec.Decode(segment)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestGenerateUnsigned(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("", false, nil)
	require.NoError(t, err)
	assert.NotContains(t, token, SegmentSeparator)
	assert.Len(t, token, unsignedReferenceLength())
	assert.Contains(t, decodePayload(t, token), SessionIDKey)

	another, err := m.GenerateSessionID("", false, nil)
	require.NoError(t, err)
	assert.NotContains(t, another, SegmentSeparator)
	assert.Len(t, another, unsignedReferenceLength())
	assert.Contains(t, decodePayload(t, another), SessionIDKey)

	assert.NotEqual(t, token, another)
}

func TestSessionIDLength(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("", false, nil)
	require.NoError(t, err)

	id, ok := decodePayload(t, token)[SessionIDKey].(string)
	require.True(t, ok)
	assert.Len(t, id, 43) // 32 bytes of entropy, base64-encoded
}

func TestPayloadUnsigned(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("", false, map[string]any{"foo": 10})
	require.NoError(t, err)
	assert.NotContains(t, token, SegmentSeparator)
	assert.Equal(t, float64(10), decodePayload(t, token)["foo"])
}

func TestPayloadReservedKeyUnsigned(t *testing.T) {
	m := NewManager()

	_, err := m.GenerateSessionID("", false, map[string]any{SessionIDKey: 10})
	assert.True(t, errors.Is(err, ErrReservedPayloadKey))
}

func TestPayloadReservedKeySigned(t *testing.T) {
	m := NewManager()

	_, err := m.GenerateSessionID("abc", true, map[string]any{SessionIDKey: 10})
	assert.True(t, errors.Is(err, ErrReservedPayloadKey))
}

func TestSignedRequiresSecretKey(t *testing.T) {
	m := NewManager()

	_, err := m.GenerateSessionID("", true, nil)
	assert.True(t, errors.Is(err, ErrMissingSecretKey))
}

func TestGenerateSigned(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("abc", true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(token, SegmentSeparator))

	assert.True(t, m.CheckSignature(token, "abc", true))
	assert.False(t, m.CheckSignature(token, "qrs", true))

	assert.Contains(t, decodePayload(t, token), SessionIDKey)
}

func TestPayloadSigned(t *testing.T) {
	m := NewManager()
	userID := uuid.NewString()

	token, err := m.GenerateSessionID("abc", true, map[string]any{"foo": 10, "user": userID})
	require.NoError(t, err)
	assert.True(t, m.CheckSignature(token, "abc", true))
	assert.False(t, m.CheckSignature(token, "qrs", true))

	payload := decodePayload(t, token)
	assert.Equal(t, float64(10), payload["foo"])
	assert.Equal(t, userID, payload["user"])
}

func TestCheckSignatureOfUnsignedToken(t *testing.T) {
	m := NewManager()

	// secret must not be used for unsigned generation
	token, err := m.GenerateSessionID("abc", false, nil)
	require.NoError(t, err)
	assert.False(t, m.CheckSignature(token, "abc", true))
}

func TestCheckSignatureMalformedInput(t *testing.T) {
	m := NewManager()

	malformed := []string{
		"",
		"foo-bar-baz",
		"foo.bar.baz",
		".",
		"..",
		SegmentSeparator + "YWJj",
		"YWJj" + SegmentSeparator,
		"YWJj.a", // undecodable signature segment
		"a.YWJj", // undecodable payload segment
	}
	for _, s := range malformed {
		assert.False(t, m.CheckSignature(s, "abc", true), "input %q", s)
	}
}

func TestCheckSignatureDisabled(t *testing.T) {
	m := NewManager()

	assert.True(t, m.CheckSignature("gobbledygook", "abc", false))
	assert.True(t, m.CheckSignature("", "", false))
	assert.True(t, m.CheckSignature("foo.bar.baz", "qrs", false))
}

func TestSignatureDeterminism(t *testing.T) {
	sig := signature("xyz", "abc")
	assert.Equal(t, sig, signature("xyz", "abc"))
	assert.NotEqual(t, sig, signature("xyz", "qrs"))
	assert.Len(t, sig, 32) // sha256 digest size
}

func TestPaddingDoesNotAffectCheck(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("abc", true, nil)
	require.NoError(t, err)

	payloadSegment, sigSegment, found := strings.Cut(token, SegmentSeparator)
	require.True(t, found)

	// re-pad both segments to the equivalent padded base64 representation;
	// verification is defined over the decoded bytes and must not change
	padded := pad(payloadSegment) + SegmentSeparator + pad(sigSegment)
	assert.True(t, m.CheckSignature(padded, "abc", true))
	assert.False(t, m.CheckSignature(padded, "qrs", true))
}

func pad(segment string) string {
	if n := len(segment) % 4; n != 0 {
		return segment + strings.Repeat("=", 4-n)
	}
	return segment
}

func TestGenerateSecretKey(t *testing.T) {
	m := NewManager()

	key, err := m.GenerateSecretKey()
	require.NoError(t, err)
	assert.Len(t, key, 44)

	key2, err := m.GenerateSecretKey()
	require.NoError(t, err)
	assert.Len(t, key2, 44)
	assert.NotEqual(t, key, key2)
}

func TestGeneratedKeySignsTokens(t *testing.T) {
	m := NewManager()

	key, err := m.GenerateSecretKey()
	require.NoError(t, err)

	token, err := m.GenerateSessionID(key, true, nil)
	require.NoError(t, err)
	assert.True(t, m.CheckSignature(token, key, true))
}

func TestPayloadAccessor(t *testing.T) {
	m := NewManager()

	token, err := m.GenerateSessionID("abc", true, map[string]any{"foo": "bar"})
	require.NoError(t, err)

	payload, err := m.Payload(token)
	require.NoError(t, err)
	assert.Equal(t, "bar", payload["foo"])
	assert.Contains(t, payload, SessionIDKey)

	_, err = m.Payload("%%%%")
	assert.True(t, errors.Is(err, codec.ErrDecode))
}

func TestManagerWithFallbackGenerator(t *testing.T) {
	selector := random.NewSelector(
		random.WithLogger(log.NewWithOutput("random", io.Discard)),
		random.WithSecureSource(func() (io.Reader, error) {
			return nil, errors.New("not implemented")
		}),
		random.WithSecretCheck(func() bool { return true }),
	)
	m := NewManager(WithRandomSelector(selector))

	token, err := m.GenerateSessionID("abc", true, nil)
	require.NoError(t, err)
	assert.True(t, m.CheckSignature(token, "abc", true))

	another, err := m.GenerateSessionID("abc", true, nil)
	require.NoError(t, err)
	assert.NotEqual(t, token, another)
}
