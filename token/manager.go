// Package token builds and verifies session tokens: a URL-safe base64 JSON
// payload carrying a random session id, optionally followed by an
// HMAC-SHA256 signature segment
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/plotkit/sessiontoken/crypt/codec"
	"github.com/plotkit/sessiontoken/crypt/random"
	"github.com/plotkit/sessiontoken/log"
	"github.com/plotkit/sessiontoken/utils"
)

const (
	// ErrReservedPayloadKey flags caller misuse: the extra payload attempted
	// to override the reserved session id entry
	ErrReservedPayloadKey = utils.Error("extra payload cannot contain reserved key \"" + SessionIDKey + "\"")
	// ErrMissingSecretKey flags caller misuse: a signed token was requested
	// without a secret key
	ErrMissingSecretKey = utils.Error("signed token requested but no secret key supplied")
)

const (
	// SessionIDKey is the reserved payload key bound to the random id
	SessionIDKey = "session_id"

	// SegmentSeparator splits the payload and signature segments
	SegmentSeparator = "."

	// sessionIDBytes is the entropy drawn per session id; 32 bytes encode to
	// a 43-character base64 segment
	sessionIDBytes = 32

	// secretKeyBytes is the entropy drawn per generated secret key
	secretKeyBytes = 32
)

// Manager builds and parses session tokens
type Manager struct {
	random *random.Selector
	logger *log.Logger
}

type ManagerOption func(*Manager)

// WithRandomSelector sets the entropy source selector
func WithRandomSelector(selector *random.Selector) ManagerOption {
	return func(m *Manager) {
		m.random = selector
	}
}

// WithLogger sets the manager logger
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a token Manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.random == nil {
		m.random = random.Default()
	}
	if m.logger == nil {
		m.logger = log.New("token")
	}
	return m
}

// GenerateSessionID builds a session token
// the payload is {"session_id": <random id>} merged with extraPayload; when
// signed, the payload segment is followed by "." and the encoded signature
func (m *Manager) GenerateSessionID(secretKey string, signed bool, extraPayload map[string]any) (string, error) {
	if _, exists := extraPayload[SessionIDKey]; exists {
		return "", ErrReservedPayloadKey
	}
	if signed && secretKey == "" {
		return "", ErrMissingSecretKey
	}

	sessionID, err := m.randomID(secretKey)
	if err != nil {
		return "", err
	}

	payload := make(map[string]any, len(extraPayload)+1)
	for k, v := range extraPayload {
		payload[k] = v
	}
	payload[SessionIDKey] = sessionID

	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	segment := codec.Encode(serialized)
	if !signed {
		return segment, nil
	}
	return segment + SegmentSeparator + codec.Encode(signature(segment, secretKey)), nil
}

// CheckSignature verifies a presented token's signature
// with signed=false every token passes: signature checking was disabled by
// configuration and enforcement happens elsewhere or not at all
// with signed=true any malformed or mismatched input yields false; this
// function never returns an error
func (m *Manager) CheckSignature(token string, secretKey string, signed bool) bool {
	if !signed {
		return true
	}

	parts := strings.Split(token, SegmentSeparator)
	if len(parts) != 2 {
		m.logger.Debug("token rejected: wrong segment count", map[string]any{"segments": len(parts)})
		return false
	}

	payload, err := codec.Decode(parts[0])
	if err != nil {
		m.logger.Debug("token rejected: undecodable payload segment")
		return false
	}
	presented, err := codec.Decode(parts[1])
	if err != nil {
		m.logger.Debug("token rejected: undecodable signature segment")
		return false
	}

	// signatures are defined over the canonical segment encoding, so padded
	// or otherwise equivalent representations verify identically
	expected := signature(codec.Encode(payload), secretKey)
	return hmac.Equal(expected, presented)
}

// GenerateSecretKey creates a new printable secret key with 32 bytes of
// entropy, encoded as a fixed-length 44-character base64 string
func (m *Manager) GenerateSecretKey() (string, error) {
	data, err := m.random.Bytes(secretKeyBytes)
	if err != nil {
		return "", err
	}
	return codec.EncodePadded(data), nil
}

// Payload decodes the payload segment of a token; works on both signed and
// unsigned tokens and performs no signature verification
func (m *Manager) Payload(token string) (map[string]any, error) {
	segment, _, _ := strings.Cut(token, SegmentSeparator)
	data, err := codec.Decode(segment)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err = json.Unmarshal(data, &payload); err != nil {
		return nil, codec.ErrDecode
	}
	return payload, nil
}

// randomID draws a fixed-length random identifier, reseeding the fallback
// generator from the secret key beforehand when applicable
func (m *Manager) randomID(secretKey string) (string, error) {
	m.random.ReseedIfNeeded(secretKey)
	data, err := m.random.Bytes(sessionIDBytes)
	if err != nil {
		return "", err
	}
	return codec.Encode(data), nil
}

// signature computes the HMAC-SHA256 of the payload segment text
func signature(payloadSegment string, secretKey string) []byte {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payloadSegment))
	return mac.Sum(nil)
}
