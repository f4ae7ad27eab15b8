// Package codec implements the canonical binary-to-text encoding used by
// session tokens: URL-safe base64, unpadded on encode, padding-tolerant on
// decode, so equivalent segments always compare byte-for-byte
package codec

import (
	"encoding/base64"
	"strings"

	"github.com/plotkit/sessiontoken/utils"
)

// ErrDecode flags malformed base64 input; verification paths convert it to
// a failed check instead of propagating it
const ErrDecode = utils.Error("invalid base64 input")

// Encode encodes data as canonical URL-safe base64 without padding
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// EncodePadded encodes data as URL-safe base64 with padding; used where a
// fixed-width printable representation is wanted, such as secret keys
func EncodePadded(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}

// EncodeString encodes the UTF-8 bytes of s
func EncodeString(s string) string {
	return Encode([]byte(s))
}

// Decode decodes URL-safe base64, accepting both padded and unpadded input;
// padding, when present, must be the exact canonical amount
func Decode(s string) ([]byte, error) {
	trimmed := strings.TrimRight(s, "=")
	if pad := len(s) - len(trimmed); pad > 0 && (pad > 2 || len(s)%4 != 0) {
		return nil, ErrDecode
	}

	data, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, ErrDecode
	}
	return data, nil
}

// DecodeString decodes URL-safe base64 into a string
func DecodeString(s string) (string, error) {
	data, err := Decode(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
