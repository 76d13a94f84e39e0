package gateway

import (
	"math/rand/v2"
	"strings"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 32
	maxPing    = 9_999_999
)

// GenerateID returns a 32-character mixed-case alphanumeric identifier,
// suitable as a Device-ID.
func GenerateID() string {
	var sb strings.Builder
	sb.Grow(idLength)
	for range idLength {
		sb.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return sb.String()
}

// NewSessionID returns a fresh play_session_id. The upstream compares it
// case-sensitively, so it is always lowercase.
func NewSessionID() string {
	return strings.ToLower(GenerateID())
}

// pingValue returns the random "p" parameter in [0, 9999999].
func pingValue() int {
	return rand.IntN(maxPing + 1)
}
