package idgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// CodeAlphabet avoids characters that are easy to confuse when read aloud
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generator produces identifiers. It is mocked in tests for stable IDs.
type Generator interface {
	// NewID returns a globally unique opaque identifier
	NewID() string

	// Code returns a short human-friendly code of the given length
	Code(length int) string
}

// UUID generates random (v4) UUIDs and crypto-random codes
type UUID struct{}

// New creates the production generator
func New() UUID {
	return UUID{}
}

// NewID returns a new random UUID string
func (UUID) NewID() string {
	return uuid.NewString()
}

// Code returns a crypto-random code drawn from CodeAlphabet
func (UUID) Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(CodeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms; fall back to a UUID byte
			out[i] = CodeAlphabet[int(uuid.New()[0])%len(CodeAlphabet)]
			continue
		}
		out[i] = CodeAlphabet[n.Int64()]
	}
	return string(out)
}
