// Package random provides secure random tokens.
package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Source reads random bytes.
type Source interface {
	Bytes(n int) ([]byte, error)
}

// Real uses crypto/rand for secure randomness.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Fixed returns the same pattern every time; for tests.
type Fixed byte

// Bytes returns n copies of f.
func (f Fixed) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(f)
	}
	return b, nil
}

// Hex returns a hex string of n characters read from src.
func Hex(src Source, n int) (string, error) {
	// n/2 bytes give n hex chars
	b, err := src.Bytes((n + 1) / 2)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b)[:n], nil
}

// SessionID returns "sess_" followed by 32 hex characters from src.
func SessionID(src Source) (string, error) {
	h, err := Hex(src, 32)
	if err != nil {
		return "", err
	}
	return "sess_" + h, nil
}
