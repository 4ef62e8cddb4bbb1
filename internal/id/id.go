// Package id generates short random identifiers for request correlation.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// requestAlphabet avoids look-alike characters so ids survive being read off a log line.
	requestAlphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	requestIDLength = 16
)

// Generate creates a prefixed NanoID, e.g. "req-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// RequestID returns an id for the X-Request-ID header of an outbound call.
// Entropy failure degrades to a fixed marker rather than failing the call.
func RequestID() string {
	id, err := gonanoid.Generate(requestAlphabet, requestIDLength)
	if err != nil {
		return "req-unknown"
	}
	return "req-" + id
}
