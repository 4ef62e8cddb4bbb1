package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("sess")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "sess-"))
	// NanoID default is 21 characters
	assert.Len(t, strings.TrimPrefix(id, "sess-"), 21)
}

func TestMustGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for range 500 {
		id := MustGenerate("test")
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}
}

func TestRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		rid := RequestID()
		require.True(t, strings.HasPrefix(rid, "req-"))

		body := strings.TrimPrefix(rid, "req-")
		assert.Len(t, body, requestIDLength)
		for _, c := range body {
			assert.True(t, strings.ContainsRune(requestAlphabet, c), "unexpected character %q", c)
		}
		assert.False(t, seen[rid])
		seen[rid] = true
	}
}
