package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingReferenceFormat(t *testing.T) {
	ref, err := NewBookingReference()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "BK"))
	assert.Equal(t, strings.ToUpper(ref), ref)
	for _, r := range ref[2:] {
		assert.Contains(t, referenceAlphabet, string(r))
	}
	// "BK" + base36 millisecond timestamp + 6 random characters.
	assert.Greater(t, len(ref), 2+6)
}

func TestNewBookingReferenceUniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}
