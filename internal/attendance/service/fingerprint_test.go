package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFingerprint_RoundTrip(t *testing.T) {
	hash, err := hashFingerprint("device-secret-123")
	require.NoError(t, err)
	assert.NotEqual(t, "device-secret-123", hash)
	assert.True(t, compareFingerprint(hash, "device-secret-123"))
	assert.False(t, compareFingerprint(hash, "wrong-secret"))
}
