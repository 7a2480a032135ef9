package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionDID(t *testing.T) {
	assert.Equal(t, "did:nv:42", SubscriptionDID(" 42 "))
}

func TestDIDFromLabel(t *testing.T) {
	did, err := DIDFromLabel("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "did:nv:0123456789abcdef0123456789abcdef", did)

	did, err = DIDFromLabel("ABCDEF0123456789abcdef0123456789")
	require.NoError(t, err)
	assert.Equal(t, "did:nv:abcdef0123456789abcdef0123456789", did)

	for _, label := range []string{"", "www", "api", "short1234", "not-hex-not-hex-not-hex-not-hex-!"} {
		_, err := DIDFromLabel(label)
		assert.Error(t, err, label)
	}
}
