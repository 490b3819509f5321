package yookassa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedNetworksProviderRanges(t *testing.T) {
	trusted, err := NewTrustedNetworks(nil)
	require.NoError(t, err)

	assert.True(t, trusted.Contains("185.71.76.5"))
	assert.True(t, trusted.Contains("77.75.156.11"))
	assert.True(t, trusted.Contains("2a02:5180::1"))
	assert.False(t, trusted.Contains("8.8.8.8"))
	assert.False(t, trusted.Contains("77.75.156.12"))
}

func TestTrustedNetworksExtras(t *testing.T) {
	trusted, err := NewTrustedNetworks([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	assert.True(t, trusted.Contains("10.1.2.3"))
	assert.True(t, trusted.Contains("127.0.0.1"))
	assert.False(t, trusted.Contains("192.168.0.1"))
}

func TestTrustedNetworksBadConfig(t *testing.T) {
	_, err := NewTrustedNetworks([]string{"not-a-network"})
	assert.Error(t, err)
}

func TestTrustedNetworksGarbageAddr(t *testing.T) {
	trusted, err := NewTrustedNetworks(nil)
	require.NoError(t, err)
	assert.False(t, trusted.Contains("example.com"))
	assert.False(t, trusted.Contains(""))
}
