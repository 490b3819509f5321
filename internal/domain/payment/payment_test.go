package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePendingStructured(t *testing.T) {
	rec := DecodePending(EncodePending(Pending{Responsible: "100", Target: "200"}))
	assert.Equal(t, "100", rec.Responsible)
	assert.Equal(t, "200", rec.Target)
}

func TestDecodePendingLegacyBareID(t *testing.T) {
	// Older records stored only the owner's id; both roles normalize to it.
	rec := DecodePending([]byte("424242"))
	assert.Equal(t, "424242", rec.Responsible)
	assert.Equal(t, "424242", rec.Target)
}

func TestDecodeUserRoundTrip(t *testing.T) {
	rec := DecodeUser(EncodeUser(UserRecord{ConfirmationURL: "https://pay.example/x", Paid: false}))
	assert.Equal(t, "https://pay.example/x", rec.ConfirmationURL)
	assert.False(t, rec.Paid)
}

func TestDecodeUserLegacyMarker(t *testing.T) {
	rec := DecodeUser([]byte("424242"))
	assert.True(t, rec.Paid)
	assert.Empty(t, rec.ConfirmationURL)
}
