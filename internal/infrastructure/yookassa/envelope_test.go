package yookassa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobot/infobot/internal/domain/payment"
)

func TestParseEventDirectID(t *testing.T) {
	for _, event := range []string{
		"payment.succeeded",
		"payment.waiting_for_capture",
		"payment.canceled",
		"deal.closed",
		"payout.succeeded",
		"payout.canceled",
	} {
		kind, id, err := ParseEvent([]byte(`{"event":"` + event + `","object":{"id":"pay-1"}}`))
		require.NoError(t, err, event)
		assert.Equal(t, payment.EventKind(event), kind)
		assert.Equal(t, "pay-1", id)
	}
}

func TestParseEventRefundUsesPaymentID(t *testing.T) {
	kind, id, err := ParseEvent([]byte(`{"event":"refund.succeeded","object":{"id":"refund-1","payment_id":"pay-1"}}`))
	require.NoError(t, err)
	assert.Equal(t, payment.EventRefundSucceeded, kind)
	assert.Equal(t, "pay-1", id)
}

func TestParseEventUnknownKind(t *testing.T) {
	_, _, err := ParseEvent([]byte(`{"event":"subscription.renewed","object":{"id":"x"}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestParseEventMissingID(t *testing.T) {
	_, _, err := ParseEvent([]byte(`{"event":"payment.succeeded","object":{}}`))
	assert.ErrorIs(t, err, ErrMissingPaymentID)
}

func TestParseEventInvalidJSON(t *testing.T) {
	_, _, err := ParseEvent([]byte("{"))
	assert.Error(t, err)
}
