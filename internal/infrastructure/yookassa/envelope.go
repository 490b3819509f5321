package yookassa

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/infobot/infobot/internal/domain/payment"
)

var (
	// ErrUnknownEvent reports an event kind the reconciler cannot resolve.
	ErrUnknownEvent = errors.New("unknown webhook event")
	// ErrMissingPaymentID reports an envelope without a usable identifier.
	ErrMissingPaymentID = errors.New("webhook event carries no payment id")
)

// Envelope is the provider's webhook notification body.
type Envelope struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		PaymentID string `json:"payment_id"`
	} `json:"object"`
}

// ParseEvent decodes a webhook body into the internal event kind and the
// payment id it refers to. Most kinds carry the id directly; refund events
// reference the original payment through a separate field. Unrecognized
// kinds are rejected.
func ParseEvent(body []byte) (payment.EventKind, string, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", "", fmt.Errorf("decode webhook envelope: %w", err)
	}

	kind := payment.EventKind(env.Event)
	var id string
	switch kind {
	case payment.EventSucceeded,
		payment.EventWaitingForCapture,
		payment.EventCanceled,
		payment.EventDealClosed,
		payment.EventPayoutSucceeded,
		payment.EventPayoutCanceled:
		id = env.Object.ID
	case payment.EventRefundSucceeded:
		id = env.Object.PaymentID
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if id == "" {
		return "", "", ErrMissingPaymentID
	}
	return kind, id, nil
}
