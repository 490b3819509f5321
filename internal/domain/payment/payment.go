package payment

import "encoding/json"

// UserRecord tracks a user's access state. Created on the first
// payment-gated interaction and kept for the user's lifetime; the
// confirmation URL is only set while a payment is pending.
type UserRecord struct {
	ConfirmationURL string `json:"confirmation_url,omitempty"`
	Paid            bool   `json:"paid"`
}

// Pending maps a provider payment id to the pair of users involved.
// Responsible initiated (and pays for) the payment; Target receives access.
// They differ only for gifts. The record exists from payment creation until
// the provider resolves the payment either way.
type Pending struct {
	Responsible string `json:"responsible"`
	Target      string `json:"target_user"`
}

// Mode is a transient per-user interaction flag for multi-turn flows.
type Mode string

const (
	ModeNone             Mode = ""
	ModeAwaitingTargetID Mode = "AWAITING_TARGET_ID"
)

// EventKind classifies provider webhook events.
type EventKind string

const (
	EventSucceeded         EventKind = "payment.succeeded"
	EventWaitingForCapture EventKind = "payment.waiting_for_capture"
	EventCanceled          EventKind = "payment.canceled"
	EventRefundSucceeded   EventKind = "refund.succeeded"
	EventPayoutSucceeded   EventKind = "payout.succeeded"
	EventPayoutCanceled    EventKind = "payout.canceled"
	EventDealClosed        EventKind = "deal.closed"
)

// EncodeUser serializes a user record for storage.
func EncodeUser(rec UserRecord) []byte {
	b, _ := json.Marshal(rec)
	return b
}

// DecodeUser deserializes a stored user record. Legacy records held a bare
// user id as a paid marker; those normalize to a paid record.
func DecodeUser(b []byte) UserRecord {
	var rec UserRecord
	if err := json.Unmarshal(b, &rec); err == nil {
		return rec
	}
	return UserRecord{Paid: len(b) > 0}
}

// EncodePending serializes a pending-payment record for storage.
func EncodePending(rec Pending) []byte {
	b, _ := json.Marshal(rec)
	return b
}

// DecodePending deserializes a stored pending-payment record. Legacy records
// stored only the owner's id; those normalize to responsible == target so
// the rest of the system never sees the bare shape.
func DecodePending(b []byte) Pending {
	var rec Pending
	if err := json.Unmarshal(b, &rec); err == nil && rec.Responsible != "" {
		return rec
	}
	id := string(b)
	return Pending{Responsible: id, Target: id}
}
