package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	domain "github.com/infobot/infobot/internal/domain/payment"
)

var (
	// ErrAlreadyPaid reports a payment attempt for a user who has access.
	ErrAlreadyPaid = errors.New("user already has access")
	// ErrDisabled reports a payment attempt while payments are switched off.
	ErrDisabled = errors.New("payments are disabled")
	// ErrNoConfirmationURL reports a provider response without a redirect URL.
	ErrNoConfirmationURL = errors.New("provider returned no confirmation url")
)

// Provider creates payments against the external payment provider.
type Provider interface {
	CreatePayment(ctx context.Context) (id string, confirmationURL string, err error)
}

// Notifier delivers payment outcome messages over the chat transport.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, userID string) error
	GiftConfirmed(ctx context.Context, responsibleID, targetID string) error
	PaymentFailed(ctx context.Context, userID string, kind domain.EventKind) error
}

// Service coordinates the payment state machine across the user and
// pending-payment collections. Every state transition goes through the
// store's Transact so the two records move together; on a partial failure
// the service compensates best-effort and reports the operation as failed,
// which keeps external retries safe.
type Service struct {
	store    domain.Store
	provider Provider
	notifier Notifier
	enabled  bool
	logger   zerolog.Logger
}

// NewService creates a payment coordinator.
func NewService(store domain.Store, provider Provider, notifier Notifier, enabled bool, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		notifier: notifier,
		enabled:  enabled,
		logger:   logger.With().Str("service", "payment").Logger(),
	}
}

// Enabled reports whether the payment gate is active.
func (s *Service) Enabled() bool {
	return s.enabled
}

// IsPaid reports whether a user has access. With payments disabled everyone
// does.
func (s *Service) IsPaid(ctx context.Context, userID string) (bool, error) {
	if !s.enabled {
		return true, nil
	}
	rec, _, err := s.userRecord(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.Paid, nil
}

// AccessState returns a user's payment record and whether one exists.
func (s *Service) AccessState(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	return s.userRecord(ctx, userID)
}

// Begin creates a payment with the provider and records it. target receives
// access; it equals responsible except for gifts. Returns the confirmation
// URL the payer should be sent to.
func (s *Service) Begin(ctx context.Context, responsible, target string) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}
	if target == "" {
		target = responsible
	}
	rec, _, err := s.userRecord(ctx, target)
	if err != nil {
		return "", err
	}
	if rec.Paid {
		return "", ErrAlreadyPaid
	}

	paymentID, confirmationURL, err := s.provider.CreatePayment(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("responsible", responsible).Msg("provider payment creation failed")
		return "", err
	}
	if confirmationURL == "" {
		return "", ErrNoConfirmationURL
	}
	return s.Create(ctx, responsible, paymentID, confirmationURL, target)
}

// Create writes the pending-payment record and the target's unpaid user
// record in one transaction. On partial failure it compensates best-effort
// by resetting both records; if even that fails the pair is inconsistent
// and only an operator can repair it.
func (s *Service) Create(ctx context.Context, responsible, paymentID, confirmationURL, target string) (string, error) {
	if target == "" {
		target = responsible
	}
	ok, err := s.store.Transact(ctx, []domain.Op{
		{
			Collection: domain.CollectionPending,
			Key:        paymentID,
			Value:      domain.EncodePending(domain.Pending{Responsible: responsible, Target: target}),
		},
		{
			Collection: domain.CollectionUsers,
			Key:        target,
			Value:      domain.EncodeUser(domain.UserRecord{ConfirmationURL: confirmationURL, Paid: false}),
		},
	})
	if err != nil || !ok {
		s.compensate(ctx, target, paymentID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		return "", domain.ErrStoreFailure
	}
	s.logger.Info().
		Str("payment_id", paymentID).
		Str("responsible", responsible).
		Str("target", target).
		Msg("payment created")
	return confirmationURL, nil
}

// compensate is the two-step rollback after a failed create. Each step is
// best-effort; failures leave an inconsistent pair for the operator.
func (s *Service) compensate(ctx context.Context, target, paymentID string) {
	if err := s.store.Set(ctx, domain.CollectionUsers, target, domain.EncodeUser(domain.UserRecord{Paid: false})); err != nil {
		s.logger.Error().Err(err).Str("user", target).Str("payment_id", paymentID).
			Msg("compensation failed: user record inconsistent, operator repair needed")
	}
	if err := s.store.Delete(ctx, domain.CollectionPending, paymentID); err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).
			Msg("compensation failed: pending record inconsistent, operator repair needed")
	}
}

// Confirm flips the target's record to paid and removes the pending record
// in one transaction.
func (s *Service) Confirm(ctx context.Context, target, paymentID string) (bool, error) {
	ok, err := s.store.Transact(ctx, []domain.Op{
		{
			Collection: domain.CollectionUsers,
			Key:        target,
			Value:      domain.EncodeUser(domain.UserRecord{Paid: true}),
		},
		{Collection: domain.CollectionPending, Key: paymentID, Delete: true},
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return ok, nil
}

// Cancel resets the target's record to unpaid with the confirmation URL
// cleared and removes the pending record. An empty target is a no-op
// reported as failure.
func (s *Service) Cancel(ctx context.Context, target, paymentID string) (bool, error) {
	if target == "" {
		return false, nil
	}
	ok, err := s.store.Transact(ctx, []domain.Op{
		{
			Collection: domain.CollectionUsers,
			Key:        target,
			Value:      domain.EncodeUser(domain.UserRecord{Paid: false}),
		},
		{Collection: domain.CollectionPending, Key: paymentID, Delete: true},
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return ok, nil
}

// Resolve applies a provider webhook outcome. A missing pending record means
// the payment was already resolved by an earlier delivery; that is a safe
// no-op, not an error, so duplicate deliveries never re-trigger side
// effects. Any store failure is returned so the provider redelivers later.
func (s *Service) Resolve(ctx context.Context, kind domain.EventKind, paymentID string) error {
	raw, found, err := s.store.Get(ctx, domain.CollectionPending, paymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !found {
		s.logger.Info().Str("payment_id", paymentID).Str("event", string(kind)).
			Msg("payment already resolved, skipping")
		return nil
	}
	pending := domain.DecodePending(raw)

	if kind == domain.EventSucceeded {
		ok, err := s.Confirm(ctx, pending.Target, paymentID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("confirm payment %s: %w", paymentID, domain.ErrStoreFailure)
		}
		s.logger.Info().Str("payment_id", paymentID).Str("target", pending.Target).
			Str("responsible", pending.Responsible).Msg("payment confirmed")
		s.notifyConfirmed(ctx, pending)
		return nil
	}

	ok, err := s.Cancel(ctx, pending.Target, paymentID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cancel payment %s: %w", paymentID, domain.ErrStoreFailure)
	}
	s.logger.Info().Str("payment_id", paymentID).Str("target", pending.Target).
		Str("event", string(kind)).Msg("payment cancelled")
	if err := s.notifier.PaymentFailed(ctx, pending.Responsible, kind); err != nil {
		s.logger.Error().Err(err).Str("user", pending.Responsible).Msg("failure notification not delivered")
	}
	return nil
}

func (s *Service) notifyConfirmed(ctx context.Context, pending domain.Pending) {
	var err error
	if pending.Responsible == pending.Target {
		err = s.notifier.PaymentConfirmed(ctx, pending.Target)
	} else {
		err = s.notifier.GiftConfirmed(ctx, pending.Responsible, pending.Target)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("target", pending.Target).Msg("confirmation notification not delivered")
	}
}

// Grant marks each user id as paid without a payment. Used by the admin
// free-access command and the privileged-users bootstrap.
func (s *Service) Grant(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if err := s.store.Set(ctx, domain.CollectionUsers, id, domain.EncodeUser(domain.UserRecord{Paid: true})); err != nil {
			return fmt.Errorf("grant %s: %w: %v", id, domain.ErrStoreFailure, err)
		}
		s.logger.Info().Str("user", id).Msg("access granted")
	}
	return nil
}

// SetMode records a transient interaction mode for a user.
func (s *Service) SetMode(ctx context.Context, userID string, mode domain.Mode) error {
	if mode == domain.ModeNone {
		return s.store.Delete(ctx, domain.CollectionModes, userID)
	}
	return s.store.Set(ctx, domain.CollectionModes, userID, []byte(mode))
}

// ModeOf returns a user's current interaction mode.
func (s *Service) ModeOf(ctx context.Context, userID string) (domain.Mode, error) {
	raw, found, err := s.store.Get(ctx, domain.CollectionModes, userID)
	if err != nil || !found {
		return domain.ModeNone, err
	}
	return domain.Mode(raw), nil
}

func (s *Service) userRecord(ctx context.Context, userID string) (domain.UserRecord, bool, error) {
	raw, found, err := s.store.Get(ctx, domain.CollectionUsers, userID)
	if err != nil {
		return domain.UserRecord{}, false, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	if !found {
		return domain.UserRecord{}, false, nil
	}
	return domain.DecodeUser(raw), true, nil
}
