package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/infobot/infobot/internal/domain/payment"
	"github.com/infobot/infobot/internal/domain/payment/mocks"
	"github.com/infobot/infobot/internal/infrastructure/memstore"
)

type fakeProvider struct {
	id  string
	url string
	err error
}

func (p *fakeProvider) CreatePayment(context.Context) (string, string, error) {
	return p.id, p.url, p.err
}

type recordingNotifier struct {
	confirmed []string
	gifts     [][2]string
	failed    []string
}

func (n *recordingNotifier) PaymentConfirmed(_ context.Context, userID string) error {
	n.confirmed = append(n.confirmed, userID)
	return nil
}

func (n *recordingNotifier) GiftConfirmed(_ context.Context, responsibleID, targetID string) error {
	n.gifts = append(n.gifts, [2]string{responsibleID, targetID})
	return nil
}

func (n *recordingNotifier) PaymentFailed(_ context.Context, userID string, _ domain.EventKind) error {
	n.failed = append(n.failed, userID)
	return nil
}

func newTestService(store domain.Store, notifier Notifier) *Service {
	return NewService(store, &fakeProvider{id: "pay-1", url: "https://pay.example/redirect"}, notifier, true, zerolog.Nop())
}

func userRecord(t *testing.T, store domain.Store, id string) (domain.UserRecord, bool) {
	t.Helper()
	raw, found, err := store.Get(context.Background(), domain.CollectionUsers, id)
	require.NoError(t, err)
	if !found {
		return domain.UserRecord{}, false
	}
	return domain.DecodeUser(raw), true
}

func pendingExists(t *testing.T, store domain.Store, paymentID string) bool {
	t.Helper()
	_, found, err := store.Get(context.Background(), domain.CollectionPending, paymentID)
	require.NoError(t, err)
	return found
}

func TestCreateThenConfirm(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	url, err := svc.Create(ctx, "100", "pay-1", "https://pay.example/redirect", "100")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/redirect", url)

	rec, found := userRecord(t, store, "100")
	require.True(t, found)
	assert.False(t, rec.Paid)
	assert.Equal(t, "https://pay.example/redirect", rec.ConfirmationURL)
	assert.True(t, pendingExists(t, store, "pay-1"))

	require.NoError(t, svc.Resolve(ctx, domain.EventSucceeded, "pay-1"))

	rec, found = userRecord(t, store, "100")
	require.True(t, found)
	assert.True(t, rec.Paid)
	assert.Empty(t, rec.ConfirmationURL)
	assert.False(t, pendingExists(t, store, "pay-1"))
	assert.Equal(t, []string{"100"}, notifier.confirmed)
}

func TestCreateThenCancel(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	_, err := svc.Create(ctx, "100", "pay-1", "https://pay.example/redirect", "100")
	require.NoError(t, err)
	require.NoError(t, svc.Resolve(ctx, domain.EventCanceled, "pay-1"))

	rec, found := userRecord(t, store, "100")
	require.True(t, found)
	assert.False(t, rec.Paid)
	assert.Empty(t, rec.ConfirmationURL)
	assert.False(t, pendingExists(t, store, "pay-1"))
	assert.Equal(t, []string{"100"}, notifier.failed)
}

func TestResolveTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	_, err := svc.Create(ctx, "100", "pay-1", "https://pay.example/redirect", "100")
	require.NoError(t, err)
	require.NoError(t, svc.Resolve(ctx, domain.EventSucceeded, "pay-1"))

	// Provider retries deliver the same event again.
	require.NoError(t, svc.Resolve(ctx, domain.EventSucceeded, "pay-1"))
	require.NoError(t, svc.Resolve(ctx, domain.EventCanceled, "pay-1"))

	rec, _ := userRecord(t, store, "100")
	assert.True(t, rec.Paid, "duplicate delivery must not revert state")
	assert.Equal(t, []string{"100"}, notifier.confirmed, "side effects must not re-trigger")
	assert.Empty(t, notifier.failed)
}

func TestGifting(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	_, err := svc.Create(ctx, "A", "pay-9", "https://pay.example/redirect", "B")
	require.NoError(t, err)
	require.NoError(t, svc.Resolve(ctx, domain.EventSucceeded, "pay-9"))

	rec, found := userRecord(t, store, "B")
	require.True(t, found)
	assert.True(t, rec.Paid)
	_, found = userRecord(t, store, "A")
	assert.False(t, found, "the payer's own record is untouched")
	assert.Equal(t, [][2]string{{"A", "B"}}, notifier.gifts)
	assert.Empty(t, notifier.confirmed)
}

func TestResolveLegacyPendingRecord(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	require.NoError(t, store.Set(ctx, domain.CollectionPending, "pay-old", []byte("777")))
	require.NoError(t, svc.Resolve(ctx, domain.EventSucceeded, "pay-old"))

	rec, found := userRecord(t, store, "777")
	require.True(t, found)
	assert.True(t, rec.Paid)
	assert.Equal(t, []string{"777"}, notifier.confirmed)
}

func TestCreateCompensatesOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := &mocks.MockStore{}
	store.On("Transact", mock.Anything, mock.Anything).Return(false, nil)
	store.On("Set", mock.Anything, domain.CollectionUsers, "100", mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, domain.CollectionPending, "pay-1").Return(nil)

	svc := newTestService(store, &recordingNotifier{})
	_, err := svc.Create(ctx, "100", "pay-1", "https://pay.example/redirect", "100")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	store.AssertExpectations(t)
}

func TestResolveStoreFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	store := &mocks.MockStore{}
	store.On("Get", mock.Anything, domain.CollectionPending, "pay-1").Return(nil, false, errors.New("redis down"))

	svc := newTestService(store, &recordingNotifier{})
	err := svc.Resolve(ctx, domain.EventSucceeded, "pay-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestCancelEmptyTarget(t *testing.T) {
	svc := newTestService(memstore.New(), &recordingNotifier{})
	ok, err := svc.Cancel(context.Background(), "", "pay-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBegin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(store, &recordingNotifier{})

	url, err := svc.Begin(ctx, "100", "")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/redirect", url)
	assert.True(t, pendingExists(t, store, "pay-1"))
}

func TestBeginAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(store, &recordingNotifier{})
	require.NoError(t, svc.Grant(ctx, []string{"100"}))

	_, err := svc.Begin(ctx, "100", "")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestBeginDisabled(t *testing.T) {
	svc := NewService(memstore.New(), &fakeProvider{}, &recordingNotifier{}, false, zerolog.Nop())
	_, err := svc.Begin(context.Background(), "100", "")
	assert.ErrorIs(t, err, ErrDisabled)

	paid, err := svc.IsPaid(context.Background(), "100")
	require.NoError(t, err)
	assert.True(t, paid, "everyone has access while payments are off")
}

func TestBeginNoConfirmationURL(t *testing.T) {
	svc := NewService(memstore.New(), &fakeProvider{id: "pay-1"}, &recordingNotifier{}, true, zerolog.Nop())
	_, err := svc.Begin(context.Background(), "100", "")
	assert.ErrorIs(t, err, ErrNoConfirmationURL)
}

func TestGrant(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(store, &recordingNotifier{})

	require.NoError(t, svc.Grant(ctx, []string{"1", "", "2"}))
	for _, id := range []string{"1", "2"} {
		paid, err := svc.IsPaid(ctx, id)
		require.NoError(t, err)
		assert.True(t, paid, id)
	}
}

func TestInteractionModes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memstore.New(), &recordingNotifier{})

	mode, err := svc.ModeOf(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNone, mode)

	require.NoError(t, svc.SetMode(ctx, "100", domain.ModeAwaitingTargetID))
	mode, err = svc.ModeOf(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAwaitingTargetID, mode)

	require.NoError(t, svc.SetMode(ctx, "100", domain.ModeNone))
	mode, err = svc.ModeOf(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNone, mode)
}
