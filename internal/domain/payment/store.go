package payment

import (
	"context"
	"errors"
)

// Collection names one of the store's logical record collections.
type Collection string

const (
	// CollectionUsers holds UserRecord entries keyed by user id.
	CollectionUsers Collection = "users"
	// CollectionPending holds Pending entries keyed by provider payment id.
	CollectionPending Collection = "pending"
	// CollectionModes holds Mode flags keyed by user id.
	CollectionModes Collection = "modes"
)

// ErrStoreFailure wraps backend read/write errors. Callers treat the
// operation as not-completed, so an external retry is always safe.
var ErrStoreFailure = errors.New("state store failure")

// Op is one write in a multi-key transaction. A nil Value with Delete set
// removes the key.
type Op struct {
	Collection Collection
	Key        string
	Value      []byte
	Delete     bool
}

// Store is the key-value abstraction over the three collections. Transact
// applies every op atomically-in-effect and reports whether all succeeded;
// it performs no rollback itself — compensation is the caller's job.
type Store interface {
	Get(ctx context.Context, c Collection, key string) ([]byte, bool, error)
	Set(ctx context.Context, c Collection, key string, value []byte) error
	Delete(ctx context.Context, c Collection, key string) error
	Transact(ctx context.Context, ops []Op) (bool, error)
}
