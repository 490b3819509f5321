package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/infobot/infobot/internal/domain/payment"
)

// MockStore is a mock implementation of payment.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, c payment.Collection, key string) ([]byte, bool, error) {
	args := m.Called(ctx, c, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockStore) Set(ctx context.Context, c payment.Collection, key string, value []byte) error {
	args := m.Called(ctx, c, key, value)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, c payment.Collection, key string) error {
	args := m.Called(ctx, c, key)
	return args.Error(0)
}

func (m *MockStore) Transact(ctx context.Context, ops []payment.Op) (bool, error) {
	args := m.Called(ctx, ops)
	return args.Bool(0), args.Error(1)
}
