package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Faultbox/wmhtool/internal/storage"
)

// MockSink is a testify mock of storage.Sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Put(ctx context.Context, key string, r io.Reader, size int64) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, size)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, int64) storage.ObjectInfo); ok {
		return f(ctx, key, r, size), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}
