package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"itemliquidity/internal/catalog"
	"itemliquidity/pkg/contracts/domain"
)

// MockFetcher is a mock for the marketplace.Fetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchItemScript(ctx context.Context, sku string) (string, error) {
	args := m.Called(ctx, sku)
	return args.String(0), args.Error(1)
}

// MockPublisher is a mock for the publish.Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPublisher) Publish(ctx context.Context, stats domain.StatsSet) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// staticSource serves a fixed catalog
type staticSource struct {
	items []catalog.Item
	err   error

	mu    sync.Mutex
	calls int
}

func (s *staticSource) Items(ctx context.Context) ([]catalog.Item, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.items, s.err
}
