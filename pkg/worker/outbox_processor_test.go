package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	"github.com/clinsync/clinsync/pkg/logger"
)

type fakeBroker struct {
	mu        sync.Mutex
	published []string
	fail      error
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) channels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

func TestOutboxProcessorPublishesPendingEvents(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := document.NewOutboxRepository(store)
	broker := &fakeBroker{}
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.EventEntityCreated, map[string]string{"identity_id": "auth-1"}))
	require.NoError(t, repo.Create(ctx, model.EventEntityDeleted, map[string]string{"identity_id": "auth-2"}))

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		RetryAttempts: 1, RetryDelay: time.Millisecond,
	}, testLogger(), nil)

	require.NoError(t, p.processEvents(ctx))
	assert.Len(t, broker.channels(), 2)

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxProcessorMarksFailedEvents(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := document.NewOutboxRepository(store)
	broker := &fakeBroker{fail: errors.New("broker down")}
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.EventEntityCreated, map[string]string{"identity_id": "auth-1"}))

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		RetryAttempts: 2, RetryDelay: time.Millisecond,
	}, testLogger(), nil)

	require.NoError(t, p.processEvents(ctx))

	// The event left the pending set and will not be retried by the loop.
	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxProcessorConfigDefaults(t *testing.T) {
	p := NewOutboxProcessor(nil, nil, OutboxProcessorConfig{}, testLogger(), nil)

	assert.Equal(t, 50, p.config.BatchSize)
	assert.Equal(t, 5*time.Second, p.config.PollInterval)
	assert.Equal(t, 3, p.config.RetryAttempts)
	assert.Equal(t, time.Second, p.config.RetryDelay)
}
