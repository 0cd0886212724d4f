package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type threadCollector struct {
	mu      sync.Mutex
	threads []*Thread
	errs    []error
}

func (c *threadCollector) onUpdate(t *Thread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads = append(c.threads, t)
}

func (c *threadCollector) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *threadCollector) wait(t *testing.T, n int) []*Thread {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		count := len(c.threads)
		c.mu.Unlock()
		if count >= n {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	require.GreaterOrEqual(t, len(c.threads), n)
	return append([]*Thread(nil), c.threads...)
}

func (c *threadCollector) snapshot() ([]*Thread, []error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Thread(nil), c.threads...), append([]error(nil), c.errs...)
}

func TestThreadWatcherDeliversOnOpen(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty := uuid.New(), uuid.New()
	conv := pairConversation(user, counterparty, time.Now())
	source.conversations[conv.ID] = conv
	source.messages[conv.ID] = []models.Message{
		messageAt(conv.ID, counterparty, user, "hi", time.Now()),
	}

	collector := &threadCollector{}
	watcher := NewThreadWatcher(svc, user, collector.onUpdate, collector.onError)

	watcher.Open(context.Background(), conv.ID.String())

	threads := collector.wait(t, 1)
	assert.Equal(t, counterparty, threads[0].CounterpartyID)
}

func TestThreadWatcherDropsStaleFetchAfterClose(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty := uuid.New(), uuid.New()
	conv := pairConversation(user, counterparty, time.Now())
	source.conversations[conv.ID] = conv

	collector := &threadCollector{}
	watcher := NewThreadWatcher(svc, user, collector.onUpdate, collector.onError)

	// Close immediately after opening; the in-flight fetch for the old
	// generation must not be delivered.
	watcher.Open(context.Background(), conv.ID.String())
	watcher.Close()

	time.Sleep(50 * time.Millisecond)
	threads, errs := collector.snapshot()
	assert.Empty(t, threads)
	assert.Empty(t, errs)
}

func TestThreadWatcherIgnoresEventsWhenClosed(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user := uuid.New()
	collector := &threadCollector{}
	watcher := NewThreadWatcher(svc, user, collector.onUpdate, collector.onError)

	watcher.HandleEvent(context.Background(), MessageEvent{SenderID: uuid.New()})
	watcher.Invalidate(context.Background())

	time.Sleep(50 * time.Millisecond)
	threads, errs := collector.snapshot()
	assert.Empty(t, threads)
	assert.Empty(t, errs)
}

func TestThreadWatcherRefreshesOnRelevantEvent(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty, stranger := uuid.New(), uuid.New(), uuid.New()
	conv := pairConversation(user, counterparty, time.Now())
	source.conversations[conv.ID] = conv

	collector := &threadCollector{}
	watcher := NewThreadWatcher(svc, user, collector.onUpdate, collector.onError)

	watcher.Open(context.Background(), conv.ID.String())
	collector.wait(t, 1)

	// A message involving some other user must not trigger a refetch.
	watcher.HandleEvent(context.Background(), MessageEvent{SenderID: stranger, ReceiverID: stranger})
	time.Sleep(50 * time.Millisecond)
	threads, _ := collector.snapshot()
	assert.Len(t, threads, 1)

	watcher.HandleEvent(context.Background(), MessageEvent{SenderID: counterparty, ReceiverID: user})
	collector.wait(t, 2)
}

func TestThreadWatcherReportsErrors(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	collector := &threadCollector{}
	watcher := NewThreadWatcher(svc, uuid.New(), collector.onUpdate, collector.onError)

	// Unknown conversation id.
	watcher.Open(context.Background(), uuid.New().String())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, errs := collector.snapshot()
		if len(errs) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	_, errs := collector.snapshot()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrNotFound)
}
