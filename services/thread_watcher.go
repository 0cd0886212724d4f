package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageEvent is the payload of a "message.sent" push notification. The
// watcher only reads it to decide whether a refetch is relevant; the thread
// itself is always re-fetched from the canonical source, so the same event
// arriving over both the poll and push channels is harmless.
type MessageEvent struct {
	Type           string    `json:"type"`
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	ReceiverID     uuid.UUID `json:"receiver_id"`
}

// ThreadWatcher keeps one open thread fresh across a fixed-interval poll and
// asynchronous push events. Every trigger re-fetches the canonical thread; a
// generation counter drops in-flight responses that resolve after a newer
// refresh was issued, so stale data never overwrites newer data and fetches
// for a previously open thread are ignored after switching.
type ThreadWatcher struct {
	svc      *ThreadService
	userID   uuid.UUID
	onUpdate func(*Thread)
	onError  func(error)

	mu           sync.Mutex
	gen          uint64
	handle       string
	counterparty uuid.UUID
	open         bool

	deliverMu sync.Mutex
}

func NewThreadWatcher(svc *ThreadService, userID uuid.UUID, onUpdate func(*Thread), onError func(error)) *ThreadWatcher {
	return &ThreadWatcher{
		svc:      svc,
		userID:   userID,
		onUpdate: onUpdate,
		onError:  onError,
	}
}

// Open switches the watcher to a new thread handle and fetches it. Any fetch
// still outstanding for the previous handle is invalidated.
func (w *ThreadWatcher) Open(ctx context.Context, handle string) {
	w.mu.Lock()
	w.handle = handle
	w.open = true
	w.counterparty = uuid.Nil
	w.mu.Unlock()
	w.refresh(ctx)
}

// Close stops deliveries; outstanding fetches resolve into the void.
func (w *ThreadWatcher) Close() {
	w.mu.Lock()
	w.open = false
	w.gen++
	w.mu.Unlock()
}

// Invalidate re-fetches the open thread. Both the poll tick and the push
// channel funnel through here, which makes duplicate delivery idempotent.
func (w *ThreadWatcher) Invalidate(ctx context.Context) {
	w.mu.Lock()
	open := w.open
	w.mu.Unlock()
	if open {
		w.refresh(ctx)
	}
}

// HandleEvent reacts to a push event. The payload is only consulted for
// relevance: does the event concern the open thread's counterparty?
func (w *ThreadWatcher) HandleEvent(ctx context.Context, ev MessageEvent) {
	w.mu.Lock()
	relevant := w.open && w.counterparty != uuid.Nil &&
		(ev.SenderID == w.counterparty || ev.ReceiverID == w.counterparty)
	w.mu.Unlock()
	if relevant {
		w.refresh(ctx)
	}
}

// Run polls at the given interval until ctx is cancelled.
func (w *ThreadWatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Invalidate(ctx)
		}
	}
}

func (w *ThreadWatcher) refresh(ctx context.Context) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	handle := w.handle
	w.mu.Unlock()

	go func() {
		thread, err := w.svc.LoadThread(ctx, w.userID, handle)

		w.deliverMu.Lock()
		defer w.deliverMu.Unlock()

		w.mu.Lock()
		stale := gen != w.gen || !w.open
		if !stale && err == nil {
			w.counterparty = thread.CounterpartyID
		}
		w.mu.Unlock()

		if stale {
			return
		}
		if err != nil {
			if w.onError != nil {
				w.onError(err)
			}
			return
		}
		w.onUpdate(thread)
	}()
}
