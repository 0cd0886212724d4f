package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/google/uuid"
)

// BookingHandlePrefix tags a thread handle that refers to the messages
// attached to a booking rather than a standalone conversation.
const BookingHandlePrefix = "booking:"

type ThreadHandle struct {
	BookingID      *uuid.UUID
	ConversationID uuid.UUID
}

// ParseThreadHandle distinguishes a plain conversation id from a
// booking-scoped handle of the form "booking:<uuid>" by shape alone.
func ParseThreadHandle(handle string) (ThreadHandle, error) {
	if rest, ok := strings.CutPrefix(handle, BookingHandlePrefix); ok {
		id, err := uuid.Parse(rest)
		if err != nil {
			return ThreadHandle{}, NewValidationError("handle", "malformed booking handle")
		}
		return ThreadHandle{BookingID: &id}, nil
	}
	id, err := uuid.Parse(handle)
	if err != nil {
		return ThreadHandle{}, NewValidationError("handle", "not a conversation id")
	}
	return ThreadHandle{ConversationID: id}, nil
}

// MessageSource is the fetch collaborator behind the thread engine. The
// production implementation reads the database; tests substitute their own.
type MessageSource interface {
	Conversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	UserConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	BookingMessages(ctx context.Context, bookingID uuid.UUID) ([]models.Message, error)
	BookingParties(ctx context.Context, bookingID uuid.UUID) (client, owner uuid.UUID, err error)
	MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, ids []uuid.UUID) error
}

// Thread is one logical timeline between the current user and a counterparty,
// possibly merged from several underlying conversation records.
type Thread struct {
	CounterpartyID uuid.UUID        `json:"counterparty_id"`
	Messages       []models.Message `json:"messages"`
	SourceIDs      []uuid.UUID      `json:"source_conversation_ids,omitempty"`
}

type ThreadService struct {
	source MessageSource

	mu      sync.Mutex
	marking map[uuid.UUID]struct{}
}

func NewThreadService(source MessageSource) *ThreadService {
	return &ThreadService{
		source:  source,
		marking: make(map[uuid.UUID]struct{}),
	}
}

// LoadThread resolves a handle into a single merged, time-ordered message
// timeline. For a conversation handle, every conversation the user shares
// with the same counterparty is pulled in: the surrounding system is known to
// create duplicate 1:1 conversations (one per inquiry flow), and they must be
// presented as one thread.
func (s *ThreadService) LoadThread(ctx context.Context, userID uuid.UUID, handle string) (*Thread, error) {
	h, err := ParseThreadHandle(handle)
	if err != nil {
		return nil, err
	}

	if h.BookingID != nil {
		return s.loadBookingThread(ctx, userID, *h.BookingID)
	}
	return s.loadConversationThread(ctx, userID, h.ConversationID)
}

func (s *ThreadService) loadBookingThread(ctx context.Context, userID, bookingID uuid.UUID) (*Thread, error) {
	client, owner, err := s.source.BookingParties(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	counterparty := owner
	if userID == owner {
		counterparty = client
	}

	msgs, err := s.source.BookingMessages(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &Thread{
		CounterpartyID: counterparty,
		Messages:       MergeMessages(msgs),
	}, nil
}

func (s *ThreadService) loadConversationThread(ctx context.Context, userID, conversationID uuid.UUID) (*Thread, error) {
	conv, err := s.source.Conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotFound
	}
	counterparty, ok := conv.CounterpartyOf(userID)
	if !ok {
		return nil, ErrNotFound
	}

	sources := []models.Conversation{*conv}
	all, err := s.source.UserConversations(ctx, userID)
	if err != nil {
		// Sibling discovery is an enrichment; the primary conversation alone
		// still makes a valid thread.
		log.Printf("thread: listing conversations for %s failed: %v", userID, err)
	} else {
		sources = sources[:0]
		primaryListed := false
		for _, c := range all {
			if c.ID == conversationID {
				primaryListed = true
				sources = append(sources, c)
				continue
			}
			if c.IsGroup || !c.HasParticipant(userID) || !c.HasParticipant(counterparty) {
				continue
			}
			sources = append(sources, c)
		}
		if !primaryListed {
			sources = append([]models.Conversation{*conv}, sources...)
		}
	}

	if len(sources) == 1 {
		msgs, err := s.source.ConversationMessages(ctx, sources[0].ID)
		if err != nil {
			return nil, err
		}
		return &Thread{
			CounterpartyID: counterparty,
			Messages:       MergeMessages(msgs),
			SourceIDs:      []uuid.UUID{sources[0].ID},
		}, nil
	}

	// Best-effort merge: a source that fails to fetch is logged and skipped.
	// Partial history beats no history.
	var (
		lists     [][]models.Message
		sourceIDs []uuid.UUID
	)
	for _, c := range sources {
		msgs, err := s.source.ConversationMessages(ctx, c.ID)
		if err != nil {
			log.Printf("thread: %v", &PartialFetchError{ConversationID: c.ID, Err: err})
			continue
		}
		lists = append(lists, msgs)
		sourceIDs = append(sourceIDs, c.ID)
	}

	return &Thread{
		CounterpartyID: counterparty,
		Messages:       MergeMessages(lists...),
		SourceIDs:      sourceIDs,
	}, nil
}

// MergeMessages concatenates the given message lists, orders them by creation
// time (stable, so ties keep their fetch order) and drops duplicate ids. A
// message reachable through two overlapping fetches appears exactly once.
func MergeMessages(lists ...[]models.Message) []models.Message {
	merged := make([]models.Message, 0)
	for _, list := range lists {
		merged = append(merged, list...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	seen := make(map[uuid.UUID]struct{}, len(merged))
	out := merged[:0]
	for _, m := range merged {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// MarkAsRead marks the given messages read on behalf of readerID. Re-marking
// read messages is a no-op, the reader's own messages are silently ignored,
// and an in-flight set guarantees that interleaved triggers (a poll tick and
// a push event observing the same unread message) submit each id at most
// once. A failed submission releases its ids so a later attempt can retry.
func (s *ThreadService) MarkAsRead(ctx context.Context, readerID, conversationID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}

	msgs, err := s.source.ConversationMessages(ctx, conversationID)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	s.mu.Lock()
	var eligible []uuid.UUID
	for _, id := range messageIDs {
		m, ok := byID[id]
		if !ok || m.SenderID == readerID || m.IsRead() {
			continue
		}
		if _, busy := s.marking[id]; busy {
			continue
		}
		s.marking[id] = struct{}{}
		eligible = append(eligible, id)
	}
	s.mu.Unlock()

	if len(eligible) == 0 {
		return nil
	}

	err = s.source.MarkMessagesRead(ctx, conversationID, eligible)

	s.mu.Lock()
	for _, id := range eligible {
		delete(s.marking, id)
	}
	s.mu.Unlock()

	return err
}
