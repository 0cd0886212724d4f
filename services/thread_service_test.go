package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessageSource is an in-memory MessageSource for exercising the thread
// engine without a database.
type fakeMessageSource struct {
	conversations map[uuid.UUID]*models.Conversation
	userConvs     map[uuid.UUID][]models.Conversation
	messages      map[uuid.UUID][]models.Message
	bookingMsgs   map[uuid.UUID][]models.Message
	parties       map[uuid.UUID][2]uuid.UUID

	failMessagesFor map[uuid.UUID]error
	failListing     error
	failMarking     error

	markCalls [][]uuid.UUID
}

func newFakeSource() *fakeMessageSource {
	return &fakeMessageSource{
		conversations:   make(map[uuid.UUID]*models.Conversation),
		userConvs:       make(map[uuid.UUID][]models.Conversation),
		messages:        make(map[uuid.UUID][]models.Message),
		bookingMsgs:     make(map[uuid.UUID][]models.Message),
		parties:         make(map[uuid.UUID][2]uuid.UUID),
		failMessagesFor: make(map[uuid.UUID]error),
	}
}

func (f *fakeMessageSource) Conversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv, nil
}

func (f *fakeMessageSource) UserConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	if f.failListing != nil {
		return nil, f.failListing
	}
	return f.userConvs[userID], nil
}

func (f *fakeMessageSource) ConversationMessages(_ context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	if err, ok := f.failMessagesFor[conversationID]; ok {
		return nil, err
	}
	return f.messages[conversationID], nil
}

func (f *fakeMessageSource) BookingMessages(_ context.Context, bookingID uuid.UUID) ([]models.Message, error) {
	return f.bookingMsgs[bookingID], nil
}

func (f *fakeMessageSource) BookingParties(_ context.Context, bookingID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	p, ok := f.parties[bookingID]
	if !ok {
		return uuid.Nil, uuid.Nil, ErrNotFound
	}
	return p[0], p[1], nil
}

func (f *fakeMessageSource) MarkMessagesRead(_ context.Context, conversationID uuid.UUID, ids []uuid.UUID) error {
	f.markCalls = append(f.markCalls, ids)
	if f.failMarking != nil {
		return f.failMarking
	}
	now := time.Now()
	msgs := f.messages[conversationID]
	for i := range msgs {
		for _, id := range ids {
			if msgs[i].ID == id {
				msgs[i].ReadAt = &now
			}
		}
	}
	f.messages[conversationID] = msgs
	return nil
}

func pairConversation(a, b uuid.UUID, createdAt time.Time) *models.Conversation {
	return &models.Conversation{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		Participants: []*models.User{
			{ID: a},
			{ID: b},
		},
	}
}

func messageAt(convID, sender, receiver uuid.UUID, content string, at time.Time) models.Message {
	return models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        content,
		CreatedAt:      at,
	}
}

func TestParseThreadHandle(t *testing.T) {
	bookingID := uuid.New()
	h, err := ParseThreadHandle(BookingHandlePrefix + bookingID.String())
	require.NoError(t, err)
	require.NotNil(t, h.BookingID)
	assert.Equal(t, bookingID, *h.BookingID)

	convID := uuid.New()
	h, err = ParseThreadHandle(convID.String())
	require.NoError(t, err)
	assert.Nil(t, h.BookingID)
	assert.Equal(t, convID, h.ConversationID)

	var vErr *ValidationError
	_, err = ParseThreadHandle("booking:not-a-uuid")
	require.ErrorAs(t, err, &vErr)

	_, err = ParseThreadHandle("garbage")
	require.ErrorAs(t, err, &vErr)
}

func TestMergeMessagesOrdersAndDedupes(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	convA, convB := uuid.New(), uuid.New()
	sender, receiver := uuid.New(), uuid.New()

	m1 := messageAt(convA, sender, receiver, "first", base)
	m2 := messageAt(convB, receiver, sender, "second", base.Add(time.Minute))
	m3 := messageAt(convA, sender, receiver, "third", base.Add(2*time.Minute))

	merged := MergeMessages([]models.Message{m3, m1}, []models.Message{m2, m1})

	require.Len(t, merged, 3, "duplicate ids collapse to one entry")
	assert.Equal(t, "first", merged[0].Content)
	assert.Equal(t, "second", merged[1].Content)
	assert.Equal(t, "third", merged[2].Content)

	// The merged order does not depend on which list arrived first.
	swapped := MergeMessages([]models.Message{m2, m1}, []models.Message{m3, m1})
	require.Len(t, swapped, 3)
	for i := range merged {
		assert.Equal(t, merged[i].ID, swapped[i].ID)
	}
}

func TestLoadThreadMergesSiblingConversations(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty, stranger := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	primary := pairConversation(user, counterparty, base)
	sibling := pairConversation(user, counterparty, base.Add(time.Hour))
	unrelated := pairConversation(user, stranger, base)
	group := pairConversation(user, counterparty, base)
	group.IsGroup = true

	source.conversations[primary.ID] = primary
	source.userConvs[user] = []models.Conversation{*primary, *sibling, *unrelated, *group}

	source.messages[primary.ID] = []models.Message{
		messageAt(primary.ID, user, counterparty, "hello", base.Add(time.Minute)),
		messageAt(primary.ID, counterparty, user, "reply", base.Add(3*time.Minute)),
	}
	source.messages[sibling.ID] = []models.Message{
		messageAt(sibling.ID, counterparty, user, "from the duplicate", base.Add(2*time.Minute)),
	}
	source.messages[unrelated.ID] = []models.Message{
		messageAt(unrelated.ID, stranger, user, "should not appear", base),
	}

	thread, err := svc.LoadThread(context.Background(), user, primary.ID.String())
	require.NoError(t, err)

	assert.Equal(t, counterparty, thread.CounterpartyID)
	assert.ElementsMatch(t, []uuid.UUID{primary.ID, sibling.ID}, thread.SourceIDs)

	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "hello", thread.Messages[0].Content)
	assert.Equal(t, "from the duplicate", thread.Messages[1].Content)
	assert.Equal(t, "reply", thread.Messages[2].Content)
}

func TestLoadThreadSkipsFailedSiblings(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty := uuid.New(), uuid.New()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	primary := pairConversation(user, counterparty, base)
	sibling := pairConversation(user, counterparty, base.Add(time.Hour))

	source.conversations[primary.ID] = primary
	source.userConvs[user] = []models.Conversation{*primary, *sibling}
	source.messages[primary.ID] = []models.Message{
		messageAt(primary.ID, user, counterparty, "kept", base),
	}
	source.failMessagesFor[sibling.ID] = errors.New("connection reset")

	thread, err := svc.LoadThread(context.Background(), user, primary.ID.String())
	require.NoError(t, err, "a failed merge source is skipped, not fatal")

	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "kept", thread.Messages[0].Content)
	assert.Equal(t, []uuid.UUID{primary.ID}, thread.SourceIDs)
}

func TestLoadThreadListingFailureFallsBackToPrimary(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	user, counterparty := uuid.New(), uuid.New()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	primary := pairConversation(user, counterparty, base)
	source.conversations[primary.ID] = primary
	source.messages[primary.ID] = []models.Message{
		messageAt(primary.ID, counterparty, user, "still here", base),
	}
	source.failListing = errors.New("timeout")

	thread, err := svc.LoadThread(context.Background(), user, primary.ID.String())
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, []uuid.UUID{primary.ID}, thread.SourceIDs)
}

func TestLoadThreadRejectsNonParticipant(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	a, b, outsider := uuid.New(), uuid.New(), uuid.New()
	conv := pairConversation(a, b, time.Now())
	source.conversations[conv.ID] = conv

	_, err := svc.LoadThread(context.Background(), outsider, conv.ID.String())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadThreadBookingHandle(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	client, owner := uuid.New(), uuid.New()
	bookingID := uuid.New()
	convID := uuid.New()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	source.parties[bookingID] = [2]uuid.UUID{client, owner}
	source.bookingMsgs[bookingID] = []models.Message{
		messageAt(convID, client, owner, "is it available?", base),
	}

	thread, err := svc.LoadThread(context.Background(), client, BookingHandlePrefix+bookingID.String())
	require.NoError(t, err)
	assert.Equal(t, owner, thread.CounterpartyID, "the client's counterparty is the owner")

	thread, err = svc.LoadThread(context.Background(), owner, BookingHandlePrefix+bookingID.String())
	require.NoError(t, err)
	assert.Equal(t, client, thread.CounterpartyID, "the owner's counterparty is the client")
}

func TestMarkAsReadFiltersAndIsIdempotent(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	reader, sender := uuid.New(), uuid.New()
	convID := uuid.New()
	base := time.Now()

	incoming := messageAt(convID, sender, reader, "unread", base)
	own := messageAt(convID, reader, sender, "mine", base)
	alreadyRead := messageAt(convID, sender, reader, "seen", base)
	readAt := base.Add(-time.Hour)
	alreadyRead.ReadAt = &readAt

	source.messages[convID] = []models.Message{incoming, own, alreadyRead}

	ids := []uuid.UUID{incoming.ID, own.ID, alreadyRead.ID, uuid.New()}
	err := svc.MarkAsRead(context.Background(), reader, convID, ids)
	require.NoError(t, err)

	require.Len(t, source.markCalls, 1)
	assert.Equal(t, []uuid.UUID{incoming.ID}, source.markCalls[0],
		"own, already-read and unknown ids are filtered out")

	// The message is now read, so a second submission of the same ids is a
	// pure no-op.
	err = svc.MarkAsRead(context.Background(), reader, convID, ids)
	require.NoError(t, err)
	assert.Len(t, source.markCalls, 1)
}

func TestMarkAsReadReleasesIDsAfterFailure(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	reader, sender := uuid.New(), uuid.New()
	convID := uuid.New()
	msg := messageAt(convID, sender, reader, "unread", time.Now())
	source.messages[convID] = []models.Message{msg}

	source.failMarking = errors.New("write failed")
	err := svc.MarkAsRead(context.Background(), reader, convID, []uuid.UUID{msg.ID})
	require.Error(t, err)

	// The failed id is released, so the retry reaches the source again.
	source.failMarking = nil
	err = svc.MarkAsRead(context.Background(), reader, convID, []uuid.UUID{msg.ID})
	require.NoError(t, err)
	require.Len(t, source.markCalls, 2)
}

func TestMarkAsReadEmptyInput(t *testing.T) {
	source := newFakeSource()
	svc := NewThreadService(source)

	err := svc.MarkAsRead(context.Background(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, source.markCalls)
}
