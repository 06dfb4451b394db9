package contacts

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelier-web/atelier/internal/shared"
)

type memoryMessageStore struct {
	messages map[int64]Message
	nextID   int64
}

func newMemoryMessageStore() *memoryMessageStore {
	return &memoryMessageStore{messages: make(map[int64]Message)}
}

func (s *memoryMessageStore) List(ctx context.Context, status string, limit, offset int) ([]Message, int, error) {
	var all []Message
	for _, m := range s.messages {
		if status == "" || m.Status == status {
			all = append(all, m)
		}
	}
	return all, len(all), nil
}

func (s *memoryMessageStore) GetByID(ctx context.Context, id int64) (Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return Message{}, shared.ErrNotFound
	}
	return m, nil
}

func (s *memoryMessageStore) Create(ctx context.Context, m Message) (Message, error) {
	s.nextID++
	m.ID = s.nextID
	s.messages[m.ID] = m
	return m, nil
}

func (s *memoryMessageStore) UpdateStatus(ctx context.Context, id int64, status string) (Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return Message{}, shared.ErrNotFound
	}
	m.Status = status
	s.messages[id] = m
	return m, nil
}

func (s *memoryMessageStore) Delete(ctx context.Context, id int64) error {
	delete(s.messages, id)
	return nil
}

func (s *memoryMessageStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, m := range s.messages {
		counts[m.Status]++
	}
	return counts, nil
}

type memoryGuard struct {
	seen map[string]bool
}

func (g *memoryGuard) CheckAndInsert(ctx context.Context, key, module string) error {
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[module+":"+key] {
		return shared.ErrIdempotencyConflict
	}
	g.seen[module+":"+key] = true
	return nil
}

type recordingNotifier struct {
	enqueued []int64
	fail     error
}

func (n *recordingNotifier) EnqueueContactNotification(ctx context.Context, messageID int64) error {
	if n.fail != nil {
		return n.fail
	}
	n.enqueued = append(n.enqueued, messageID)
	return nil
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	store := newMemoryMessageStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, &memoryGuard{}, notifier, slog.Default())

	msg, err := svc.Submit(context.Background(), Input{
		Name:    "Ada",
		Email:   "Ada@Example.COM ",
		Subject: "Hello",
		Body:    "I have a project for you.",
	}, "203.0.113.9")
	require.NoError(t, err)
	require.Equal(t, StatusNew, msg.Status)
	require.Equal(t, "ada@example.com", msg.Email)
	require.Equal(t, "203.0.113.9", msg.IP)
	require.Equal(t, []int64{msg.ID}, notifier.enqueued)
}

func TestSubmitAbsorbsDuplicatePayload(t *testing.T) {
	store := newMemoryMessageStore()
	svc := NewService(store, &memoryGuard{}, &recordingNotifier{}, slog.Default())

	in := Input{Name: "Ada", Email: "ada@example.com", Subject: "Hello", Body: "Same message."}
	_, err := svc.Submit(context.Background(), in, "203.0.113.9")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), in, "203.0.113.9")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, store.messages, 1)
}

func TestSubmitSurvivesNotifierFailure(t *testing.T) {
	store := newMemoryMessageStore()
	notifier := &recordingNotifier{fail: errors.New("queue down")}
	svc := NewService(store, &memoryGuard{}, notifier, slog.Default())

	msg, err := svc.Submit(context.Background(), Input{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Body:    "Body.",
	}, "")
	require.NoError(t, err)
	require.NotZero(t, msg.ID)
}

func TestGetMarksNewMessageRead(t *testing.T) {
	store := newMemoryMessageStore()
	svc := NewService(store, &memoryGuard{}, &recordingNotifier{}, slog.Default())

	created, err := svc.Submit(context.Background(), Input{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Body:    "Body.",
	}, "")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRead, got.Status)

	again, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRead, again.Status)
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	store := newMemoryMessageStore()
	svc := NewService(store, &memoryGuard{}, &recordingNotifier{}, slog.Default())

	_, err := svc.SetStatus(context.Background(), 1, "spam")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	store := newMemoryMessageStore()
	svc := NewService(store, &memoryGuard{}, &recordingNotifier{}, slog.Default())

	_, err := svc.List(context.Background(), "bogus", 1, 20)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCountsGroupsInboxByStatus(t *testing.T) {
	store := newMemoryMessageStore()
	svc := NewService(store, &memoryGuard{}, &recordingNotifier{}, slog.Default())

	first, err := svc.Submit(context.Background(), Input{Name: "Ada", Email: "ada@example.com", Subject: "One", Body: "First message."}, "")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), Input{Name: "Ada", Email: "ada@example.com", Subject: "Two", Body: "Second message."}, "")
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), first.ID, StatusArchived)
	require.NoError(t, err)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{StatusNew: 1, StatusArchived: 1}, counts)
}
