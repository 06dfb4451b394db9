package contacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atelier-web/atelier/internal/shared"
)

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context, status string, limit, offset int) ([]Message, int, error)
	GetByID(ctx context.Context, id int64) (Message, error)
	Create(ctx context.Context, m Message) (Message, error)
	UpdateStatus(ctx context.Context, id int64, status string) (Message, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Notifier enqueues background notifications for new messages.
type Notifier interface {
	EnqueueContactNotification(ctx context.Context, messageID int64) error
}

// DuplicateGuard absorbs resubmissions of the same payload.
type DuplicateGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Input is a public contact form submission.
type Input struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=5000"`
}

// ErrInvalidStatus rejects unknown triage statuses.
var ErrInvalidStatus = errors.New("invalid contact status")

// ListPage is a paginated listing for the admin inbox.
type ListPage struct {
	Messages   []Message         `json:"messages"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service owns contact intake and triage.
type Service struct {
	store       Store
	idempotency DuplicateGuard
	notifier    Notifier
	logger      *slog.Logger
}

func NewService(store Store, idem DuplicateGuard, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, idempotency: idem, notifier: notifier, logger: logger}
}

// Submit stores a new message. Resubmits of an identical payload from the
// same sender are absorbed without creating a second row.
func (s *Service) Submit(ctx context.Context, in Input, ip string) (Message, error) {
	key := submissionKey(in)
	if err := s.idempotency.CheckAndInsert(ctx, key, "contacts"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return Message{}, err
		}
		return Message{}, fmt.Errorf("contact idempotency check: %w", err)
	}

	msg, err := s.store.Create(ctx, Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Subject: strings.TrimSpace(in.Subject),
		Body:    in.Body,
		Status:  StatusNew,
		IP:      ip,
	})
	if err != nil {
		return Message{}, fmt.Errorf("store contact message: %w", err)
	}

	// Notification failure must not lose the message.
	if s.notifier != nil {
		if err := s.notifier.EnqueueContactNotification(ctx, msg.ID); err != nil {
			s.logger.Warn("contact notification enqueue failed", "error", err, "message_id", msg.ID)
		}
	}
	return msg, nil
}

// List returns the admin inbox.
func (s *Service) List(ctx context.Context, status string, page, perPage int) (ListPage, error) {
	if status != "" && !ValidStatus(status) {
		return ListPage{}, ErrInvalidStatus
	}
	items, total, err := s.store.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return ListPage{}, fmt.Errorf("list contact messages: %w", err)
	}
	return ListPage{Messages: items, Pagination: shared.NewPagination(page, perPage, total)}, nil
}

// Get fetches a single message and marks a new one as read.
func (s *Service) Get(ctx context.Context, id int64) (Message, error) {
	msg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if msg.Status == StatusNew {
		if updated, err := s.store.UpdateStatus(ctx, id, StatusRead); err == nil {
			return updated, nil
		}
	}
	return msg, nil
}

// SetStatus moves a message through triage.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (Message, error) {
	if !ValidStatus(status) {
		return Message{}, ErrInvalidStatus
	}
	return s.store.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Counts returns inbox totals per status for the triage screen.
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	return s.store.CountByStatus(ctx)
}

func submissionKey(in Input) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(in.Email)) + "\x00" + in.Subject + "\x00" + in.Body))
	return hex.EncodeToString(sum[:])
}
