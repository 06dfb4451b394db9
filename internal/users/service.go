package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/shared"
)

// Store defines data access methods for accounts.
type Store interface {
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User, passwordHash string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=12,max=128"`
	Role     string `json:"role" validate:"required"`
}

// UpdateInput carries mutable account fields.
type UpdateInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	Role          string `json:"role" validate:"required"`
	EmailVerified bool   `json:"email_verified"`
	IsActive      bool   `json:"is_active"`
}

// Errors surfaced to the handler layer.
var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrRoleTooHigh    = errors.New("cannot assign a role above your own")
	ErrSelfManagement = errors.New("cannot change or remove your own account here")
)

// ListPage is a paginated listing.
type ListPage struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service handles account management. Actor checks keep admins from
// escalating past their own role.
type Service struct {
	store Store
}

// NewService builds Service instance.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns accounts for the admin screen.
func (s *Service) List(ctx context.Context, page, perPage int) (ListPage, error) {
	items, total, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return ListPage{}, fmt.Errorf("list users: %w", err)
	}
	return ListPage{Users: items, Pagination: shared.NewPagination(page, perPage, total)}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.store.GetByID(ctx, id)
}

// Create adds an account. The actor cannot mint a role above their own.
func (s *Service) Create(ctx context.Context, actor gate.Principal, in CreateInput) (User, error) {
	role, err := checkRole(actor, in.Role)
	if err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.store.Create(ctx, User{
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Name:          strings.TrimSpace(in.Name),
		Role:          role,
		EmailVerified: true,
	}, string(hash))
}

// Update rewrites an account. Actors cannot edit themselves through the
// management API, which keeps the last admin from locking everyone out.
func (s *Service) Update(ctx context.Context, actor gate.Principal, id int64, in UpdateInput) (User, error) {
	if actor.ID == id {
		return User{}, ErrSelfManagement
	}
	role, err := checkRole(actor, in.Role)
	if err != nil {
		return User{}, err
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Role = role
	current.EmailVerified = in.EmailVerified
	current.IsActive = in.IsActive
	return s.store.Update(ctx, current)
}

// ResetPassword sets a new password for an account.
func (s *Service) ResetPassword(ctx context.Context, actor gate.Principal, id int64, password string) error {
	if actor.ID == id {
		return ErrSelfManagement
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, id, string(hash))
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, actor gate.Principal, id int64) error {
	if actor.ID == id {
		return ErrSelfManagement
	}
	target, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role.Level() > actor.Role.Level() {
		return ErrRoleTooHigh
	}
	return s.store.Delete(ctx, id)
}

func checkRole(actor gate.Principal, raw string) (gate.Role, error) {
	role := gate.Role(raw)
	if !role.Known() {
		return "", ErrUnknownRole
	}
	if role.Level() > actor.Role.Level() {
		return "", ErrRoleTooHigh
	}
	return role, nil
}
