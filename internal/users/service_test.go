package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/shared"
)

type memoryUserStore struct {
	users  map[int64]User
	hashes map[int64]string
	nextID int64
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[int64]User), hashes: make(map[int64]string)}
}

func (s *memoryUserStore) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var all []User
	for _, u := range s.users {
		all = append(all, u)
	}
	return all, len(all), nil
}

func (s *memoryUserStore) GetByID(ctx context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s *memoryUserStore) Create(ctx context.Context, u User, passwordHash string) (User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return User{}, shared.ErrDuplicate
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.IsActive = true
	s.users[u.ID] = u
	s.hashes[u.ID] = passwordHash
	return u, nil
}

func (s *memoryUserStore) Update(ctx context.Context, u User) (User, error) {
	if _, ok := s.users[u.ID]; !ok {
		return User{}, shared.ErrNotFound
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *memoryUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if _, ok := s.users[id]; !ok {
		return shared.ErrNotFound
	}
	s.hashes[id] = passwordHash
	return nil
}

func (s *memoryUserStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func admin() gate.Principal {
	return gate.Principal{ID: 1, Role: gate.RoleAdmin}
}

func TestCreateHashesPassword(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), admin(), CreateInput{
		Email:    "Editor@Example.com",
		Name:     "Ed",
		Password: "correct horse battery",
		Role:     string(gate.RoleEditor),
	})
	require.NoError(t, err)
	require.Equal(t, "editor@example.com", created.Email)
	require.Equal(t, gate.RoleEditor, created.Role)

	hash := store.hashes[created.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery")))
}

func TestCreateRejectsRoleAboveActor(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Email:    "root@example.com",
		Name:     "Root",
		Password: "correct horse battery",
		Role:     string(gate.RoleSuperAdmin),
	})
	require.ErrorIs(t, err, ErrRoleTooHigh)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Email:    "x@example.com",
		Name:     "X",
		Password: "correct horse battery",
		Role:     "OVERLORD",
	})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestUpdateRejectsSelf(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	_, err := svc.Update(context.Background(), admin(), 1, UpdateInput{
		Name: "Me",
		Role: string(gate.RoleAdmin),
	})
	require.ErrorIs(t, err, ErrSelfManagement)
}

func TestDeleteRejectsHigherRole(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	owner, err := svc.Create(context.Background(), gate.Principal{ID: 1, Role: gate.RoleSuperAdmin}, CreateInput{
		Email:    "owner@example.com",
		Name:     "Owner",
		Password: "correct horse battery",
		Role:     string(gate.RoleSuperAdmin),
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), gate.Principal{ID: 99, Role: gate.RoleAdmin}, owner.ID)
	require.ErrorIs(t, err, ErrRoleTooHigh)
}

func TestDeleteRejectsSelf(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	err := svc.Delete(context.Background(), admin(), 1)
	require.ErrorIs(t, err, ErrSelfManagement)
}

func TestResetPasswordRotatesHash(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), admin(), CreateInput{
		Email:    "editor@example.com",
		Name:     "Ed",
		Password: "correct horse battery",
		Role:     string(gate.RoleEditor),
	})
	require.NoError(t, err)
	before := store.hashes[created.ID]

	require.NoError(t, svc.ResetPassword(context.Background(), admin(), created.ID, "entirely new secret"))
	after := store.hashes[created.ID]
	require.NotEqual(t, before, after)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(after), []byte("entirely new secret")))
}
