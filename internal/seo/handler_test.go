package seo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/atelier-web/atelier/internal/platform/cache"
	"github.com/atelier-web/atelier/internal/shared"
)

type memoryEntryStore struct {
	entries map[string]Entry
	nextID  int64
}

func newMemoryEntryStore() *memoryEntryStore {
	return &memoryEntryStore{entries: make(map[string]Entry)}
}

func (s *memoryEntryStore) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *memoryEntryStore) GetByPath(ctx context.Context, path string) (Entry, error) {
	e, ok := s.entries[path]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	return e, nil
}

func (s *memoryEntryStore) GetByID(ctx context.Context, id int64) (Entry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, shared.ErrNotFound
}

func (s *memoryEntryStore) Upsert(ctx context.Context, e Entry) (Entry, error) {
	if existing, ok := s.entries[e.Path]; ok {
		e.ID = existing.ID
	} else {
		s.nextID++
		e.ID = s.nextID
	}
	s.entries[e.Path] = e
	return e, nil
}

func (s *memoryEntryStore) Delete(ctx context.Context, id int64) error {
	for path, e := range s.entries {
		if e.ID == id {
			delete(s.entries, path)
			return nil
		}
	}
	return shared.ErrNotFound
}

func newMetaRouter(t *testing.T, store *memoryEntryStore) http.Handler {
	t.Helper()
	svc := NewService(store, cache.NewContent(nil, 0), "https://example.com", nil, nil, slog.Default())
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountMeta(r)
	return r
}

func TestMetaReturnsEntryForPath(t *testing.T) {
	store := newMemoryEntryStore()
	_, err := store.Upsert(context.Background(), Entry{
		Path:        "/blog/first-post",
		Title:       "First Post",
		Description: "Opening entry.",
		NoIndex:     false,
	})
	require.NoError(t, err)
	router := newMetaRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta?path=/blog/first-post", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "First Post", out.Title)
	require.Equal(t, "Opening entry.", out.Description)
	require.False(t, out.NoIndex)
}

func TestMetaUnknownPathIsNotFound(t *testing.T) {
	router := newMetaRouter(t, newMemoryEntryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta?path=/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetaRejectsRelativePath(t *testing.T) {
	router := newMetaRouter(t, newMemoryEntryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta?path=blog", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
