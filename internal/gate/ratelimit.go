package gate

import (
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LimiterConfig bounds requests per client identity inside a rolling window.
type LimiterConfig struct {
	Window      time.Duration
	MaxRequests int
	Message     string
}

// Result reflects the post-check counter state for one identifier.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

type counterEntry struct {
	count   int
	resetAt time.Time
}

// CounterStore owns the in-memory counters shared by every concurrent
// request in the process. Keys are namespaced per limiter. Counters are
// process-local and not persisted: restarts and additional instances
// start fresh, an accepted limitation.
type CounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
}

// NewCounterStore constructs an empty store.
func NewCounterStore() *CounterStore {
	return &CounterStore{entries: make(map[string]*counterEntry)}
}

// admit performs the check-then-increment as one step under the lock so
// two concurrent requests cannot both take the last remaining slot.
// Expired entries are replaced lazily here.
func (s *CounterStore) admit(key string, limit int, window time.Duration, now time.Time) (count int, resetAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || !now.Before(e.resetAt) {
		e = &counterEntry{resetAt: now.Add(window)}
		s.entries[key] = e
	}
	if e.count < limit {
		e.count++
		return e.count, e.resetAt, true
	}
	return e.count, e.resetAt, false
}

// Sweep drops expired entries. Lazy replacement in admit keeps behavior
// correct without it; sweeping just bounds memory between bursts.
func (s *CounterStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of live entries.
func (s *CounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Limiter applies a fixed window cap per derived client identifier.
// Admission is purely count based: a legitimate burst and a malicious
// one are treated alike, and there is no backoff.
type Limiter struct {
	name  string
	cfg   LimiterConfig
	store *CounterStore
	now   func() time.Time
}

// NewLimiter constructs a limiter writing into store under its own
// namespace. A nil store gets a private one.
func NewLimiter(name string, cfg LimiterConfig, store *CounterStore) *Limiter {
	if store == nil {
		store = NewCounterStore()
	}
	return &Limiter{name: name, cfg: cfg, store: store, now: time.Now}
}

// Name returns the limiter's namespace.
func (l *Limiter) Name() string {
	return l.name
}

// Message returns the configured rejection message.
func (l *Limiter) Message() string {
	return l.cfg.Message
}

// Check admits or rejects the request. A non-empty identifier overrides
// the default derivation. Remaining is never negative and never exceeds
// the configured maximum.
func (l *Limiter) Check(r *http.Request, identifier string) Result {
	if identifier == "" {
		identifier = ClientIdentifier(r)
	}
	count, resetAt, ok := l.store.admit(l.name+":"+identifier, l.cfg.MaxRequests, l.cfg.Window, l.now())
	remaining := l.cfg.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Success: ok, Limit: l.cfg.MaxRequests, Remaining: remaining, ResetTime: resetAt}
}

// ClientIdentifier derives the heuristic rate limit key: the first
// forwarded client IP plus a truncated user agent fragment. A soft
// identity, enough to split distinct clients sharing one NAT address.
func ClientIdentifier(r *http.Request) string {
	frag := base64.RawURLEncoding.EncodeToString([]byte(r.UserAgent()))
	if len(frag) > 16 {
		frag = frag[:16]
	}
	return clientIP(r) + "|" + frag
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return "unknown"
}
