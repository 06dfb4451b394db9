package gate

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(window time.Duration, max int) (*Limiter, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter("test", LimiterConfig{Window: window, MaxRequests: max, Message: "slow down"}, NewCounterStore())
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterExhaustsWindow(t *testing.T) {
	l, _ := newTestLimiter(15*time.Minute, 5)
	req := httptest.NewRequest("GET", "/auth/login", nil)

	for i, want := range []int{4, 3, 2, 1, 0} {
		res := l.Check(req, "1.2.3.4|abcdef")
		require.True(t, res.Success, "call %d should be admitted", i+1)
		assert.Equal(t, 5, res.Limit)
		assert.Equal(t, want, res.Remaining)
	}

	res := l.Check(req, "1.2.3.4|abcdef")
	require.False(t, res.Success)
	assert.Equal(t, 0, res.Remaining)

	// A different identifier is unaffected.
	other := l.Check(req, "5.6.7.8|ghijkl")
	assert.True(t, other.Success)
	assert.Equal(t, 4, other.Remaining)
}

func TestLimiterWindowReset(t *testing.T) {
	l, clock := newTestLimiter(15*time.Minute, 3)
	req := httptest.NewRequest("GET", "/", nil)

	var last Result
	for i := 0; i < 4; i++ {
		last = l.Check(req, "k")
	}
	require.False(t, last.Success)

	*clock = clock.Add(15*time.Minute + time.Second)
	res := l.Check(req, "k")
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Remaining, "fresh window admits with n-1 remaining")
	assert.True(t, res.ResetTime.After(*clock))
}

func TestLimiterRemainingBounds(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 2)
	req := httptest.NewRequest("GET", "/", nil)
	for i := 0; i < 10; i++ {
		res := l.Check(req, "k")
		assert.GreaterOrEqual(t, res.Remaining, 0)
		assert.LessOrEqual(t, res.Remaining, 2)
	}
}

func TestLimiterNoDoubleAdmission(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 5)
	req := httptest.NewRequest("GET", "/", nil)

	// Fill all but the last slot.
	for i := 0; i < 4; i++ {
		require.True(t, l.Check(req, "k").Success)
	}

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Check(req, "k").Success
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, ok := range results {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted, "exactly one of two concurrent checks takes the last slot")
}

func TestLimiterConcurrentBurst(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 5)
	req := httptest.NewRequest("GET", "/", nil)

	const callers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(req, "burst").Success {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, admitted)
}

func TestCounterStoreSweep(t *testing.T) {
	store := NewCounterStore()
	l := NewLimiter("a", LimiterConfig{Window: time.Minute, MaxRequests: 1}, store)
	now := time.Now()
	l.now = func() time.Time { return now }
	req := httptest.NewRequest("GET", "/", nil)

	l.Check(req, "x")
	l.Check(req, "y")
	require.Equal(t, 2, store.Len())

	store.Sweep(now.Add(2 * time.Minute))
	assert.Equal(t, 0, store.Len())
}

func TestClientIdentifier(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	req.Header.Set("CF-Connecting-IP", "192.0.2.3")
	id := ClientIdentifier(req)
	assert.True(t, len(id) > len("203.0.113.9|"))
	assert.Contains(t, id, "203.0.113.9|", "first forwarded hop wins")

	req.Header.Del("X-Forwarded-For")
	assert.Contains(t, ClientIdentifier(req), "198.51.100.2|")

	req.Header.Del("X-Real-IP")
	assert.Contains(t, ClientIdentifier(req), "192.0.2.3|")

	req.Header.Del("CF-Connecting-IP")
	assert.Contains(t, ClientIdentifier(req), "unknown|")

	// Same IP, different user agents, different keys.
	a := httptest.NewRequest("GET", "/", nil)
	a.Header.Set("X-Real-IP", "10.1.1.1")
	a.Header.Set("User-Agent", "browser-one")
	b := httptest.NewRequest("GET", "/", nil)
	b.Header.Set("X-Real-IP", "10.1.1.1")
	b.Header.Set("User-Agent", "browser-two")
	assert.NotEqual(t, ClientIdentifier(a), ClientIdentifier(b))
}
