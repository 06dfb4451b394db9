package gate

import "time"

// The three production limiter profiles. Auth is tight against
// credential stuffing, contact keeps the form from becoming a spam
// cannon, and API is a broad ceiling for the admin surface.
var (
	AuthLimiterConfig = LimiterConfig{
		Window:      15 * time.Minute,
		MaxRequests: 5,
		Message:     "Too many login attempts. Try again later.",
	}
	ContactLimiterConfig = LimiterConfig{
		Window:      time.Hour,
		MaxRequests: 3,
		Message:     "Too many messages. Try again later.",
	}
	APILimiterConfig = LimiterConfig{
		Window:      15 * time.Minute,
		MaxRequests: 100,
		Message:     "Too many requests. Slow down.",
	}
)

// Limiters bundles the named limiter instances over one shared store.
type Limiters struct {
	Auth    *Limiter
	Contact *Limiter
	API     *Limiter
}

// NewLimiters constructs the standard set.
func NewLimiters(store *CounterStore) *Limiters {
	if store == nil {
		store = NewCounterStore()
	}
	return &Limiters{
		Auth:    NewLimiter("auth", AuthLimiterConfig, store),
		Contact: NewLimiter("contact", ContactLimiterConfig, store),
		API:     NewLimiter("api", APILimiterConfig, store),
	}
}
