package gate

import (
	"context"

	"github.com/atelier-web/atelier/internal/shared"
)

// Security event types recorded by the gate.
const (
	EventRateLimited  = "rate_limit_exceeded"
	EventInvalidToken = "invalid_token"
	EventAccessDenied = "access_denied"
)

// SecurityRecorder receives audit events for rejected traffic.
type SecurityRecorder interface {
	Record(ctx context.Context, ev shared.SecurityEvent) error
}
