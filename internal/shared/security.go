package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityEvent describes an audit-relevant request outcome.
type SecurityEvent struct {
	Type      string
	IP        string
	UserAgent string
	UserID    int64
	Path      string
	Method    string
	Details   map[string]any
	At        time.Time
}

// SecurityLogger persists security events in security_events.
type SecurityLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSecurityLogger returns a new SecurityLogger.
func NewSecurityLogger(pool *pgxpool.Pool, logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{pool: pool, logger: logger}
}

// Record persists the event. Failures are logged, never propagated to the
// request path that produced the event.
func (l *SecurityLogger) Record(ctx context.Context, ev SecurityEvent) error {
	if l == nil || l.pool == nil {
		return errors.New("security logger not initialised")
	}
	if ev.Type == "" {
		return errors.New("security event requires a type")
	}
	detailsJSON, err := json.Marshal(ev.Details)
	if err != nil {
		return err
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO security_events (event_type, ip, user_agent, user_id, path, method, details, occurred_at)
		 VALUES ($1, $2, $3, NULLIF($4, 0), $5, $6, $7, $8)`,
		ev.Type, ev.IP, ev.UserAgent, ev.UserID, ev.Path, ev.Method, detailsJSON, at)
	if err != nil && l.logger != nil {
		l.logger.Warn("record security event", slog.String("type", ev.Type), slog.Any("error", err))
	}
	return err
}

// Recent returns the latest events for the system dashboard.
func (l *SecurityLogger) Recent(ctx context.Context, limit int) ([]SecurityEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.pool.Query(ctx,
		`SELECT event_type, ip, user_agent, COALESCE(user_id, 0), path, method, details, occurred_at
		 FROM security_events ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []SecurityEvent
	for rows.Next() {
		var ev SecurityEvent
		var details []byte
		if err := rows.Scan(&ev.Type, &ev.IP, &ev.UserAgent, &ev.UserID, &ev.Path, &ev.Method, &details, &ev.At); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &ev.Details)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
