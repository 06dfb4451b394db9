package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-web/atelier/internal/contacts"
	jobmetrics "github.com/atelier-web/atelier/internal/jobs"
)

// ContactSource reads stored contact messages without touching their
// triage status.
type ContactSource interface {
	GetByID(ctx context.Context, id int64) (contacts.Message, error)
}

// MediaPruner drops abandoned uploads.
type MediaPruner interface {
	PruneUnconfirmed(ctx context.Context, olderThan time.Duration) (int, error)
}

// SitemapBuilder regenerates the cached sitemap.
type SitemapBuilder interface {
	RebuildSitemap(ctx context.Context) error
}

// KeyCleaner expires old idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Processor owns the task handlers that run inside the worker binary.
type Processor struct {
	logger     *slog.Logger
	contacts   ContactSource
	mailer     Sender
	notifyAddr string
	media      MediaPruner
	sitemap    SitemapBuilder
	keys       KeyCleaner
	metrics    *jobmetrics.Metrics
}

// ProcessorConfig collects processor dependencies.
type ProcessorConfig struct {
	Logger     *slog.Logger
	Contacts   ContactSource
	Mailer     Sender
	NotifyAddr string
	Media      MediaPruner
	Sitemap    SitemapBuilder
	Keys       KeyCleaner
	Metrics    *jobmetrics.Metrics
}

// NewProcessor constructs a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		logger:     cfg.Logger,
		contacts:   cfg.Contacts,
		mailer:     cfg.Mailer,
		notifyAddr: cfg.NotifyAddr,
		media:      cfg.Media,
		sitemap:    cfg.Sitemap,
		keys:       cfg.Keys,
		metrics:    cfg.Metrics,
	}
}

// Handlers returns the task registrations for the worker mux, each wrapped
// with run instrumentation.
func (p *Processor) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskContactNotify, Handler: p.instrument(TaskContactNotify, p.HandleContactNotify)},
		{Type: TaskMediaPrune, Handler: p.instrument(TaskMediaPrune, p.HandleMediaPrune)},
		{Type: TaskSitemapRefresh, Handler: p.instrument(TaskSitemapRefresh, p.HandleSitemapRefresh)},
		{Type: TaskMaintenanceCleanup, Handler: p.instrument(TaskMaintenanceCleanup, p.HandleMaintenanceCleanup)},
	}
}

func (p *Processor) instrument(name string, h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := p.metrics.Track(name)
		return tracker.End(h(ctx, t))
	}
}

// HandleContactNotify mails the owner about a new contact message.
func (p *Processor) HandleContactNotify(ctx context.Context, t *asynq.Task) error {
	var payload ContactNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	msg, err := p.contacts.GetByID(ctx, payload.MessageID)
	if err != nil {
		return fmt.Errorf("load contact message %d: %w", payload.MessageID, err)
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Body)
	if err := p.mailer.Send(ctx, p.notifyAddr, "New contact message: "+msg.Subject, body); err != nil {
		return err
	}
	p.logger.Info("contact notification sent", "message_id", msg.ID)
	return nil
}

// HandleMediaPrune removes uploads the client never completed.
func (p *Processor) HandleMediaPrune(ctx context.Context, t *asynq.Task) error {
	pruned, err := p.media.PruneUnconfirmed(ctx, 24*time.Hour)
	if err != nil {
		return err
	}
	if pruned > 0 {
		p.logger.Info("stale uploads pruned", "count", pruned)
	}
	return nil
}

// HandleSitemapRefresh regenerates sitemap.xml.
func (p *Processor) HandleSitemapRefresh(ctx context.Context, t *asynq.Task) error {
	if err := p.sitemap.RebuildSitemap(ctx); err != nil {
		return err
	}
	p.logger.Info("sitemap refreshed")
	return nil
}

// HandleMaintenanceCleanup expires old idempotency keys.
func (p *Processor) HandleMaintenanceCleanup(ctx context.Context, t *asynq.Task) error {
	return p.keys.Cleanup(ctx, 7*24*time.Hour)
}
