package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskContactNotify emails the site owner about a new contact message.
	TaskContactNotify = "contact:notify"
	// TaskMediaPrune drops abandoned presigned uploads.
	TaskMediaPrune = "media:prune"
	// TaskSitemapRefresh regenerates sitemap.xml into Redis.
	TaskSitemapRefresh = "sitemap:refresh"
	// TaskMaintenanceCleanup expires old idempotency keys.
	TaskMaintenanceCleanup = "maintenance:cleanup"
)

// ContactNotifyPayload identifies the stored message to announce.
type ContactNotifyPayload struct {
	MessageID int64 `json:"message_id"`
}

// NewContactNotifyTask constructs an Asynq task.
func NewContactNotifyTask(payload ContactNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactNotify, data), nil
}

// NewMediaPruneTask constructs the scheduled prune task.
func NewMediaPruneTask() *asynq.Task {
	return asynq.NewTask(TaskMediaPrune, nil)
}

// NewSitemapRefreshTask constructs the scheduled sitemap task.
func NewSitemapRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskSitemapRefresh, nil)
}

// NewMaintenanceCleanupTask constructs the scheduled cleanup task.
func NewMaintenanceCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskMaintenanceCleanup, nil)
}
