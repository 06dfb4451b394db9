package seo

import "time"

// Entry is per-path page metadata rendered into the document head.
type Entry struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OGImage     string    `json:"og_image,omitempty"`
	NoIndex     bool      `json:"no_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
