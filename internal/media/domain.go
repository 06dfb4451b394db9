package media

import "time"

// Object is an uploaded asset. The binary lives in S3; this row tracks
// its key and upload lifecycle.
type Object struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Uploaded    bool      `json:"uploaded"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
