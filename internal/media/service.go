package media

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-web/atelier/internal/shared"
)

// Store is the persistence port used by the service.
type Store interface {
	List(ctx context.Context, limit, offset int) ([]Object, int, error)
	GetByID(ctx context.Context, id int64) (Object, error)
	Create(ctx context.Context, o Object) (Object, error)
	MarkUploaded(ctx context.Context, id int64) (Object, error)
	Delete(ctx context.Context, id int64) error
	StaleUnconfirmed(ctx context.Context, olderThan time.Duration) ([]Object, error)
}

// ObjectStorage is the blob backend port.
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// UploadRequest describes the file the admin wants to upload.
type UploadRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=120"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,gt=0,lte=52428800"`
}

// UploadTicket is handed back to the client to perform the PUT.
type UploadTicket struct {
	Object    Object `json:"object"`
	UploadURL string `json:"upload_url"`
}

// ListPage is a paginated listing.
type ListPage struct {
	Objects    []Object          `json:"objects"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service coordinates media metadata and the blob backend.
type Service struct {
	store   Store
	storage ObjectStorage
	logger  *slog.Logger
}

func NewService(store Store, storage ObjectStorage, logger *slog.Logger) *Service {
	return &Service{store: store, storage: storage, logger: logger}
}

// RequestUpload records a pending object and presigns the PUT.
func (s *Service) RequestUpload(ctx context.Context, uploadedBy int64, in UploadRequest) (UploadTicket, error) {
	key := objectKey(in.FileName)
	obj, err := s.store.Create(ctx, Object{
		Key:         key,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		return UploadTicket{}, fmt.Errorf("record upload: %w", err)
	}
	url, err := s.storage.PresignUpload(ctx, key, in.ContentType)
	if err != nil {
		return UploadTicket{}, err
	}
	return UploadTicket{Object: obj, UploadURL: url}, nil
}

// CompleteUpload confirms the client finished the PUT.
func (s *Service) CompleteUpload(ctx context.Context, id int64) (Object, error) {
	return s.store.MarkUploaded(ctx, id)
}

// DownloadURL presigns a GET for an uploaded object.
func (s *Service) DownloadURL(ctx context.Context, id int64) (string, error) {
	obj, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !obj.Uploaded {
		return "", shared.ErrNotFound
	}
	return s.storage.PresignDownload(ctx, obj.Key)
}

// List returns uploaded objects for the admin library.
func (s *Service) List(ctx context.Context, page, perPage int) (ListPage, error) {
	items, total, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return ListPage{}, fmt.Errorf("list media: %w", err)
	}
	return ListPage{Objects: items, Pagination: shared.NewPagination(page, perPage, total)}, nil
}

// Delete removes the row and the blob. A missing blob is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	obj, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, obj.Key); err != nil {
		s.logger.Warn("blob delete failed", "error", err, "key", obj.Key)
	}
	return nil
}

// PruneUnconfirmed drops pending uploads the client abandoned. Used by
// the background worker.
func (s *Service) PruneUnconfirmed(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.store.StaleUnconfirmed(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("find stale uploads: %w", err)
	}
	pruned := 0
	for _, obj := range stale {
		if err := s.store.Delete(ctx, obj.ID); err != nil {
			s.logger.Warn("stale upload delete failed", "error", err, "id", obj.ID)
			continue
		}
		if err := s.storage.Remove(ctx, obj.Key); err != nil {
			s.logger.Warn("stale blob delete failed", "error", err, "key", obj.Key)
		}
		pruned++
	}
	return pruned, nil
}

func objectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("uploads/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
}
