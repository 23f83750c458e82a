// Package storage provides the MinIO-backed image store used for report
// item photos. Objects are addressed by a stable public_id (the object key);
// the returned URL is what clients embed directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ghuser/foundly/pkg/config"
	"github.com/ghuser/foundly/pkg/logger"
)

// ErrTooManyFiles indicates an UploadMany call exceeded the allowed file count.
var ErrTooManyFiles = errors.New("too many files")

// ImageHandle identifies an uploaded image in the object store.
type ImageHandle struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// File is a single upload payload. Name is only used to preserve the extension.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ImageStore uploads and deletes report images in a MinIO bucket.
type ImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       logger.Logger
}

// New connects to MinIO and ensures the configured bucket exists.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*ImageStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioRootUser, cfg.MinioRootPassword, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: new minio client: %w", err)
	}

	s := &ImageStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(cfg.MinioPublicURL, "/"),
		log:       log,
	}

	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(bootCtx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(bootCtx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket %s: %w", s.bucket, err)
		}
		log.Info("storage bucket created", "bucket", s.bucket)
	}

	return s, nil
}

// Upload stores a single file under folder and returns its handle.
// The object key is "folder/<uuid><ext>" so uploads never collide.
func (s *ImageStore) Upload(ctx context.Context, f File, folder string) (ImageHandle, error) {
	key := objectKey(folder, f.Name)
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, f.Reader, f.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ImageHandle{}, fmt.Errorf("storage: upload %s: %w", key, err)
	}

	return ImageHandle{PublicID: key, URL: s.objectURL(key)}, nil
}

// UploadMany uploads up to maxCount files under folder.
// Fails with ErrTooManyFiles before any upload when the count is exceeded.
// On a mid-batch failure, already-uploaded objects are removed best-effort
// so a failed batch leaves no stray objects behind.
func (s *ImageStore) UploadMany(ctx context.Context, files []File, folder string, maxCount int) ([]ImageHandle, error) {
	if len(files) > maxCount {
		return nil, fmt.Errorf("%w: got %d files, maximum is %d", ErrTooManyFiles, len(files), maxCount)
	}

	handles := make([]ImageHandle, 0, len(files))
	for _, f := range files {
		h, err := s.Upload(ctx, f, folder)
		if err != nil {
			s.DeleteMany(context.WithoutCancel(ctx), publicIDs(handles))
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Delete removes a single object by its public_id.
func (s *ImageStore) Delete(ctx context.Context, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: delete %s: %w", publicID, err)
	}
	return nil
}

// DeleteMany removes objects best-effort: per-object failures are logged and
// skipped, never returned. Callers use this in cleanup paths where the
// authoritative state change has already committed.
func (s *ImageStore) DeleteMany(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			s.log.WarnContext(ctx, "storage: image delete failed", "public_id", id, "error", err)
		}
	}
}

// Ping checks object-store reachability via a bucket metadata call.
func (s *ImageStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}
	return nil
}

func (s *ImageStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}

func objectKey(folder, name string) string {
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), strings.ToLower(path.Ext(name)))
}

func publicIDs(handles []ImageHandle) []string {
	ids := make([]string, len(handles))
	for i, h := range handles {
		ids[i] = h.PublicID
	}
	return ids
}
