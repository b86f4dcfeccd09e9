package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/frahmantamala/leave-management/internal"
	"google.golang.org/api/option"
)

// GCSStore keeps attachments as objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	rules  Rules
}

// NewGCSStore uses credentialsJSON when given, application default
// credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string, rules Rules) (*GCSStore, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket, rules: rules}, nil
}

func (s *GCSStore) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	upload, err := s.rules.Prepare(r, filename, contentType)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(upload.ObjectName).NewWriter(ctx)
	w.ContentType = upload.ContentType

	if _, err := io.Copy(w, upload.Reader()); err != nil {
		_ = w.Close()
		return "", internal.NewStorageError("failed to upload attachment", err)
	}
	if err := w.Close(); err != nil {
		return "", internal.NewStorageError("failed to finalize attachment upload", err)
	}
	return upload.ObjectName, nil
}

func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !ValidReference(ref) {
		return nil, internal.ErrAttachmentNotFound
	}

	reader, err := s.client.Bucket(s.bucket).Object(ref).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, internal.ErrAttachmentNotFound
		}
		return nil, internal.NewStorageError("failed to read attachment", err)
	}
	return reader, nil
}

func (s *GCSStore) PublicURL(ref string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, url.PathEscape(ref))
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
