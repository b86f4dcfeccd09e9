package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/spf13/afero"
)

// LocalStore keeps attachments on a filesystem served back under
// publicPrefix.
type LocalStore struct {
	fs           afero.Fs
	baseDir      string
	publicPrefix string
	rules        Rules
}

func NewLocalStore(fsys afero.Fs, baseDir, publicPrefix string, rules Rules) (*LocalStore, error) {
	if err := fsys.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory %s: %w", baseDir, err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}

	return &LocalStore{
		fs:           fsys,
		baseDir:      baseDir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		rules:        rules,
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	upload, err := s.rules.Prepare(r, filename, contentType)
	if err != nil {
		return "", err
	}

	if err := afero.WriteFile(s.fs, filepath.Join(s.baseDir, upload.ObjectName), upload.Data, 0o644); err != nil {
		return "", internal.NewStorageError("failed to write attachment", err)
	}
	return upload.ObjectName, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !ValidReference(ref) {
		return nil, internal.ErrAttachmentNotFound
	}

	f, err := s.fs.Open(filepath.Join(s.baseDir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, internal.ErrAttachmentNotFound
		}
		return nil, internal.NewStorageError("failed to open attachment", err)
	}
	return f, nil
}

func (s *LocalStore) PublicURL(ref string) string {
	return s.publicPrefix + "/" + url.PathEscape(ref)
}
