package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/google/uuid"
)

const DefaultMaxBytes int64 = 5 * 1024 * 1024

var DefaultAllowedExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".txt",
	".png", ".jpg", ".jpeg", ".gif", ".bmp",
	".zip", ".rar", ".7z",
}

var contentTypeExtensions = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"text/plain":                   ".txt",
	"image/png":                    ".png",
	"image/jpeg":                   ".jpg",
	"image/gif":                    ".gif",
	"image/bmp":                    ".bmp",
	"application/zip":              ".zip",
	"application/x-zip-compressed": ".zip",
	"application/vnd.rar":          ".rar",
	"application/x-rar-compressed": ".rar",
	"application/x-7z-compressed":  ".7z",
}

// Store persists uploaded files and hands back an opaque reference. The leave
// core only ever sees PublicURL(ref).
type Store interface {
	Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	PublicURL(ref string) string
}

// Rules are the upload checks shared by every Store.
type Rules struct {
	MaxBytes          int64
	AllowedExtensions []string
}

func DefaultRules() Rules {
	return Rules{MaxBytes: DefaultMaxBytes, AllowedExtensions: DefaultAllowedExtensions}
}

// NewRules falls back to the defaults for zero values.
func NewRules(maxBytes int64, extensions []string) Rules {
	rules := DefaultRules()
	if maxBytes > 0 {
		rules.MaxBytes = maxBytes
	}
	if len(extensions) > 0 {
		rules.AllowedExtensions = extensions
	}
	return rules
}

// Upload is a validated file ready to be written.
type Upload struct {
	ObjectName  string
	ContentType string
	Data        []byte
}

// Prepare reads r within the size limit, checks the extension, and picks the
// object name.
func (rules Rules) Prepare(r io.Reader, filename, contentType string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, rules.MaxBytes+1))
	if err != nil {
		return nil, internal.NewInternalError("failed to read upload", err)
	}
	if len(data) == 0 {
		return nil, internal.NewValidationFieldError("file", "file is empty", internal.ErrCodeInvalidAttachment)
	}
	if int64(len(data)) > rules.MaxBytes {
		return nil, internal.NewValidationFieldError("file",
			fmt.Sprintf("file exceeds the %d byte limit", rules.MaxBytes), internal.ErrCodeInvalidAttachment)
	}

	base := safeBaseName(filename)
	ext := strings.ToLower(path.Ext(base))
	if ext == "" {
		ext = extensionFor(contentType)
		base += ext
	}
	if ext != "" && !rules.allows(ext) {
		return nil, internal.NewValidationFieldError("file",
			fmt.Sprintf("file type %s is not allowed", ext), internal.ErrCodeInvalidAttachment)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Upload{
		ObjectName:  strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + base,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

func (rules Rules) allows(ext string) bool {
	for _, allowed := range rules.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return contentTypeExtensions[strings.ToLower(mediaType)]
}

// safeBaseName strips any directory part, whichever separator the client
// used.
func safeBaseName(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return strings.ReplaceAll(base, " ", "_")
}

// ValidReference rejects anything that could escape the store's namespace.
func ValidReference(ref string) bool {
	return ref != "" &&
		!strings.ContainsAny(ref, "/\\") &&
		ref != "." && ref != ".." &&
		!strings.HasPrefix(ref, ".")
}
