package attachment

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/go-chi/chi"
)

// multipartOverhead leaves room for the form boundary and headers on top of
// the file itself.
const multipartOverhead = 1 << 20

type UploadResponse struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
}

type Handler struct {
	*transport.BaseHandler
	Store Store
	Rules Rules
}

func NewHandler(base *transport.BaseHandler, store Store, rules Rules) *Handler {
	return &Handler{BaseHandler: base, Store: store, Rules: rules}
}

// Upload accepts a multipart form with a single "file" part.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Rules.MaxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Warn("Upload: missing or unreadable file part", "error", err)
		h.HandleServiceError(w, internal.NewValidationFieldError("file", "a multipart file field named file is required", internal.ErrCodeInvalidAttachment))
		return
	}
	defer file.Close()

	ref, err := h.Store.Save(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("attachment stored", "reference", ref, "size", header.Size)
	h.WriteJSON(w, http.StatusCreated, UploadResponse{Reference: ref, URL: h.Store.PublicURL(ref)})
}

// Download streams a stored attachment back by reference.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	rc, err := h.Store.Open(r.Context(), ref)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("Download: stream interrupted", "error", err, "reference", ref)
	}
}
