package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
	seen     string
}

func (v *stubVerifier) Verify(token string) (*auth.Identity, error) {
	v.seen = token
	return v.identity, v.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Authenticate", func() {
	var (
		verifier *stubVerifier
		reached  *auth.Identity
		handler  http.Handler
	)

	BeforeEach(func() {
		verifier = &stubVerifier{}
		reached = nil
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached, _ = auth.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
		handler = middleware.Authenticate(verifier, transport.NewBaseHandler(quietLogger()))(next)
	})

	It("should stop requests without a bearer token", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeMissingToken)))
		Expect(reached).To(BeNil())
	})

	It("should ignore non bearer schemes", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should pass the verifier's error through", func() {
		// Given
		verifier.err = internal.ErrTokenExpired
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()

		// When
		handler.ServeHTTP(w, req)

		// Then
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeTokenExpired)))
	})

	It("should attach the identity for the next handler", func() {
		// Given
		verifier.identity = &auth.Identity{UserID: "alice"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer  abc ")
		w := httptest.NewRecorder()

		// When
		handler.ServeHTTP(w, req)

		// Then
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(verifier.seen).To(Equal("abc"))
		Expect(reached.UserID).To(Equal("alice"))
	})
})

var _ = Describe("RequireRoles", func() {
	var handler http.Handler

	BeforeEach(func() {
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		handler = middleware.RequireRoles(transport.NewBaseHandler(quietLogger()), auth.RoleManager)(ok)
	})

	serveAs := func(identity *auth.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if identity != nil {
			req = req.WithContext(auth.WithIdentity(req.Context(), identity))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	It("should require an identity", func() {
		Expect(serveAs(nil)).To(Equal(http.StatusUnauthorized))
	})

	It("should forbid callers without the role", func() {
		Expect(serveAs(&auth.Identity{UserID: "alice", Roles: []string{"employee"}})).To(Equal(http.StatusForbidden))
	})

	It("should admit callers holding the role in any case", func() {
		Expect(serveAs(&auth.Identity{UserID: "boss", Roles: []string{"MANAGER"}})).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into an opaque 500", func() {
		// Given
		panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("database password is hunter2")
		})
		handler := middleware.RecoveryMiddleware(quietLogger())(panicking)
		w := httptest.NewRecorder()

		// When
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		// Then
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("hunter2"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		logs    *bytes.Buffer
		handler http.Handler
		echoed  string
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		base := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			echoed = string(body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"INVALID_DATE"}}`))
		})
		handler = middleware.LoggingMiddleware(base)(echo)
	})

	It("should leave the request body readable downstream", func() {
		body := `{"start_date":"2024-06-01"}`
		req := httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(echoed).To(Equal(body))
	})

	It("should filter secrets from headers and bodies", func() {
		req := httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(`{"password":"hunter2","type":"Sick"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer very-secret-token")

		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(logs.String()).NotTo(ContainSubstring("hunter2"))
		Expect(logs.String()).NotTo(ContainSubstring("very-secret-token"))
		Expect(logs.String()).To(ContainSubstring("[FILTERED]"))
	})

	It("should log client errors at warn level with the response body", func() {
		req := httptest.NewRequest(http.MethodGet, "/leaves", nil)

		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(logs.String()).To(ContainSubstring("level=WARN"))
		Expect(logs.String()).To(ContainSubstring("INVALID_DATE"))
	})
})

var _ = Describe("RequestID", func() {
	It("should replace an oversized trace id", func() {
		handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.TraceIDHeader)).To(HaveLen(36))
	})
})
