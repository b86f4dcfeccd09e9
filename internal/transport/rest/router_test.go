package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/api"
	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/attachment"
	"github.com/frahmantamala/leave-management/internal/auth"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leave"
	leavePostgres "github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const routerTestSecret = "router-test-secret-0123456789abcdef"

var _ = Describe("Router", func() {
	var (
		db          *gorm.DB
		router      *chi.Mux
		tokens      *auth.JWTTokenManager
		healthError error
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&leaveDatamodel.LeaveRequest{})).To(Succeed())

		repo, err := leavePostgres.NewLeaveRepository(db, slogger)
		Expect(err).NotTo(HaveOccurred())
		service := leave.NewService(repo, nil, slogger)

		rules := attachment.DefaultRules()
		store, err := attachment.NewLocalStore(afero.NewMemMapFs(), "/uploads", "/uploads", rules)
		Expect(err).NotTo(HaveOccurred())

		base := transport.NewBaseHandler(slogger)
		tokens = auth.NewJWTTokenManager(routerTestSecret, "leave-management", time.Hour)
		healthError = nil

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.RouterDeps{
			Server:      internal.ServerConfig{AllowedOrigins: "*"},
			Verifier:    tokens,
			ManagerRole: auth.RoleManager,
			HealthChecks: map[string]rest.Checker{
				"database": func(ctx context.Context) error { return healthError },
			},
			LeaveHandler:      leave.NewHandler(base, service, auth.RoleManager),
			AttachmentHandler: attachment.NewHandler(base, store, rules),
			Logger:            slogger,
		})
	})

	AfterEach(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	bearer := func(userID string, roles ...string) string {
		token, err := tokens.GenerateAccessToken(userID, "", roles)
		Expect(err).NotTo(HaveOccurred())
		return "Bearer " + token
	}

	call := func(method, path, authorization, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body.Error.Code
	}

	Describe("probes", func() {
		It("should answer ping without a token", func() {
			w := call(http.MethodGet, "/api/v1/ping", "", "")

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should report healthy dependencies", func() {
			w := call(http.MethodGet, "/api/v1/health", "", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp rest.HealthResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthHealthy))
			Expect(resp.Components).To(HaveKey("database"))
		})

		It("should answer 503 when a dependency fails", func() {
			// Given
			healthError = errors.New("connection refused")

			// When
			w := call(http.MethodGet, "/api/v1/health", "", "")

			// Then
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			var resp rest.HealthResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Components["database"].Message).To(Equal("connection refused"))
		})
	})

	Describe("request tracing", func() {
		It("should echo the caller's trace id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
			req.Header.Set(middleware.TraceIDHeader, "trace-123")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Header().Get(middleware.TraceIDHeader)).To(Equal("trace-123"))
		})

		It("should mint a trace id when none is sent", func() {
			w := call(http.MethodGet, "/api/v1/ping", "", "")

			Expect(w.Header().Get(middleware.TraceIDHeader)).NotTo(BeEmpty())
		})
	})

	Describe("authentication", func() {
		It("should reject a request without a token", func() {
			w := call(http.MethodGet, "/api/v1/leaves/mine", "", "")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeMissingToken)))
		})

		It("should reject a forged token", func() {
			w := call(http.MethodGet, "/api/v1/leaves/mine", "Bearer not.a.token", "")

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInvalidToken)))
		})

		It("should keep manager routes from employees", func() {
			w := call(http.MethodGet, "/api/v1/leaves/pending", bearer("alice", "employee"), "")

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(w)).To(Equal(string(internal.ErrCodeUnauthorizedAccess)))
		})
	})

	Describe("leave lifecycle", func() {
		It("should let an employee file and a manager decide exactly once", func() {
			employee := bearer("alice", "employee")
			manager := bearer("boss", "manager")

			// Given
			created := call(http.MethodPost, "/api/v1/leaves", employee,
				`{"start_date":"2024-06-01","end_date":"2024-06-05","type":"Vacation","reason":"Trip"}`)
			Expect(created.Code).To(Equal(http.StatusCreated))
			var req leave.LeaveRequest
			Expect(json.NewDecoder(created.Body).Decode(&req)).To(Succeed())
			Expect(req.UserID).To(Equal("alice"))

			pending := call(http.MethodGet, "/api/v1/leaves/pending", manager, "")
			Expect(pending.Code).To(Equal(http.StatusOK))
			var list leave.LeaveListResponse
			Expect(json.NewDecoder(pending.Body).Decode(&list)).To(Succeed())
			Expect(list.Count).To(Equal(1))

			// When
			approveURL := "/api/v1/leaves/" + strconv.FormatInt(req.ID, 10) + "/approve"
			first := call(http.MethodPatch, approveURL, manager, "")
			second := call(http.MethodPatch, "/api/v1/leaves/"+strconv.FormatInt(req.ID, 10)+"/reject", manager, `{"reason":"late"}`)

			// Then
			Expect(first.Code).To(Equal(http.StatusOK))
			Expect(second.Code).To(Equal(http.StatusConflict))
			Expect(errorCode(second)).To(Equal(string(internal.ErrCodeLeaveAlreadyDecided)))

			mine := call(http.MethodGet, "/api/v1/leaves/mine", employee, "")
			Expect(mine.Code).To(Equal(http.StatusOK))
			Expect(json.NewDecoder(mine.Body).Decode(&list)).To(Succeed())
			Expect(list.Leaves).To(HaveLen(1))
			Expect(list.Leaves[0].Status).To(Equal(leave.StatusApproved))

			dashboard := call(http.MethodGet, "/api/v1/leaves/summary", manager, "")
			Expect(dashboard.Code).To(Equal(http.StatusOK))
			var summary leave.LeaveSummary
			Expect(json.NewDecoder(dashboard.Body).Decode(&summary)).To(Succeed())
			Expect(summary.Total).To(Equal(1))
			Expect(summary.Approved).To(Equal(1))
			Expect(summary.Recent).To(BeEmpty())
		})

		It("should let only the owner or a manager read a request", func() {
			// Given
			created := call(http.MethodPost, "/api/v1/leaves", bearer("alice"),
				`{"start_date":"2024-06-01","end_date":"2024-06-01","type":"Sick"}`)
			Expect(created.Code).To(Equal(http.StatusCreated))
			var req leave.LeaveRequest
			Expect(json.NewDecoder(created.Body).Decode(&req)).To(Succeed())
			path := "/api/v1/leaves/" + strconv.FormatInt(req.ID, 10)

			// Then
			Expect(call(http.MethodGet, path, bearer("alice"), "").Code).To(Equal(http.StatusOK))
			Expect(call(http.MethodGet, path, bearer("mallory"), "").Code).To(Equal(http.StatusForbidden))
			Expect(call(http.MethodGet, path, bearer("boss", "manager"), "").Code).To(Equal(http.StatusOK))
		})

		It("should never let a body pick the owner", func() {
			w := call(http.MethodPost, "/api/v1/leaves", bearer("alice"),
				`{"user_id":"bob","start_date":"2024-06-01","end_date":"2024-06-01","type":"Sick"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("API documentation", func() {
		It("should serve the embedded OpenAPI document", func() {
			w := call(http.MethodGet, "/openapi.yml", "", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Bytes()).To(Equal(api.OpenAPISpec))
		})

		It("should describe every leave route in a valid document", func() {
			// Given
			doc, err := openapi3.NewLoader().LoadFromData(api.OpenAPISpec)
			Expect(err).NotTo(HaveOccurred())

			// When
			err = doc.Validate(context.Background())

			// Then
			Expect(err).NotTo(HaveOccurred())
			for _, path := range []string{
				"/health", "/ping", "/attachments",
				"/leaves", "/leaves/mine", "/leaves/summary", "/leaves/pending", "/leaves/export",
				"/leaves/{id}", "/leaves/{id}/approve", "/leaves/{id}/reject",
			} {
				Expect(doc.Paths.Value(path)).NotTo(BeNil(), path)
			}
		})
	})
})
