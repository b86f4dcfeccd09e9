package notification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SendGridMailer", func() {
	var (
		server   *httptest.Server
		status   int
		received map[string]interface{}
		mailer   *SendGridMailer
	)

	BeforeEach(func() {
		status = http.StatusAccepted
		received = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &received)).To(Succeed())
			w.WriteHeader(status)
		}))

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mailer = NewSendGridMailer("test-key", "hr@example.com", "HR", slogger)
		mailer.client.Request.BaseURL = server.URL + "/v3/mail/send"
	})

	AfterEach(func() {
		server.Close()
	})

	It("should post the message to the mail send endpoint", func() {
		// When
		err := mailer.Send(context.Background(), Email{
			ToAddress: "alice@example.com",
			Subject:   "Leave Request Approved - Vacation",
			PlainText: "approved",
			HTML:      "<p>approved</p>",
		})

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(HaveKeyWithValue("subject", "Leave Request Approved - Vacation"))
		Expect(received["from"]).To(HaveKeyWithValue("email", "hr@example.com"))
	})

	It("should fail on a non-2xx answer", func() {
		// Given
		status = http.StatusUnauthorized

		// When
		err := mailer.Send(context.Background(), Email{ToAddress: "alice@example.com", Subject: "s", PlainText: "p"})

		// Then
		Expect(err).To(MatchError(ContainSubstring("status 401")))
	})
})
