package attachment_test

import (
	"context"
	"os"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/attachment"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GCSStore", func() {
	var (
		store    *attachment.GCSStore
		previous string
	)

	BeforeEach(func() {
		// the emulator host switches the client to unauthenticated mode, so no
		// credentials are needed for the offline paths below
		previous = os.Getenv("STORAGE_EMULATOR_HOST")
		os.Setenv("STORAGE_EMULATOR_HOST", "localhost:1")

		var err error
		store, err = attachment.NewGCSStore(context.Background(), "leave-attachments", "", attachment.DefaultRules())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
		os.Setenv("STORAGE_EMULATOR_HOST", previous)
	})

	It("should build a public object url", func() {
		Expect(store.PublicURL("abc_sick note.pdf")).To(Equal("https://storage.googleapis.com/leave-attachments/abc_sick%20note.pdf"))
	})

	It("should refuse unsafe references before calling the bucket", func() {
		_, err := store.Open(context.Background(), "../other-bucket/secret")

		Expect(err).To(MatchError(internal.ErrAttachmentNotFound))
	})

	It("should validate uploads before calling the bucket", func() {
		_, err := store.Save(context.Background(), strings.NewReader("x"), "tool.exe", "")

		Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
	})
})
