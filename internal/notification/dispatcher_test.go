package notification_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/separation-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dispatcher", func() {
	var slogger *slog.Logger

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("processes every queued job across the pool", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 3, QueueSize: 20}, slogger)
		var processed int64
		d.Start(func(_ context.Context, _ notification.Job) {
			atomic.AddInt64(&processed, 1)
		})
		defer d.Shutdown()

		for i := int64(1); i <= 10; i++ {
			Expect(d.Enqueue(i)).To(Succeed())
		}
		Eventually(func() int64 { return atomic.LoadInt64(&processed) }, time.Second).Should(Equal(int64(10)))
	})

	It("rejects jobs once the queue is full", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 1, QueueSize: 1}, slogger)
		Expect(d.Enqueue(1)).To(Succeed())
		Expect(d.Enqueue(2)).To(MatchError(notification.ErrQueueFull))
	})
})

var _ = Describe("WebhookSender", func() {
	var slogger *slog.Logger

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("posts the notification as JSON", func() {
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		sender := notification.NewWebhookSender(server.URL, "hr@example.com", time.Second, slogger)
		err := sender.Send(context.Background(), &notification.Notification{ID: 5, RecipientEmail: "a@example.com", Subject: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(got["to"]).To(Equal("a@example.com"))
		Expect(got["from"]).To(Equal("hr@example.com"))
	})

	It("treats non-2xx responses as failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sender := notification.NewWebhookSender(server.URL, "", time.Second, slogger)
		err := sender.Send(context.Background(), &notification.Notification{ID: 5})
		Expect(err).To(MatchError(ContainSubstring("502")))
	})
})
