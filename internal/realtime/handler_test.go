package realtime_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/events"
	"github.com/frahmantamala/separation-management/internal/realtime"
	"github.com/frahmantamala/separation-management/internal/separation"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubCases struct {
	cases map[int64]*separation.Case
}

func (s *stubCases) GetCase(_ context.Context, actor *auth.Actor, id int64) (*separation.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, internal.ErrCaseNotFound
	}
	if err := auth.Authorize(actor, auth.ActionCaseRead, c.Resource(c.SignOffs)); err != nil {
		return nil, err
	}
	return c, nil
}

var _ = Describe("Case stream", func() {
	var (
		hub    *realtime.Hub
		bus    *events.EventBus
		server *httptest.Server
		actor  *auth.Actor

		employee = &auth.Actor{ID: 1, Role: auth.RoleEmployee}
		stranger = &auth.Actor{ID: 3, Role: auth.RoleEmployee}
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		hub = realtime.NewHub(slogger)
		bus = events.NewEventBus(slogger)
		hub.RegisterEventHandlers(bus)

		cases := &stubCases{cases: map[int64]*separation.Case{
			1: {ID: 1, CaseNumber: "SEP-2026-0001", EmployeeID: employee.ID, Status: separation.StatusChecklistPending},
			2: {ID: 2, CaseNumber: "SEP-2026-0002", EmployeeID: 9, Status: separation.StatusChecklistPending},
		}}
		handler := realtime.NewHandler(transport.NewBaseHandler(slogger), cases, hub, []string{"*"})

		actor = employee
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.ContextWithActor(req.Context(), actor)))
			})
		})
		r.Get("/separations/{id}/stream", handler.Stream)
		server = httptest.NewServer(r)
	})

	AfterEach(func() {
		server.Close()
	})

	dial := func(caseID string) (*websocket.Conn, *http.Response, error) {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/separations/" + caseID + "/stream"
		return websocket.DefaultDialer.Dial(url, nil)
	}

	readMessage := func(conn *websocket.Conn) realtime.Message {
		var msg realtime.Message
		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		Expect(conn.ReadJSON(&msg)).To(Succeed())
		return msg
	}

	It("greets the viewer and relays events for the watched case only", func() {
		conn, _, err := dial("1")
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		hello := readMessage(conn)
		Expect(hello.Type).To(Equal("connected"))
		Expect(hello.CaseID).To(Equal(int64(1)))
		Expect(hub.Subscribers(1)).To(Equal(1))

		ctx := context.Background()
		Expect(bus.PublishSync(ctx, events.NewCaseEvent(events.EventTypeCaseCreated, 2, "SEP-2026-0002", 9, "", "checklist_pending", 9))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewSignOffEvent(events.EventTypeSignOffAssigned, 1, "SEP-2026-0001", 1, 4, 2, 5, "pending", 7))).To(Succeed())

		msg := readMessage(conn)
		Expect(msg.Type).To(Equal(events.EventTypeSignOffAssigned))
		Expect(msg.CaseID).To(Equal(int64(1)))
		Expect(msg.EventID).NotTo(BeEmpty())
	})

	It("drops the subscription when the viewer disconnects", func() {
		conn, _, err := dial("1")
		Expect(err).NotTo(HaveOccurred())
		readMessage(conn)
		Expect(hub.Subscribers(1)).To(Equal(1))

		Expect(conn.Close()).To(Succeed())
		Eventually(func() int { return hub.Subscribers(1) }, 2*time.Second).Should(BeZero())
	})

	It("refuses viewers who cannot read the case", func() {
		actor = stranger
		_, resp, err := dial("1")
		Expect(err).To(HaveOccurred())
		Expect(resp).NotTo(BeNil())
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("returns not found for unknown cases", func() {
		_, resp, err := dial("99")
		Expect(err).To(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
