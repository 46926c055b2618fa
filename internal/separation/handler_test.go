package separation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/separation"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Separation Handler", func() {
	var (
		f      *fixture
		router chi.Router
	)

	BeforeEach(func() {
		f = newFixture()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := separation.NewHandler(transport.NewBaseHandler(slogger), f.service, 10, 100)

		router = chi.NewRouter()
		router.Post("/separations", handler.CreateCase)
		router.Get("/separations", handler.ListCases)
		router.Get("/separations/{id}", handler.GetCase)
		router.Post("/separations/{id}/submit", handler.SubmitChecklist)
		router.Patch("/checklist-items/{id}", handler.ToggleChecklistItem)
		router.Post("/signoffs/{id}/resolve", handler.ResolveSignOff)
	})

	do := func(method, path, body string, actor *auth.Actor) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		req = req.WithContext(auth.ContextWithActor(context.Background(), actor))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates a case for the caller", func() {
		resignation, lastDay := caseDates()
		body := fmt.Sprintf(`{"resignation_date":%q,"last_working_day":%q,"reason":"relocating"}`,
			resignation.Format("2006-01-02"), lastDay.Format("2006-01-02"))

		w := do(http.MethodPost, "/separations", body, f.employee)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var c separation.Case
		Expect(json.NewDecoder(w.Body).Decode(&c)).To(Succeed())
		Expect(c.Status).To(Equal(separation.StatusChecklistPending))
		Expect(c.ChecklistItems).To(HaveLen(3))
	})

	It("returns the outstanding items with a 400 on an early submit", func() {
		c := f.openCase(f.employee, nil)

		w := do(http.MethodPost, fmt.Sprintf("/separations/%d/submit", c.ID), "", f.employee)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Code).To(Equal(internal.ErrCodeMandatoryItemsIncomplete))
		Expect(resp.Error).To(ContainSubstring("Return laptop"))
	})

	It("maps permissions, missing rows and closed cases to 403, 404 and 409", func() {
		c := f.openCase(f.employee, nil)

		Expect(do(http.MethodGet, fmt.Sprintf("/separations/%d", c.ID), "", f.peer).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/separations/9999", "", f.hr).Code).To(Equal(http.StatusNotFound))

		s := f.assign(c, f.fin.ID, f.finance)
		f.resolve(s, f.finance, separation.SignOffApproved)
		w := do(http.MethodPost, fmt.Sprintf("/signoffs/%d/resolve", s.ID), `{"decision":"rejected"}`, f.finance)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("rejects invalid decisions and filters", func() {
		Expect(do(http.MethodPost, "/signoffs/1/resolve", `{"decision":"maybe"}`, f.finance).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/separations?status=archived", "", f.hr).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPatch, "/checklist-items/1", `{"is_completed":"yes"}`, f.employee).Code).To(Equal(http.StatusBadRequest))
	})

	It("lists cases with progress for HR", func() {
		f.openCase(f.employee, nil)

		w := do(http.MethodGet, "/separations?per_page=5", "", f.hr)
		Expect(w.Code).To(Equal(http.StatusOK))

		var page struct {
			Items []separation.Case `json:"items"`
			Total int64             `json:"total"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Total).To(Equal(int64(1)))
		Expect(page.Items[0].Progress).To(Equal(0))
	})
})
