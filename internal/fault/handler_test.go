package fault_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fault Handler", func() {
	var (
		router chi.Router
		as     actor.Actor
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := fault.NewService(NewMockRepository(), plantDirectory().References(), &RecordingPublisher{}, logger)
		handler := fault.NewHandler(service)

		as = supervisor
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if as.Valid() {
					r = r.WithContext(errors.ContextWithActor(r.Context(), as))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Post("/faults", handler.CreateFault)
		router.Get("/faults", handler.ListFaults)
		router.Get("/faults/{id}", handler.GetFault)
		router.Patch("/faults/{id}", handler.TransitionFault)
		router.Delete("/faults/{id}", handler.DeleteFault)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(context.Background())
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

	It("creates and lists faults", func() {
		w := do(http.MethodPost, "/faults", `{"description":"ruido anómalo","section_id":1,"machine_id":10}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created fault.Fault
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.State).To(Equal(fault.StatePending))

		w = do(http.MethodGet, "/faults?state=pending", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list fault.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Total).To(Equal(1))
	})

	It("maps workflow errors to distinct codes", func() {
		do(http.MethodPost, "/faults", `{"description":"ruido anómalo","section_id":1,"machine_id":10}`)

		as = tech7
		w := do(http.MethodPatch, "/faults/1", `{"state":"RESOLVED"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeInvalidStateTransition)))

		as = supervisor3
		w = do(http.MethodPatch, "/faults/1", `{"description":"x"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodePermissionDenied)))
	})

	It("reports referential violations as 422", func() {
		w := do(http.MethodPost, "/faults", `{"description":"x","section_id":1,"machine_id":20}`)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeReferentialViolation)))
	})

	It("rejects requests without an actor", func() {
		as = actor.Actor{}
		w := do(http.MethodGet, "/faults", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeInvalidCredential)))
	})

	It("rejects bad ids and filters", func() {
		Expect(do(http.MethodGet, "/faults/abc", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/faults?month=13", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for unknown faults", func() {
		w := do(http.MethodGet, "/faults/99", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
