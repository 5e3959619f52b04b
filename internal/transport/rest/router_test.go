package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/auth"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/machine"
	"github.com/frahmantamala/fault-tracker/internal/transport"
	"github.com/frahmantamala/fault-tracker/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type stubAuth struct {
	tokens map[string]actor.Actor
}

func (s stubAuth) Authenticate(_ context.Context, dto auth.LoginDTO) (auth.TokenResponse, error) {
	if dto.Password != "secret1" {
		return auth.TokenResponse{}, errors.ErrInvalidCredential
	}
	return auth.TokenResponse{Token: "tok", UserID: 1, Role: actor.RoleChief}, nil
}

func (s stubAuth) ReadClaims(_ context.Context, token string) (actor.Actor, error) {
	a, ok := s.tokens[token]
	if !ok {
		return actor.Actor{}, errors.ErrInvalidCredential
	}
	return a, nil
}

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		pinger fakePinger
		opts   rest.Options
	)

	build := func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		base := transport.NewBaseHandler(lg)
		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health: rest.NewHealthHandler(pinger),
			Auth: auth.NewHandler(base, stubAuth{tokens: map[string]actor.Actor{
				"tech": {UserID: 7, Role: actor.RoleTechnician},
			}}),
			Machines: machine.NewHandler(base, nil),
			Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "faults_created_total 0")
			}),
		}, opts, lg)
	}

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.RemoteAddr = "10.0.0.1:1234"
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		pinger = fakePinger{}
		opts = rest.Options{AllowedOrigins: "*", MetricsPath: "/metrics"}
	})

	Context("health", func() {
		It("answers ping without touching the store", func() {
			pinger = fakePinger{err: fmt.Errorf("down")}
			build()
			Expect(do(http.MethodGet, "/api/v1/ping", "", "").Code).To(Equal(http.StatusOK))
		})

		It("reports the store state", func() {
			build()
			rec := do(http.MethodGet, "/api/v1/health", "", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp rest.HealthResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Components).To(HaveKey("store"))
		})

		It("returns 503 when the store is unreachable", func() {
			pinger = fakePinger{err: fmt.Errorf("connection refused")}
			build()
			rec := do(http.MethodGet, "/api/v1/health", "", "")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("connection refused"))
		})
	})

	It("serves the OpenAPI document and metrics", func() {
		build()
		Expect(do(http.MethodGet, "/openapi.yml", "", "").Body.String()).To(ContainSubstring("openapi: 3.0.3"))
		Expect(do(http.MethodGet, "/metrics", "", "").Body.String()).To(ContainSubstring("faults_created_total"))
	})

	It("stamps a trace id on every response", func() {
		build()
		rec := do(http.MethodGet, "/api/v1/ping", "", "")
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	Context("authentication", func() {
		It("rejects protected routes without a token", func() {
			build()
			Expect(do(http.MethodGet, "/api/v1/machines", "", "").Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects unknown tokens", func() {
			build()
			Expect(do(http.MethodGet, "/api/v1/machines", "", "forged").Code).To(Equal(http.StatusUnauthorized))
		})

		It("keeps catalog writes for the chief", func() {
			build()
			rec := do(http.MethodPost, "/api/v1/machines", `{"name":"Molino B","section_id":1}`, "tech")
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("issues tokens on login", func() {
			build()
			rec := do(http.MethodPost, "/api/v1/auth/login", `{"username":"chief","password":"secret1"}`, "")
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("throttles repeated logins from one address", func() {
			opts.LoginRPS = 1
			opts.LoginBurst = 2
			build()

			body := `{"username":"chief","password":"wrong12"}`
			Expect(do(http.MethodPost, "/api/v1/auth/login", body, "").Code).To(Equal(http.StatusUnauthorized))
			Expect(do(http.MethodPost, "/api/v1/auth/login", body, "").Code).To(Equal(http.StatusUnauthorized))
			Expect(do(http.MethodPost, "/api/v1/auth/login", body, "").Code).To(Equal(http.StatusTooManyRequests))
		})
	})
})
