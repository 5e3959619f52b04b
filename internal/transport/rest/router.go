package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fault-tracker/internal/auth"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/frahmantamala/fault-tracker/internal/machine"
	"github.com/frahmantamala/fault-tracker/internal/section"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	"github.com/frahmantamala/fault-tracker/internal/transport/middleware"
	"github.com/frahmantamala/fault-tracker/internal/transport/swagger"
	"github.com/frahmantamala/fault-tracker/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"
)

// Handlers groups everything the router mounts. Nil entries are skipped.
type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	Users    *user.Handler
	Sections *section.Handler
	Machines *machine.Handler
	Faults   *fault.Handler
	Summary  *summary.Handler
	Metrics  http.Handler
}

type Options struct {
	AllowedOrigins string
	MetricsPath    string
	LoginRPS       float64
	LoginBurst     int
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	if h.Metrics != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, h.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			if opts.LoginRPS > 0 {
				ar.Use(middleware.RateLimit(rate.Limit(opts.LoginRPS), opts.LoginBurst))
			}
			ar.Post("/login", h.Auth.Login)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Users != nil {
				registerUserRoutes(pr, h.Users)
			}
			if h.Sections != nil {
				registerSectionRoutes(pr, h.Sections, h.Auth)
			}
			if h.Machines != nil {
				registerMachineRoutes(pr, h.Machines, h.Auth)
			}
			if h.Faults != nil {
				registerFaultRoutes(pr, h.Faults)
			}
			if h.Summary != nil {
				pr.Get("/summary", h.Summary.GetSummary)
				pr.Get("/summary/export", h.Summary.ExportSummary)
			}
		})
	})
}

func registerUserRoutes(r chi.Router, h *user.Handler) {
	r.Get("/users/me", h.GetCurrentUser)
	r.Get("/users/exists/username", h.UsernameExists)
	r.Get("/users/exists/employee-code", h.EmployeeCodeExists)
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Patch("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
	r.Put("/users/{id}/password", h.ChangePassword)
}

func registerSectionRoutes(r chi.Router, h *section.Handler, a *auth.Handler) {
	r.Get("/sections", h.ListSections)
	r.Get("/sections/{id}", h.GetSection)
	r.Group(func(cr chi.Router) {
		cr.Use(a.RequireRole(actor.RoleChief))
		cr.Post("/sections", h.CreateSection)
		cr.Put("/sections/{id}", h.UpdateSection)
		cr.Delete("/sections/{id}", h.DeleteSection)
	})
}

func registerMachineRoutes(r chi.Router, h *machine.Handler, a *auth.Handler) {
	r.Get("/machines", h.ListMachines)
	r.Get("/machines/{id}", h.GetMachine)
	r.Group(func(cr chi.Router) {
		cr.Use(a.RequireRole(actor.RoleChief))
		cr.Post("/machines", h.CreateMachine)
		cr.Put("/machines/{id}", h.UpdateMachine)
		cr.Delete("/machines/{id}", h.DeleteMachine)
	})
}

func registerFaultRoutes(r chi.Router, h *fault.Handler) {
	r.Get("/faults", h.ListFaults)
	r.Post("/faults", h.CreateFault)
	r.Get("/faults/export", h.ExportFaults)
	r.Get("/faults/{id}", h.GetFault)
	r.Patch("/faults/{id}", h.TransitionFault)
	r.Delete("/faults/{id}", h.DeleteFault)
	r.Get("/faults/{id}/export", h.ExportFault)
}
