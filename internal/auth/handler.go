package auth

import (
	"context"
	"net/http"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
	"github.com/frahmantamala/fault-tracker/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error)
	ClaimReader
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "error", err, "username", dto.Username)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware reads the bearer token once per request and stores the
// resulting actor in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, errors.ErrInvalidCredential.WithMessage("missing authorization token"))
			return
		}

		a, err := h.Service.ReadClaims(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		ctx := errors.ContextWithActor(r.Context(), a)
		ctx = logger.With(ctx, "user_id", a.UserID, "role", a.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets the request through only for the given roles.
func (h *Handler) RequireRole(roles ...actor.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := errors.ActorFromContext(r.Context())
			if !ok {
				h.HandleServiceError(w, errors.ErrInvalidCredential)
				return
			}
			for _, role := range roles {
				if a.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.From(r.Context()).Warn("access denied: role not allowed", "path", r.URL.Path, "allowed", roles)
			h.HandleServiceError(w, errors.ErrPermissionDenied)
		})
	}
}
