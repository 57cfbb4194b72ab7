package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jtoledo/betriebsportal/internal"
)

// ResourceAuthorizer answers fine-grained resource/action questions; the
// employee directory implements it.
type ResourceAuthorizer interface {
	HasPermission(employeeID, resource, action string) bool
}

// Authorization builds per-route permission middleware on top of the
// evaluator. Coarse authentication happens earlier in the chain; this layer
// decides whether the authenticated employee may perform the action.
type Authorization struct {
	authorizer ResourceAuthorizer
	logger     *slog.Logger
}

func NewAuthorization(authorizer ResourceAuthorizer, logger *slog.Logger) *Authorization {
	return &Authorization{
		authorizer: authorizer,
		logger:     logger,
	}
}

// Require gates a route on resource/action permission.
func (a *Authorization) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok || user == nil {
				a.logger.Warn("authorization check failed: user not found in context")
				writeDenied(w, http.StatusUnauthorized, "Nicht angemeldet")
				return
			}

			if !a.authorizer.HasPermission(user.EmployeeID, resource, action) {
				a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"employee_id", user.EmployeeID,
					"resource", resource,
					"action", action)
				writeDenied(w, http.StatusForbidden, "Keine Berechtigung für diese Aktion")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
