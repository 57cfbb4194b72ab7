package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/transport"
	"github.com/jtoledo/betriebsportal/pkg/logger"
)

// SessionCookieName carries the opaque session token. The original frontend
// also sends the token as a Bearer header, so the middleware accepts both.
const SessionCookieName = "bp_session"

type ServiceAPI interface {
	Login(dto LoginDTO) (*internal.SessionUser, string, error)
	SessionUser(token string) (*internal.SessionUser, error)
	Logout(token string)
	SessionIdleTimeout() int
	HasPermission(employeeID, resource, action string) bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Service.Login(dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.Service.SessionIdleTimeout(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		EmployeeID:  user.EmployeeID,
		Name:        user.Name,
		Permissions: user.Permissions,
	})
}

// Session reports the current session state and refreshes the permission
// snapshot on every check.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(r)
	if token == "" {
		h.WriteJSON(w, http.StatusUnauthorized, SessionResponse{
			Authenticated: false,
			Message:       "Session ungültig",
		})
		return
	}

	user, err := h.Service.SessionUser(token)
	if err != nil {
		h.WriteJSON(w, http.StatusUnauthorized, SessionResponse{
			Authenticated: false,
			Message:       "Session ungültig",
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          user,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.sessionToken(r); token != "" {
		h.Service.Logout(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// AuthMiddleware resolves the session and puts the authenticated user into
// the request context. Protected handlers re-check fine-grained permissions
// separately; authentication alone authorizes nothing.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.sessionToken(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
			return
		}

		user, err := h.Service.SessionUser(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
			return
		}

		ctx := internal.ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "employee_id", user.EmployeeID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return h.ExtractTokenFromHeader(r)
}
