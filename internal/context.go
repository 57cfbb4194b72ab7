package internal

import (
	"context"
	"time"
)

// PermissionSnapshot is the precomputed resource -> action -> allowed map
// carried by a session and returned to the client on login.
type PermissionSnapshot map[string]map[string]bool

func (p PermissionSnapshot) Allows(resource, action string) bool {
	actions, ok := p[resource]
	if !ok {
		return false
	}
	return actions[action]
}

// SessionUser is the authenticated employee as seen by request handlers.
type SessionUser struct {
	EmployeeID  string             `json:"employeeId"`
	Name        string             `json:"name"`
	Permissions PermissionSnapshot `json:"permissions"`
}

type ctxKey string

const contextUserKey ctxKey = "sessionUser"

func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(contextUserKey).(*SessionUser)
	return user, ok
}

func ContextWithUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if
// duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
