package auth

import "github.com/jtoledo/betriebsportal/internal"

// LoginDTO is the transport shape used by the HTTP handler to accept login
// requests.
type LoginDTO struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.EmployeeID == "" {
		return ValidationError{Msg: "employeeId is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Success     bool                        `json:"success"`
	EmployeeID  string                      `json:"employeeId"`
	Name        string                      `json:"name"`
	Permissions internal.PermissionSnapshot `json:"permissions"`
}

// SessionResponse is returned by the session check endpoint.
type SessionResponse struct {
	Authenticated bool                  `json:"authenticated"`
	User          *internal.SessionUser `json:"user,omitempty"`
	Message       string                `json:"message,omitempty"`
}
