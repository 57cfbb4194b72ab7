package auth

import (
	"log/slog"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/employee"
)

// DirectoryAPI is the slice of the employee directory the auth service needs.
type DirectoryAPI interface {
	VerifyPassword(employeeID, password string) (employee.Employee, error)
	Snapshot(employeeID string) internal.PermissionSnapshot
	HasPermission(employeeID, resource, action string) bool
}

// Service implements the session state machine: Anonymous -> Authenticated on
// login, sliding refresh while active, back to Anonymous on logout or idle
// expiry.
type Service struct {
	directory DirectoryAPI
	sessions  *Store
	logger    *slog.Logger
}

func NewService(directory DirectoryAPI, sessions *Store, logger *slog.Logger) *Service {
	return &Service{
		directory: directory,
		sessions:  sessions,
		logger:    logger,
	}
}

func (s *Service) SessionIdleTimeout() int {
	return int(s.sessions.IdleTimeout().Seconds())
}

// Login authenticates the employee and opens a session carrying a freshly
// computed permission snapshot.
func (s *Service) Login(dto LoginDTO) (*internal.SessionUser, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	emp, err := s.directory.VerifyPassword(dto.EmployeeID, dto.Password)
	if err != nil {
		s.logger.Warn("login failed", "employee_id", dto.EmployeeID, "error", err)
		return nil, "", err
	}

	user := internal.SessionUser{
		EmployeeID:  emp.ID,
		Name:        emp.Name,
		Permissions: s.directory.Snapshot(emp.ID),
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		return nil, "", internal.NewInternalError("Session konnte nicht erstellt werden", err)
	}

	s.logger.Info("login successful", "employee_id", emp.ID, "name", emp.Name)
	return &user, token, nil
}

// SessionUser resolves a token, recomputes the permission snapshot from the
// directory, and stores it back. Permissions are re-derived on every check so
// table changes apply without re-login.
func (s *Service) SessionUser(token string) (*internal.SessionUser, error) {
	user, ok := s.sessions.Get(token)
	if !ok {
		return nil, internal.ErrSessionInvalid
	}

	user.Permissions = s.directory.Snapshot(user.EmployeeID)
	s.sessions.Update(token, *user)
	return user, nil
}

func (s *Service) Logout(token string) {
	s.sessions.Destroy(token)
}

// HasPermission re-checks fine-grained authorization against the static
// tables; the session snapshot is for the client, not the server.
func (s *Service) HasPermission(employeeID, resource, action string) bool {
	return s.directory.HasPermission(employeeID, resource, action)
}
