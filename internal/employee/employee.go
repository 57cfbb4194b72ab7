// Package employee holds the static employee directory and the permission
// evaluator. The directory is loaded once from configuration and immutable at
// runtime; there is no signup flow.
package employee

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/jtoledo/betriebsportal/internal"
)

type Employee struct {
	ID           string
	Name         string
	PasswordHash string
	Roles        []string
}

func (e Employee) hasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Directory is the injected credential store plus the resource/action
// permission tables.
type Directory struct {
	employees   map[string]Employee
	permissions map[string]map[string][]string
}

func NewDirectory(cfg internal.DirectoryConfig) *Directory {
	employees := make(map[string]Employee, len(cfg.Employees))
	for _, e := range cfg.Employees {
		employees[e.ID] = Employee{
			ID:           e.ID,
			Name:         e.Name,
			PasswordHash: e.PasswordHash,
			Roles:        append([]string(nil), e.Roles...),
		}
	}
	return &Directory{
		employees:   employees,
		permissions: cfg.Permissions,
	}
}

func (d *Directory) Lookup(employeeID string) (Employee, bool) {
	e, ok := d.employees[employeeID]
	return e, ok
}

// HasPermission reports whether the employee's role set intersects the
// allow-list for resource/action. Unknown employee, resource or action all
// answer false; this never errors.
func (d *Directory) HasPermission(employeeID, resource, action string) bool {
	emp, ok := d.employees[employeeID]
	if !ok {
		return false
	}

	actions, ok := d.permissions[resource]
	if !ok {
		return false
	}

	for _, allowed := range actions[action] {
		if emp.hasRole(allowed) {
			return true
		}
	}
	return false
}

// Snapshot computes the full resource -> action -> allowed map for one
// employee. Pure over the static tables, so every session refresh derives the
// same result.
func (d *Directory) Snapshot(employeeID string) internal.PermissionSnapshot {
	snapshot := make(internal.PermissionSnapshot, len(d.permissions))
	for resource, actions := range d.permissions {
		resourcePerms := make(map[string]bool, len(actions))
		for action := range actions {
			resourcePerms[action] = d.HasPermission(employeeID, resource, action)
		}
		snapshot[resource] = resourcePerms
	}
	return snapshot
}

// VerifyPassword authenticates an employee against the stored bcrypt hash.
func (d *Directory) VerifyPassword(employeeID, password string) (Employee, error) {
	emp, ok := d.employees[employeeID]
	if !ok {
		return Employee{}, internal.ErrEmployeeNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return Employee{}, internal.ErrWrongPassword
	}
	return emp, nil
}

// HashPassword generates a bcrypt hash for provisioning new directory
// entries.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
