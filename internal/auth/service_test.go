package auth

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/employee"
)

// Mock directory for testing.
type mockDirectory struct {
	employees map[string]employee.Employee
	passwords map[string]string
	snapshots map[string]internal.PermissionSnapshot
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		employees: map[string]employee.Employee{
			"MA001": {ID: "MA001", Name: "Max Mustermann", Roles: []string{"user"}},
		},
		passwords: map[string]string{"MA001": "test123"},
		snapshots: map[string]internal.PermissionSnapshot{
			"MA001": {"timeTracking": {"view": true, "edit": true}},
		},
	}
}

func (m *mockDirectory) VerifyPassword(employeeID, password string) (employee.Employee, error) {
	emp, ok := m.employees[employeeID]
	if !ok {
		return employee.Employee{}, internal.ErrEmployeeNotFound
	}
	if m.passwords[employeeID] != password {
		return employee.Employee{}, internal.ErrWrongPassword
	}
	return emp, nil
}

func (m *mockDirectory) Snapshot(employeeID string) internal.PermissionSnapshot {
	return m.snapshots[employeeID]
}

func (m *mockDirectory) HasPermission(employeeID, resource, action string) bool {
	return m.snapshots[employeeID].Allows(resource, action)
}

var _ = Describe("AuthService", func() {
	var (
		directory *mockDirectory
		store     *Store
		service   *Service
		now       time.Time
	)

	BeforeEach(func() {
		directory = newMockDirectory()
		store = NewStore(2 * time.Minute)
		now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(directory, store, logger)
	})

	Describe("Login", func() {
		It("opens a session with a permission snapshot", func() {
			user, token, err := service.Login(LoginDTO{EmployeeID: "MA001", Password: "test123"})
			Expect(err).ToNot(HaveOccurred())
			Expect(token).ToNot(BeEmpty())
			Expect(user.Name).To(Equal("Max Mustermann"))
			Expect(user.Permissions.Allows("timeTracking", "view")).To(BeTrue())
		})

		It("rejects a wrong password", func() {
			_, _, err := service.Login(LoginDTO{EmployeeID: "MA001", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrWrongPassword))
		})

		It("rejects an unknown employee", func() {
			_, _, err := service.Login(LoginDTO{EmployeeID: "MA999", Password: "test123"})
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})

		It("rejects missing credentials before touching the directory", func() {
			_, _, err := service.Login(LoginDTO{})
			var vErr ValidationError
			Expect(err).To(BeAssignableToTypeOf(vErr))
		})
	})

	Describe("SessionUser", func() {
		var token string

		BeforeEach(func() {
			var err error
			_, token, err = service.Login(LoginDTO{EmployeeID: "MA001", Password: "test123"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("resolves a live token", func() {
			user, err := service.SessionUser(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(user.EmployeeID).To(Equal("MA001"))
		})

		It("recomputes the permission snapshot on every check", func() {
			directory.snapshots["MA001"] = internal.PermissionSnapshot{
				"timeTracking": {"view": false},
			}

			user, err := service.SessionUser(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(user.Permissions.Allows("timeTracking", "view")).To(BeFalse(),
				"table changes apply without re-login")
		})

		It("slides the idle deadline on activity", func() {
			now = now.Add(90 * time.Second)
			_, err := service.SessionUser(token)
			Expect(err).ToNot(HaveOccurred())

			now = now.Add(90 * time.Second)
			_, err = service.SessionUser(token)
			Expect(err).ToNot(HaveOccurred(), "each check restarts the idle window")
		})

		It("expires after the idle window", func() {
			now = now.Add(2*time.Minute + time.Second)
			_, err := service.SessionUser(token)
			Expect(err).To(MatchError(internal.ErrSessionInvalid))
		})

		It("rejects the token after logout", func() {
			service.Logout(token)
			_, err := service.SessionUser(token)
			Expect(err).To(MatchError(internal.ErrSessionInvalid))
		})

		It("rejects an unknown token", func() {
			_, err := service.SessionUser("deadbeef")
			Expect(err).To(MatchError(internal.ErrSessionInvalid))
		})
	})

	Describe("Store", func() {
		It("issues distinct opaque tokens", func() {
			a, err := GenerateRandomToken()
			Expect(err).ToNot(HaveOccurred())
			b, err := GenerateRandomToken()
			Expect(err).ToNot(HaveOccurred())
			Expect(a).ToNot(Equal(b))
			Expect(a).To(HaveLen(64))
		})

		It("falls back to the default idle timeout", func() {
			s := NewStore(0)
			Expect(s.IdleTimeout()).To(Equal(internal.DefaultSessionIdleTimeout))
		})
	})
})
