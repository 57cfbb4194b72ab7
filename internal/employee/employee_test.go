package employee_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/employee"
)

func testDirectoryConfig() internal.DirectoryConfig {
	adminHash, _ := employee.HashPassword("admin-pw", 4)
	userHash, _ := employee.HashPassword("user-pw", 4)
	return internal.DirectoryConfig{
		Employees: []internal.EmployeeConfig{
			{ID: "E1", Name: "Admin", PasswordHash: adminHash, Roles: []string{"admin"}},
			{ID: "E2", Name: "User", PasswordHash: userHash, Roles: []string{"user"}},
		},
		Permissions: map[string]map[string][]string{
			"timeTracking": {
				"view": {"admin", "user"},
				"edit": {"admin", "user"},
			},
			"inventory": {
				"view": {"admin"},
				"edit": {"admin"},
			},
		},
	}
}

var _ = Describe("Directory", func() {
	var dir *employee.Directory

	BeforeEach(func() {
		dir = employee.NewDirectory(testDirectoryConfig())
	})

	Describe("HasPermission", func() {
		It("allows exactly when a role intersects the allow-list", func() {
			Expect(dir.HasPermission("E1", "inventory", "edit")).To(BeTrue())
			Expect(dir.HasPermission("E2", "inventory", "edit")).To(BeFalse())
			Expect(dir.HasPermission("E2", "timeTracking", "view")).To(BeTrue())
		})

		It("answers false for unknown employees, resources and actions", func() {
			Expect(dir.HasPermission("E9", "inventory", "view")).To(BeFalse())
			Expect(dir.HasPermission("E1", "payroll", "view")).To(BeFalse())
			Expect(dir.HasPermission("E1", "inventory", "approve")).To(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("covers every configured resource and action", func() {
			snapshot := dir.Snapshot("E2")
			Expect(snapshot.Allows("timeTracking", "view")).To(BeTrue())
			Expect(snapshot.Allows("inventory", "view")).To(BeFalse())
			Expect(snapshot).To(HaveKey("inventory"))
			Expect(snapshot["inventory"]).To(HaveKey("edit"))
		})

		It("matches HasPermission for every pair", func() {
			for _, id := range []string{"E1", "E2", "E9"} {
				snapshot := dir.Snapshot(id)
				for resource, actions := range snapshot {
					for action, allowed := range actions {
						Expect(allowed).To(Equal(dir.HasPermission(id, resource, action)),
							"mismatch for %s %s.%s", id, resource, action)
					}
				}
			}
		})
	})

	Describe("VerifyPassword", func() {
		It("returns the employee on a correct password", func() {
			emp, err := dir.VerifyPassword("E1", "admin-pw")
			Expect(err).ToNot(HaveOccurred())
			Expect(emp.Name).To(Equal("Admin"))
		})

		It("rejects a wrong password", func() {
			_, err := dir.VerifyPassword("E1", "nope")
			Expect(err).To(MatchError(internal.ErrWrongPassword))
		})

		It("rejects an unknown employee", func() {
			_, err := dir.VerifyPassword("MA999", "whatever")
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})
	})

	Describe("the deployed directory", func() {
		It("authenticates MA001 with the documented test password", func() {
			deployed := employee.NewDirectory(internal.DefaultDirectory())
			emp, err := deployed.VerifyPassword("MA001", "test123")
			Expect(err).ToNot(HaveOccurred())
			Expect(emp.ID).To(Equal("MA001"))

			snapshot := deployed.Snapshot("MA001")
			Expect(snapshot.Allows("timeTracking", "view")).To(BeTrue())
			Expect(snapshot.Allows("inventory", "edit")).To(BeTrue())
		})
	})
})
