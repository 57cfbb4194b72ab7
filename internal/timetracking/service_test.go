package timetracking_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/dedupe"
	"github.com/jtoledo/betriebsportal/internal/sheets"
	"github.com/jtoledo/betriebsportal/internal/timetracking"
)

type mockGateway struct {
	mu       sync.Mutex
	grids    map[string][][]interface{}
	appended []map[string]string
	deleted  []int64

	appendErr error
	deleteErr error
}

func newMockGateway() *mockGateway {
	return &mockGateway{grids: make(map[string][][]interface{})}
}

func (m *mockGateway) Rows(ctx context.Context, sheetTitle string) ([]sheets.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, ok := m.grids[sheetTitle]
	if !ok {
		return nil, internal.NewNotFoundError(
			fmt.Sprintf("Tabellenblatt %q nicht gefunden", sheetTitle), internal.ErrCodeSheetNotFound)
	}
	_, rows := sheets.RowsFromGrid(grid)
	return rows, nil
}

func (m *mockGateway) AppendRow(ctx context.Context, sheetTitle string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, values)
	return nil
}

func (m *mockGateway) DeleteRows(ctx context.Context, sheetTitle string, rowNumbers []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, rowNumbers...)
	return nil
}

type allowAllPerms struct{}

func (allowAllPerms) HasPermission(employeeID, resource, action string) bool {
	return employeeID != ""
}

var _ = Describe("TimeTrackingService", func() {
	var (
		gateway *mockGateway
		service *timetracking.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = newMockGateway()
		gateway.grids[timetracking.SheetEntries] = [][]interface{}{
			{"Mitarbeiter_ID", "Datum", "Standort", "Startzeit", "Endzeit", "Timestamp"},
			{"MA001", "10.03.2025", "Werk Nord", "08:00", "16:30", "2025-03-10T16:31:00Z"},
			{"MA001", "12.03.2025", "Werk Nord", "07:30", "15:00", "2025-03-12T15:02:00Z"},
			{"MA002", "11.03.2025", "Büro", "09:00", "17:00", "2025-03-11T17:05:00Z"},
		}
		gateway.grids[timetracking.SheetLocations] = [][]interface{}{
			{"Standort"},
			{"Werk Nord"},
			{"Büro"},
			{""},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timetracking.NewService(gateway, allowAllPerms{}, dedupe.NewGuard(5*time.Second), logger)
		ctx = context.Background()
	})

	Describe("CreateEntry", func() {
		validDTO := func() timetracking.CreateEntryDTO {
			return timetracking.CreateEntryDTO{
				Date:      "2025-03-14",
				Location:  "Werk Nord",
				StartTime: "08:00",
				EndTime:   "16:30",
			}
		}

		It("appends one row with the date normalized to day-first form", func() {
			message, err := service.CreateEntry(ctx, "MA001", validDTO())
			Expect(err).ToNot(HaveOccurred())
			Expect(message).To(ContainSubstring("gespeichert"))

			Expect(gateway.appended).To(HaveLen(1))
			row := gateway.appended[0]
			Expect(row["Mitarbeiter_ID"]).To(Equal("MA001"))
			Expect(row["Datum"]).To(Equal("14.03.2025"))
			Expect(row["Startzeit"]).To(Equal("08:00"))
			Expect(row["Endzeit"]).To(Equal("16:30"))

			_, err = time.Parse(time.RFC3339, row["Timestamp"])
			Expect(err).ToNot(HaveOccurred(), "stored timestamp must be RFC3339")
		})

		It("accepts the stored day-first date form as input", func() {
			dto := validDTO()
			dto.Date = "14.03.2025"
			_, err := service.CreateEntry(ctx, "MA001", dto)
			Expect(err).ToNot(HaveOccurred())
			Expect(gateway.appended[0]["Datum"]).To(Equal("14.03.2025"))
		})

		It("reports an already-stored identical entry without appending", func() {
			dto := timetracking.CreateEntryDTO{
				Date:      "10.03.2025",
				Location:  "Werk Nord",
				StartTime: "08:00",
				EndTime:   "16:30",
			}
			message, err := service.CreateEntry(ctx, "MA001", dto)
			Expect(err).ToNot(HaveOccurred())
			Expect(message).To(ContainSubstring("existiert bereits"))
			Expect(gateway.appended).To(BeEmpty())
		})

		It("collects all validation problems", func() {
			_, err := service.CreateEntry(ctx, "MA001", timetracking.CreateEntryDTO{
				Date:      "gestern",
				StartTime: "8 Uhr",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			detailed := appErr.GetDetailedMessage()
			Expect(detailed).To(ContainSubstring("Datum"))
			Expect(detailed).To(ContainSubstring("Standort"))
			Expect(detailed).To(ContainSubstring("Startzeit"))
			Expect(detailed).To(ContainSubstring("Endzeit"))
		})
	})

	Describe("ListLocations", func() {
		It("returns the first column, skipping blank cells", func() {
			locations, err := service.ListLocations(ctx, "MA001")
			Expect(err).ToNot(HaveOccurred())
			Expect(locations).To(Equal([]string{"Werk Nord", "Büro"}))
		})
	})

	Describe("History", func() {
		It("returns only the requested employee, newest date first", func() {
			entries, err := service.History(ctx, "MA001", "MA001")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Date).To(Equal("12.03.2025"))
			Expect(entries[1].Date).To(Equal("10.03.2025"))
		})

		It("derives working hours as H:MM", func() {
			entries, err := service.History(ctx, "MA001", "MA001")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries[0].WorkingHours).To(Equal("7:30"))
			Expect(entries[1].WorkingHours).To(Equal("8:30"))
		})

		It("returns an empty list for an employee without entries", func() {
			entries, err := service.History(ctx, "MA001", "MA009")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("DeleteEntries", func() {
		It("deletes the sheet rows whose timestamps match", func() {
			message, err := service.DeleteEntries(ctx, "MA001", timetracking.DeleteEntriesDTO{
				Timestamps: []string{"2025-03-10T16:31:00Z", "2025-03-12T15:02:00Z"},
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(message).To(ContainSubstring("2"))
			Expect(gateway.deleted).To(ConsistOf(int64(2), int64(3)))
		})

		It("only deletes rows of the requesting employee", func() {
			message, err := service.DeleteEntries(ctx, "MA001", timetracking.DeleteEntriesDTO{
				Timestamps: []string{"2025-03-11T17:05:00Z"},
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(message).To(ContainSubstring("Keine passenden"))
			Expect(gateway.deleted).To(BeEmpty())
		})

		It("requires at least one timestamp", func() {
			_, err := service.DeleteEntries(ctx, "MA001", timetracking.DeleteEntriesDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})
})
