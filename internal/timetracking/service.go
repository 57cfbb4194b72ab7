package timetracking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/dedupe"
	"github.com/jtoledo/betriebsportal/internal/sheets"
)

// GatewayAPI is the slice of the spreadsheet client the service needs.
type GatewayAPI interface {
	Rows(ctx context.Context, sheetTitle string) ([]sheets.Row, error)
	AppendRow(ctx context.Context, sheetTitle string, values map[string]string) error
	DeleteRows(ctx context.Context, sheetTitle string, rowNumbers []int64) error
}

// PermissionAPI answers whether an employee may perform an action on a
// resource.
type PermissionAPI interface {
	HasPermission(employeeID, resource, action string) bool
}

const resourceTimeTracking = "timeTracking"

type Service struct {
	gateway GatewayAPI
	perms   PermissionAPI
	guard   *dedupe.Guard
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(gateway GatewayAPI, perms PermissionAPI, guard *dedupe.Guard, logger *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		perms:   perms,
		guard:   guard,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateEntry appends one work-time row. An entry with the same employee,
// date and times already in the sheet is reported as success without a new
// row; the guard additionally absorbs double-submits still in flight.
func (s *Service) CreateEntry(ctx context.Context, employeeID string, dto CreateEntryDTO) (string, error) {
	if dto.EmployeeID == "" {
		dto.EmployeeID = employeeID
	}
	if !s.perms.HasPermission(employeeID, resourceTimeTracking, "edit") {
		return "", internal.ErrNoPermission
	}
	if errs := dto.FieldErrors(); len(errs) > 0 {
		return "", internal.NewValidationErrors(errs)
	}

	date, _ := normalizeDate(strings.TrimSpace(dto.Date))
	location := strings.TrimSpace(dto.Location)
	startTime := strings.TrimSpace(dto.StartTime)
	endTime := strings.TrimSpace(dto.EndTime)

	key := dedupe.Key(dto.EmployeeID, date, location, startTime, endTime)
	if !s.guard.Acquire(key) {
		s.logger.Info("duplicate time entry suppressed", "employeeId", dto.EmployeeID, "date", date)
		return "Eintrag wird bereits verarbeitet", nil
	}
	defer s.guard.Release(key)

	rows, err := s.gateway.Rows(ctx, SheetEntries)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.GetTrimmed(colEmployeeID) == dto.EmployeeID &&
			row.GetTrimmed(colDate) == date &&
			row.GetTrimmed(colStartTime) == startTime &&
			row.GetTrimmed(colEndTime) == endTime {
			return "Eintrag existiert bereits", nil
		}
	}

	err = s.gateway.AppendRow(ctx, SheetEntries, map[string]string{
		colEmployeeID: dto.EmployeeID,
		colDate:       date,
		colLocation:   location,
		colStartTime:  startTime,
		colEndTime:    endTime,
		colTimestamp:  s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("time entry created", "employeeId", dto.EmployeeID, "date", date, "location", location)
	return "Zeiteintrag erfolgreich gespeichert", nil
}

// ListLocations returns the work locations from the lookup tab's first
// column. The tab is a plain single-column list.
func (s *Service) ListLocations(ctx context.Context, employeeID string) ([]string, error) {
	if !s.perms.HasPermission(employeeID, resourceTimeTracking, "view") {
		return nil, internal.ErrNoPermission
	}

	rows, err := s.gateway.Rows(ctx, SheetLocations)
	if err != nil {
		return nil, err
	}
	locations := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := strings.TrimSpace(row.Col(0)); name != "" {
			locations = append(locations, name)
		}
	}
	return locations, nil
}

// History returns one employee's entries, newest date first, each with the
// derived working hours.
func (s *Service) History(ctx context.Context, requesterID, employeeID string) ([]Entry, error) {
	if !s.perms.HasPermission(requesterID, resourceTimeTracking, "view") {
		return nil, internal.ErrNoPermission
	}

	rows, err := s.gateway.Rows(ctx, SheetEntries)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	for _, row := range rows {
		if row.GetTrimmed(colEmployeeID) != employeeID {
			continue
		}
		entry := Entry{
			EmployeeID: employeeID,
			Date:       row.GetTrimmed(colDate),
			Location:   row.GetTrimmed(colLocation),
			StartTime:  row.GetTrimmed(colStartTime),
			EndTime:    row.GetTrimmed(colEndTime),
			Timestamp:  row.GetTrimmed(colTimestamp),
		}
		entry.WorkingHours = workingHours(entry.StartTime, entry.EndTime)
		entry.parsedDate, _ = parseDate(entry.Date)
		entries = append(entries, entry)
	}

	// Newest first; unparseable dates keep their sheet order at the end.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].parsedDate.After(entries[j].parsedDate)
	})
	return entries, nil
}

// DeleteEntries removes the rows of one employee whose stored timestamps
// match the given ones. Unknown timestamps are skipped, not errors.
func (s *Service) DeleteEntries(ctx context.Context, employeeID string, dto DeleteEntriesDTO) (string, error) {
	if dto.EmployeeID == "" {
		dto.EmployeeID = employeeID
	}
	if !s.perms.HasPermission(employeeID, resourceTimeTracking, "edit") {
		return "", internal.ErrNoPermission
	}
	if errs := dto.FieldErrors(); len(errs) > 0 {
		return "", internal.NewValidationErrors(errs)
	}

	wanted := make(map[string]bool, len(dto.Timestamps))
	for _, ts := range dto.Timestamps {
		if trimmed := strings.TrimSpace(ts); trimmed != "" {
			wanted[trimmed] = true
		}
	}

	rows, err := s.gateway.Rows(ctx, SheetEntries)
	if err != nil {
		return "", err
	}
	var rowNumbers []int64
	for _, row := range rows {
		if row.GetTrimmed(colEmployeeID) != dto.EmployeeID {
			continue
		}
		if wanted[row.GetTrimmed(colTimestamp)] {
			rowNumbers = append(rowNumbers, row.Number)
		}
	}
	if len(rowNumbers) == 0 {
		return "Keine passenden Einträge gefunden", nil
	}

	if err := s.gateway.DeleteRows(ctx, SheetEntries, rowNumbers); err != nil {
		return "", err
	}
	s.logger.Info("time entries deleted", "employeeId", dto.EmployeeID, "count", len(rowNumbers))
	return fmt.Sprintf("%d Einträge gelöscht", len(rowNumbers)), nil
}
