// Package timetracking implements the work-time entry log: create, list with
// computed working hours, and delete by timestamp match.
package timetracking

import (
	"fmt"
	"time"
)

// Tab titles in the time tracking spreadsheet. The entries tab is the
// spreadsheet's first tab; it is addressed here by its title, so the deployed
// sheet must keep the tab named Zeiterfassung. Renaming it surfaces as a
// missing-tab error naming the expected title, not as silent data loss.
const (
	SheetEntries   = "Zeiterfassung"
	SheetLocations = "Standorte"
)

// Column headers of the Zeiterfassung tab.
const (
	colEmployeeID = "Mitarbeiter_ID"
	colDate       = "Datum"
	colLocation   = "Standort"
	colStartTime  = "Startzeit"
	colEndTime    = "Endzeit"
	colTimestamp  = "Timestamp"
)

// Entry is one work-time row as returned by the history endpoint.
// WorkingHours is derived from the start and end times, "H:MM".
type Entry struct {
	EmployeeID   string `json:"mitarbeiter_id"`
	Date         string `json:"datum"`
	Location     string `json:"standort"`
	StartTime    string `json:"startzeit"`
	EndTime      string `json:"endzeit"`
	WorkingHours string `json:"arbeitszeit"`
	Timestamp    string `json:"timestamp"`

	parsedDate time.Time
}

// Stored and displayed date format, day-first.
const dateLayout = "02.01.2006"

// normalizeDate accepts the day-first stored form or the yyyy-mm-dd form the
// browser's date input sends, and returns the stored form.
func normalizeDate(value string) (string, bool) {
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed.Format(dateLayout), true
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed.Format(dateLayout), true
	}
	return "", false
}

func parseDate(value string) (time.Time, bool) {
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}

// workingHours renders the span between two HH:MM clock times as "H:MM".
// An end before the start is read as crossing midnight.
func workingHours(startTime, endTime string) string {
	start, err1 := time.Parse("15:04", startTime)
	end, err2 := time.Parse("15:04", endTime)
	if err1 != nil || err2 != nil {
		return ""
	}
	span := end.Sub(start)
	if span < 0 {
		span += 24 * time.Hour
	}
	minutes := int(span.Minutes())
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func validClockTime(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}
