package timetracking

import (
	"strings"

	"github.com/jtoledo/betriebsportal/internal"
)

// CreateEntryDTO is the work-time entry request body.
type CreateEntryDTO struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Location   string `json:"location"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// FieldErrors collects every validation problem at once.
func (d CreateEntryDTO) FieldErrors() []internal.ValidationError {
	var errs []internal.ValidationError
	if strings.TrimSpace(d.EmployeeID) == "" {
		errs = append(errs, fieldError("employeeId", "Mitarbeiter-ID ist erforderlich"))
	}
	if strings.TrimSpace(d.Date) == "" {
		errs = append(errs, fieldError("date", "Datum ist erforderlich"))
	} else if _, ok := normalizeDate(strings.TrimSpace(d.Date)); !ok {
		errs = append(errs, fieldError("date", "Ungültiges Datum (erwartet TT.MM.JJJJ oder JJJJ-MM-TT)"))
	}
	if strings.TrimSpace(d.Location) == "" {
		errs = append(errs, fieldError("location", "Standort muss ausgewählt werden"))
	}
	if strings.TrimSpace(d.StartTime) == "" {
		errs = append(errs, fieldError("startTime", "Startzeit ist erforderlich"))
	} else if !validClockTime(strings.TrimSpace(d.StartTime)) {
		errs = append(errs, fieldError("startTime", "Ungültige Startzeit (erwartet HH:MM)"))
	}
	if strings.TrimSpace(d.EndTime) == "" {
		errs = append(errs, fieldError("endTime", "Endzeit ist erforderlich"))
	} else if !validClockTime(strings.TrimSpace(d.EndTime)) {
		errs = append(errs, fieldError("endTime", "Ungültige Endzeit (erwartet HH:MM)"))
	}
	return errs
}

func fieldError(field, message string) internal.ValidationError {
	return internal.ValidationError{
		Field:   field,
		Message: message,
		Code:    string(internal.ErrCodeValidationFailed),
	}
}

// DeleteEntriesDTO identifies entries to delete by their stored timestamps.
type DeleteEntriesDTO struct {
	EmployeeID string   `json:"employeeId"`
	Timestamps []string `json:"timestamps"`
}

func (d DeleteEntriesDTO) FieldErrors() []internal.ValidationError {
	var errs []internal.ValidationError
	if strings.TrimSpace(d.EmployeeID) == "" {
		errs = append(errs, fieldError("employeeId", "Mitarbeiter-ID ist erforderlich"))
	}
	if len(d.Timestamps) == 0 {
		errs = append(errs, fieldError("timestamps", "Mindestens ein Zeitstempel ist erforderlich"))
	}
	return errs
}
