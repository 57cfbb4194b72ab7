package inventory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jtoledo/betriebsportal/internal"
)

// FlexibleNumber accepts a JSON number or a numeric string. Form-driven
// clients send quantities both ways.
type FlexibleNumber string

func (f *FlexibleNumber) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = FlexibleNumber(strings.TrimSpace(asString))
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = FlexibleNumber(asNumber.String())
		return nil
	}
	return fmt.Errorf("Wert %s ist keine Zahl", string(data))
}

func (f FlexibleNumber) String() string {
	return string(f)
}

// Int parses the value as a base-10 integer.
func (f FlexibleNumber) Int() (int, error) {
	return strconv.Atoi(string(f))
}

// CreateMovementDTO is the booking request body.
type CreateMovementDTO struct {
	EmployeeID       string         `json:"employeeId"`
	LocationID       string         `json:"locationId"`
	TypeID           string         `json:"typeId"`
	ArticleID        string         `json:"articleId"`
	Quantity         FlexibleNumber `json:"quantity"`
	Note             string         `json:"note"`
	TargetLocationID string         `json:"targetLocationId"`
	ResultingStock   string         `json:"resultingStock"`
}

// FieldErrors collects every validation problem of the basic fields so the
// caller sees all of them at once. Transfer target presence is checked
// separately because it depends on the resolved movement type.
func (d CreateMovementDTO) FieldErrors() []internal.ValidationError {
	var errs []internal.ValidationError
	if strings.TrimSpace(d.EmployeeID) == "" {
		errs = append(errs, missingField("employeeId", "Mitarbeiter-ID ist erforderlich"))
	}
	if strings.TrimSpace(d.LocationID) == "" {
		errs = append(errs, missingField("locationId", "Lagerort muss ausgewählt werden"))
	}
	if strings.TrimSpace(d.TypeID) == "" {
		errs = append(errs, missingField("typeId", "Transaktionstyp muss ausgewählt werden"))
	}
	if strings.TrimSpace(d.ArticleID) == "" {
		errs = append(errs, missingField("articleId", "Artikel muss ausgewählt werden"))
	}
	if qty, err := d.Quantity.Int(); err != nil || qty == 0 {
		errs = append(errs, internal.ValidationError{
			Field:   "quantity",
			Message: "Gültige Transaktionsmenge erforderlich (ganze Zahl ungleich 0)",
			Code:    string(internal.ErrCodeInvalidQuantity),
		})
	}
	return errs
}

func missingField(field, message string) internal.ValidationError {
	return internal.ValidationError{
		Field:   field,
		Message: message,
		Code:    string(internal.ErrCodeMissingField),
	}
}

// CreateItemDTO is the article creation request body.
type CreateItemDTO struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Stock    FlexibleNumber `json:"stock"`
	MinStock FlexibleNumber `json:"minStock"`
	Unit     string         `json:"unit"`
}

func (d CreateItemDTO) FieldErrors() []internal.ValidationError {
	var errs []internal.ValidationError
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, missingField("name", "Artikelname ist erforderlich"))
	}
	if strings.TrimSpace(d.Category) == "" {
		errs = append(errs, missingField("category", "Kategorie ist erforderlich"))
	}
	if d.Stock != "" {
		if stock, err := d.Stock.Int(); err != nil || stock < 0 {
			errs = append(errs, internal.ValidationError{
				Field:   "stock",
				Message: "Bestand muss eine ganze Zahl >= 0 sein",
				Code:    string(internal.ErrCodeInvalidQuantity),
			})
		}
	}
	if d.MinStock != "" {
		if minStock, err := d.MinStock.Int(); err != nil || minStock < 0 {
			errs = append(errs, internal.ValidationError{
				Field:   "minStock",
				Message: "Mindestbestand muss eine ganze Zahl >= 0 sein",
				Code:    string(internal.ErrCodeInvalidQuantity),
			})
		}
	}
	return errs
}

// MovementQuery carries the list filters and paging from the query string.
// Zero values mean "no filter"; page and limit are normalized by the service.
type MovementQuery struct {
	LocationID string
	TypeID     string
	ArticleID  string
	DateFrom   string
	DateTo     string
	Page       int
	Limit      int
}

// MovementList is the paged query result.
type MovementList struct {
	Movements  []Movement `json:"movements"`
	Pagination Pagination `json:"pagination"`
}

// StockQuery filters and pages the per-location stock report.
type StockQuery struct {
	Location string
	Article  string
	Page     int
	Limit    int
}

// StockReport is the report response: a header row plus cell rows, because
// the report tabs carry a presentation layout rather than a record schema.
type StockReport struct {
	Location   string     `json:"location"`
	Headers    []string   `json:"headers"`
	Items      [][]string `json:"items"`
	Pagination Pagination `json:"pagination"`
}
