// Package inventory implements stock movement booking and querying on top of
// the inventory spreadsheet: articles, categories, reference data, the
// append-only transaction log and the per-location stock report.
package inventory

import (
	"sync"
	"time"
)

// Tab titles in the inventory spreadsheet.
const (
	SheetArticles     = "Artikel"
	SheetCategories   = "Kategorien"
	SheetLocations    = "Lagerort"
	SheetTypes        = "Transaktionstypen"
	SheetTransactions = "Transaktionen"
)

// The lookup tabs (Artikel, Kategorien, Lagerort, Transaktionstypen) all key
// their rows by ID with the display name in the next column; Artikel
// additionally carries Kategorie, Bestand, MinBestand and Einheit, and
// Transaktionstypen the booking count.
const (
	colLookupID       = "ID"
	colLookupName     = "Name"
	colLookupBookings = "Anzahl Buchungen"
)

// Column headers of the Transaktionen tab.
const (
	colEmployeeID     = "Mitarbeiter ID"
	colTimestamp      = "Timestamp"
	colLocationID     = "Lagerort ID"
	colTypeID         = "Typ ID"
	colArticleID      = "Artikel ID"
	colQuantity       = "Transaktionsmenge"
	colResultingStock = "Bestand LO"
	colNote           = "Buchungstext"
)

// Reference is one row of a lookup tab (locations, articles).
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MovementType additionally carries the booking count: 2 means a transfer
// that decomposes into a source and a destination row.
type MovementType struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	NumberOfBookings int    `json:"numberOfBookings"`
}

func (t MovementType) IsTransfer() bool {
	return t.NumberOfBookings == 2
}

// References bundles the three lookup tabs joined into movement views.
type References struct {
	Locations []Reference    `json:"locations"`
	Types     []MovementType `json:"types"`
	Articles  []Reference    `json:"articles"`
}

// Item is one article with its current stock level.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"minStock"`
	Unit        string `json:"unit"`
	StockStatus string `json:"stockStatus"`
}

// Stock status levels relative to the article's minimum stock.
const (
	StockStatusCritical = "kritisch"
	StockStatusWarning  = "warnung"
	StockStatusNormal   = "normal"
)

// StockStatusFor grades stock against minStock: at or below the minimum is
// critical, within 150% of it is a warning.
func StockStatusFor(stock, minStock int) string {
	if minStock <= 0 {
		return StockStatusNormal
	}
	if stock <= minStock {
		return StockStatusCritical
	}
	if float64(stock) <= 1.5*float64(minStock) {
		return StockStatusWarning
	}
	return StockStatusNormal
}

// Movement is one transaction row denormalized with the display names of its
// foreign keys. JSON keys match the sheet-facing wire format the frontend
// renders.
type Movement struct {
	EmployeeID     string `json:"mitarbeiter_id"`
	Timestamp      string `json:"timestamp"`
	LocationID     string `json:"lagerort_id"`
	Location       string `json:"lagerort"`
	TypeID         string `json:"typ_id"`
	Type           string `json:"trans_typ"`
	ArticleID      string `json:"artikel_id"`
	Article        string `json:"artikel"`
	Quantity       string `json:"transaktionsmenge"`
	ResultingStock string `json:"bestand_lo"`
	Note           string `json:"buchungstext"`

	parsedAt time.Time
}

// Pagination mirrors the list responses' paging block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

var (
	berlinOnce sync.Once
	berlinLoc  *time.Location
)

func berlin() *time.Location {
	berlinOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			loc = time.UTC
		}
		berlinLoc = loc
	})
	return berlinLoc
}

// BookingTimestamp renders the append-time stamp in the format every stored
// transaction row uses: Berlin wall-clock time with a fixed ".000Z" suffix.
// The suffix misstates the zone, but the whole history is written this way
// and the query-side parser agrees with it.
func BookingTimestamp(now time.Time) string {
	return now.In(berlin()).Format("2006-01-02T15:04:05") + ".000Z"
}

// timestampLayouts in the order they appear in the data: the booking format,
// strict RFC3339 (older rows), and day-first forms from hand-edited cells.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// ParseTimestamp parses a stored timestamp cell. The zero time and false mean
// the cell is not a recognizable timestamp.
func ParseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
