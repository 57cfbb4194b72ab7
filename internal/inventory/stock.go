package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jtoledo/betriebsportal/internal"
)

// DefaultStockLocation is the report tab shown when no location is requested.
const DefaultStockLocation = "L00"

// Layout of the per-location report tabs. They are maintained by hand for
// printing: two title rows, the header in row 3, data until the first blank
// article cell.
const (
	stockHeaderRow = 3
	stockLastCol   = "L"
)

// RangeReader reads a raw A1 range. The report tabs have no record schema,
// so the header-mapped Rows API does not apply to them.
type RangeReader interface {
	ReadRange(ctx context.Context, a1Range string) ([][]string, error)
}

// ReportSource yields the header row and data rows of one location's report
// tab. ok is false when the tab is missing or not in the expected layout;
// that is not an error, the caller falls back to an empty report.
type ReportSource interface {
	Read(ctx context.Context, location string) (headers []string, rows [][]string, ok bool, err error)
}

type sheetReportSource struct {
	reader RangeReader
}

func NewSheetReportSource(reader RangeReader) ReportSource {
	return &sheetReportSource{reader: reader}
}

func (s *sheetReportSource) Read(ctx context.Context, location string) ([]string, [][]string, bool, error) {
	a1Range := fmt.Sprintf("'%s'!A%d:%s", strings.ReplaceAll(location, "'", "''"), stockHeaderRow, stockLastCol)
	grid, err := s.reader.ReadRange(ctx, a1Range)
	if err != nil {
		if appErr, isApp := internal.IsAppError(err); isApp && appErr.Code == internal.ErrCodeSheetNotFound {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	if len(grid) == 0 || len(grid[0]) == 0 || strings.TrimSpace(grid[0][0]) == "" {
		return nil, nil, false, nil
	}

	headers := grid[0]
	var rows [][]string
	for _, row := range grid[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			break
		}
		rows = append(rows, row)
	}
	return headers, rows, true, nil
}

// fallbackHeaders keeps the report screen renderable when a location has no
// report tab yet.
var fallbackHeaders = []string{"Artikel", "Bestand"}

// StockReport reads one location's report tab, filters by article, pages the
// rows and normalizes numeric cells. A missing or malformed tab yields an
// empty report instead of an error.
func (s *Service) StockReport(ctx context.Context, employeeID string, query StockQuery) (*StockReport, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "view") {
		return nil, internal.ErrNoPermission
	}

	location := strings.TrimSpace(query.Location)
	if location == "" {
		location = DefaultStockLocation
	}
	page, limit := normalizePaging(query.Page, query.Limit)

	headers, rows, ok, err := s.reports.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("stock report tab missing or malformed, serving empty report", "location", location)
		return &StockReport{
			Location:   location,
			Headers:    fallbackHeaders,
			Items:      [][]string{},
			Pagination: Pagination{Page: page, Limit: limit},
		}, nil
	}

	filter := strings.ToLower(strings.TrimSpace(query.Article))
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		if filter != "" && !strings.Contains(strings.ToLower(row[0]), filter) {
			continue
		}
		filtered = append(filtered, normalizeStockRow(row, len(headers)))
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &StockReport{
		Location: location,
		Headers:  headers,
		Items:    filtered[start:end],
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalRows:  total,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// normalizeStockRow pads a row to the header width and rewrites numeric
// cells into canonical decimal form. The tabs are hand-edited, so quantities
// show up as "1.234,5", " 12 " or "3,0" depending on who typed them.
func normalizeStockRow(row []string, width int) []string {
	normalized := make([]string, width)
	for i := range normalized {
		if i >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[i])
		if value, isNumber := parseGermanDecimal(cell); isNumber {
			cell = value.String()
		}
		normalized[i] = cell
	}
	return normalized
}

func parseGermanDecimal(cell string) (decimal.Decimal, bool) {
	if cell == "" {
		return decimal.Zero, false
	}
	candidate := cell
	if strings.Contains(candidate, ",") {
		candidate = strings.ReplaceAll(candidate, ".", "")
		candidate = strings.ReplaceAll(candidate, ",", ".")
	}
	value, err := decimal.NewFromString(candidate)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
