package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/jtoledo/betriebsportal/internal"
)

const spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

// Provider authenticates once with the service account and hands out one
// Client per spreadsheet ID. A handle for a given ID is created at most once
// per process lifetime and reused afterwards.
type Provider struct {
	cfg    internal.SheetsConfig
	logger *slog.Logger

	mu      sync.Mutex
	svc     *sheetsapi.Service
	clients map[string]*Client
}

func NewProvider(cfg internal.SheetsConfig, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Spreadsheet returns the cached client for the given spreadsheet ID,
// creating it (and the underlying authenticated service) on first use.
func (p *Provider) Spreadsheet(ctx context.Context, spreadsheetID string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[spreadsheetID]; ok {
		return client, nil
	}

	if p.svc == nil {
		svc, err := p.newService(ctx)
		if err != nil {
			return nil, err
		}
		p.svc = svc
	}

	client := &Client{
		svc:           p.svc,
		spreadsheetID: spreadsheetID,
		logger:        p.logger.With("spreadsheet_id", spreadsheetID),
		headerCache:   make(map[string][]string),
	}
	p.clients[spreadsheetID] = client
	return client, nil
}

func (p *Provider) newService(ctx context.Context) (*sheetsapi.Service, error) {
	if p.cfg.PrivateKey == "" {
		return nil, internal.NewInternalError("GOOGLE_PRIVATE_KEY is not configured", nil)
	}

	jwtCfg := &jwt.Config{
		Email:      p.cfg.ServiceAccountEmail,
		PrivateKey: p.cfg.NormalizedPrivateKey(),
		Scopes:     []string{spreadsheetScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, internal.NewStorageError("Google Sheets Client konnte nicht initialisiert werden", err)
	}
	return svc, nil
}

// Client wraps one spreadsheet. It never retries; callers see the first
// failure.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger

	mu          sync.Mutex
	sheetIDs    map[string]int64 // tab title -> sheetId, loaded once
	headerCache map[string][]string
}

// Rows reads all data rows of the named tab, mapped by the tab's header row.
func (c *Client) Rows(ctx context.Context, sheetTitle string) ([]Row, error) {
	grid, err := c.readGrid(ctx, quoteTitle(sheetTitle))
	if err != nil {
		return nil, c.wrapError(sheetTitle, err)
	}
	headers, rows := RowsFromGrid(grid)

	c.mu.Lock()
	c.headerCache[sheetTitle] = headers
	c.mu.Unlock()

	return rows, nil
}

// AppendRow appends one row to the named tab, ordering the given values by
// the tab's header row.
func (c *Client) AppendRow(ctx context.Context, sheetTitle string, values map[string]string) error {
	headers, err := c.headers(ctx, sheetTitle)
	if err != nil {
		return err
	}

	rowVals := make([]interface{}, len(headers))
	for i, h := range headers {
		rowVals[i] = values[h]
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{rowVals}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quoteTitle(sheetTitle), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return c.wrapError(sheetTitle, err)
	}
	return nil
}

// ReadRange reads a raw cell grid by A1 range. Used by the fixed-layout
// stock report, which is positional rather than header-mapped.
func (c *Client) ReadRange(ctx context.Context, a1Range string) ([][]string, error) {
	grid, err := c.readGrid(ctx, a1Range)
	if err != nil {
		return nil, c.wrapError(a1Range, err)
	}

	cells := make([][]string, len(grid))
	for i, rawRow := range grid {
		row := make([]string, len(rawRow))
		for j, cell := range rawRow {
			row[j] = CellString(cell)
		}
		cells[i] = row
	}
	return cells, nil
}

// DeleteRows removes the given 1-based sheet rows from the named tab in one
// batch, highest row first so earlier deletions do not shift later indexes.
func (c *Client) DeleteRows(ctx context.Context, sheetTitle string, rowNumbers []int64) error {
	if len(rowNumbers) == 0 {
		return nil
	}

	sheetID, err := c.sheetID(ctx, sheetTitle)
	if err != nil {
		return err
	}

	sorted := append([]int64(nil), rowNumbers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	requests := make([]*sheetsapi.Request, 0, len(sorted))
	for _, rowNumber := range sorted {
		requests = append(requests, &sheetsapi.Request{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowNumber - 1,
					EndIndex:   rowNumber,
				},
			},
		})
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return c.wrapError(sheetTitle, err)
	}
	return nil
}

func (c *Client) readGrid(ctx context.Context, a1Range string) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) headers(ctx context.Context, sheetTitle string) ([]string, error) {
	c.mu.Lock()
	cached, ok := c.headerCache[sheetTitle]
	c.mu.Unlock()
	if ok && len(cached) > 0 {
		return cached, nil
	}

	grid, err := c.readGrid(ctx, fmt.Sprintf("%s!1:1", quoteTitle(sheetTitle)))
	if err != nil {
		return nil, c.wrapError(sheetTitle, err)
	}
	if len(grid) == 0 {
		return nil, internal.NewNotFoundError(
			fmt.Sprintf("Tabellenblatt %q hat keine Kopfzeile", sheetTitle),
			internal.ErrCodeSheetNotFound)
	}

	headers := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		headers[i] = strings.TrimSpace(CellString(cell))
	}

	c.mu.Lock()
	c.headerCache[sheetTitle] = headers
	c.mu.Unlock()
	return headers, nil
}

// sheetID resolves a tab title to its numeric sheetId. The spreadsheet
// metadata is fetched once and reused for the process lifetime.
func (c *Client) sheetID(ctx context.Context, sheetTitle string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sheetIDs == nil {
		meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties").
			Context(ctx).
			Do()
		if err != nil {
			return 0, c.wrapError(sheetTitle, err)
		}
		c.sheetIDs = make(map[string]int64, len(meta.Sheets))
		for _, sheet := range meta.Sheets {
			if sheet.Properties != nil {
				c.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
			}
		}
	}

	id, ok := c.sheetIDs[sheetTitle]
	if !ok {
		return 0, internal.NewNotFoundError(
			fmt.Sprintf("Tabellenblatt %q nicht gefunden", sheetTitle),
			internal.ErrCodeSheetNotFound)
	}
	return id, nil
}

// wrapError maps API failures into the service error taxonomy. A 400 on a
// range lookup means the tab does not exist.
func (c *Client) wrapError(what string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "Unable to parse range") {
		return internal.NewNotFoundError(
			fmt.Sprintf("Tabellenblatt %q nicht gefunden", what),
			internal.ErrCodeSheetNotFound)
	}

	c.logger.Error("spreadsheet call failed", "target", what, "error", err)
	return internal.NewStorageError("Fehler beim Zugriff auf das Google Sheet", err)
}

// quoteTitle wraps a tab title in single quotes so titles with spaces form a
// valid A1 range.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
