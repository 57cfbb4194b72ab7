package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/dedupe"
	"github.com/jtoledo/betriebsportal/internal/sheets"
)

// GatewayAPI is the slice of the spreadsheet client the service needs.
type GatewayAPI interface {
	Rows(ctx context.Context, sheetTitle string) ([]sheets.Row, error)
	AppendRow(ctx context.Context, sheetTitle string, values map[string]string) error
}

// PermissionAPI answers whether an employee may perform an action on a
// resource. Backed by the static employee directory.
type PermissionAPI interface {
	HasPermission(employeeID, resource, action string) bool
}

const resourceInventory = "inventory"

// Default paging of the movement and stock lists.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Service struct {
	gateway GatewayAPI
	perms   PermissionAPI
	guard   *dedupe.Guard
	reports ReportSource
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(gateway GatewayAPI, perms PermissionAPI, guard *dedupe.Guard, reports ReportSource, logger *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		perms:   perms,
		guard:   guard,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// ListItems returns every article with its derived stock status.
func (s *Service) ListItems(ctx context.Context, employeeID string) ([]Item, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "view") {
		return nil, internal.ErrNoPermission
	}

	rows, err := s.gateway.Rows(ctx, SheetArticles)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		id := row.GetTrimmed(colLookupID)
		if id == "" {
			continue
		}
		stock := atoiOrZero(row.GetTrimmed("Bestand"))
		minStock := atoiOrZero(row.GetTrimmed("MinBestand"))
		items = append(items, Item{
			ID:          id,
			Name:        row.GetTrimmed(colLookupName),
			Category:    row.GetTrimmed("Kategorie"),
			Stock:       stock,
			MinStock:    minStock,
			Unit:        row.GetTrimmed("Einheit"),
			StockStatus: StockStatusFor(stock, minStock),
		})
	}
	return items, nil
}

// CreateItem appends a new article row and returns its generated ID.
func (s *Service) CreateItem(ctx context.Context, employeeID string, dto CreateItemDTO) (string, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "edit") {
		return "", internal.ErrNoPermission
	}
	if errs := dto.FieldErrors(); len(errs) > 0 {
		return "", internal.NewValidationErrors(errs)
	}

	rows, err := s.gateway.Rows(ctx, SheetArticles)
	if err != nil {
		return "", err
	}
	id := nextArticleID(rows)

	stock, _ := dto.Stock.Int()
	minStock, _ := dto.MinStock.Int()
	err = s.gateway.AppendRow(ctx, SheetArticles, map[string]string{
		colLookupID:   id,
		colLookupName: strings.TrimSpace(dto.Name),
		"Kategorie":   strings.TrimSpace(dto.Category),
		"Bestand":     strconv.Itoa(stock),
		"MinBestand":  strconv.Itoa(minStock),
		"Einheit":     strings.TrimSpace(dto.Unit),
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("article created", "articleId", id, "employeeId", employeeID)
	return id, nil
}

// nextArticleID picks the first free A### identifier above the highest one
// in use. Gaps from deleted rows are not reused below the maximum.
func nextArticleID(rows []sheets.Row) string {
	max := 0
	for _, row := range rows {
		id := row.GetTrimmed(colLookupID)
		if !strings.HasPrefix(id, "A") {
			continue
		}
		if n, err := strconv.Atoi(id[1:]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("A%03d", max+1)
}

// ListCategories returns the category lookup tab.
func (s *Service) ListCategories(ctx context.Context, employeeID string) ([]Reference, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "view") {
		return nil, internal.ErrNoPermission
	}
	rows, err := s.gateway.Rows(ctx, SheetCategories)
	if err != nil {
		return nil, err
	}
	return referencesFromRows(rows), nil
}

// ListReferences loads the three lookup tabs the booking form needs. The
// reads are independent and run concurrently.
func (s *Service) ListReferences(ctx context.Context, employeeID string) (*References, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "view") {
		return nil, internal.ErrNoPermission
	}

	var (
		locationRows []sheets.Row
		typeRows     []sheets.Row
		articleRows  []sheets.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		locationRows, err = s.gateway.Rows(gctx, SheetLocations)
		return err
	})
	g.Go(func() (err error) {
		typeRows, err = s.gateway.Rows(gctx, SheetTypes)
		return err
	})
	g.Go(func() (err error) {
		articleRows, err = s.gateway.Rows(gctx, SheetArticles)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &References{
		Locations: referencesFromRows(locationRows),
		Types:     movementTypesFromRows(typeRows),
		Articles:  referencesFromRows(articleRows),
	}, nil
}

func referencesFromRows(rows []sheets.Row) []Reference {
	refs := make([]Reference, 0, len(rows))
	for _, row := range rows {
		id := row.GetTrimmed(colLookupID)
		if id == "" {
			continue
		}
		refs = append(refs, Reference{ID: id, Name: row.GetTrimmed(colLookupName)})
	}
	return refs
}

func movementTypesFromRows(rows []sheets.Row) []MovementType {
	types := make([]MovementType, 0, len(rows))
	for _, row := range rows {
		id := row.GetTrimmed(colLookupID)
		if id == "" {
			continue
		}
		bookings := atoiOrZero(row.GetTrimmed(colLookupBookings))
		if bookings == 0 {
			bookings = 1
		}
		types = append(types, MovementType{
			ID:               id,
			Name:             row.GetTrimmed(colLookupName),
			NumberOfBookings: bookings,
		})
	}
	return types
}

// CreateMovement books a stock movement. A transfer type decomposes into an
// outbound row at the source and an inbound row at the target location.
func (s *Service) CreateMovement(ctx context.Context, employeeID string, dto CreateMovementDTO) (string, error) {
	if dto.EmployeeID == "" {
		dto.EmployeeID = employeeID
	}
	if !s.perms.HasPermission(employeeID, resourceInventory, "edit") {
		return "", internal.ErrNoPermission
	}

	errs := dto.FieldErrors()

	var movementType MovementType
	if dto.TypeID != "" {
		typeRows, err := s.gateway.Rows(ctx, SheetTypes)
		if err != nil {
			return "", err
		}
		found := false
		for _, t := range movementTypesFromRows(typeRows) {
			if t.ID == dto.TypeID {
				movementType = t
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, internal.ValidationError{
				Field:   "typeId",
				Message: fmt.Sprintf("Unbekannter Transaktionstyp %q", dto.TypeID),
				Code:    string(internal.ErrCodeValidationFailed),
			})
		}
		if movementType.IsTransfer() && strings.TrimSpace(dto.TargetLocationID) == "" {
			errs = append(errs, internal.ValidationError{
				Field:   "targetLocationId",
				Message: "Ziel-Lagerort muss für eine Umbuchung ausgewählt werden",
				Code:    string(internal.ErrCodeMissingField),
			})
		}
	}
	if len(errs) > 0 {
		return "", internal.NewValidationErrors(errs)
	}

	quantity, _ := dto.Quantity.Int()

	// Identical submissions within the guard window are absorbed and
	// reported as success so a double-click books exactly once. After a
	// successful append the entry is left to expire rather than released,
	// otherwise a second click landing after a fast first append would book
	// again. A failed booking releases the key immediately: the user must
	// be able to retry it.
	key := dedupe.Key(dto.EmployeeID, dto.LocationID, dto.TypeID, dto.ArticleID,
		strconv.Itoa(quantity), dto.TargetLocationID, dto.Note)
	if !s.guard.Acquire(key) {
		s.logger.Info("duplicate movement suppressed", "employeeId", dto.EmployeeID, "articleId", dto.ArticleID)
		return "Buchung wird bereits verarbeitet", nil
	}

	if movementType.IsTransfer() {
		message, err := s.bookTransfer(ctx, dto, quantity)
		if err != nil {
			s.guard.Release(key)
			return "", err
		}
		return message, nil
	}

	err := s.gateway.AppendRow(ctx, SheetTransactions, s.movementRow(dto, dto.LocationID, quantity))
	if err != nil {
		s.guard.Release(key)
		return "", err
	}
	s.logger.Info("movement booked",
		"employeeId", dto.EmployeeID, "typeId", dto.TypeID,
		"articleId", dto.ArticleID, "quantity", quantity)
	return "Bewegung erfolgreich gespeichert", nil
}

// bookTransfer appends the outbound row, then the inbound row. There is no
// compensation: when the second append fails the outbound row stays and the
// caller gets a distinct partial-booking error to hand to support.
func (s *Service) bookTransfer(ctx context.Context, dto CreateMovementDTO, quantity int) (string, error) {
	if quantity < 0 {
		quantity = -quantity
	}

	err := s.gateway.AppendRow(ctx, SheetTransactions, s.movementRow(dto, dto.LocationID, -quantity))
	if err != nil {
		return "", err
	}
	err = s.gateway.AppendRow(ctx, SheetTransactions, s.movementRow(dto, dto.TargetLocationID, quantity))
	if err != nil {
		s.logger.Error("transfer second booking failed",
			"employeeId", dto.EmployeeID, "articleId", dto.ArticleID,
			"source", dto.LocationID, "target", dto.TargetLocationID, "error", err)
		return "", internal.NewPartialBookingError(err)
	}

	s.logger.Info("transfer booked",
		"employeeId", dto.EmployeeID, "articleId", dto.ArticleID,
		"source", dto.LocationID, "target", dto.TargetLocationID, "quantity", quantity)
	return "Umbuchung erfolgreich gespeichert", nil
}

func (s *Service) movementRow(dto CreateMovementDTO, locationID string, quantity int) map[string]string {
	return map[string]string{
		colEmployeeID:     dto.EmployeeID,
		colTimestamp:      BookingTimestamp(s.now()),
		colLocationID:     locationID,
		colTypeID:         dto.TypeID,
		colArticleID:      dto.ArticleID,
		colQuantity:       strconv.Itoa(quantity),
		colResultingStock: strings.TrimSpace(dto.ResultingStock),
		colNote:           strings.TrimSpace(dto.Note),
	}
}

// ListMovements reads the transaction log joined with its lookup tabs,
// filtered, newest first, paged.
func (s *Service) ListMovements(ctx context.Context, employeeID string, query MovementQuery) (*MovementList, error) {
	if !s.perms.HasPermission(employeeID, resourceInventory, "view") {
		return nil, internal.ErrNoPermission
	}

	var (
		transactionRows []sheets.Row
		locationRows    []sheets.Row
		typeRows        []sheets.Row
		articleRows     []sheets.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		transactionRows, err = s.gateway.Rows(gctx, SheetTransactions)
		return err
	})
	g.Go(func() (err error) {
		locationRows, err = s.gateway.Rows(gctx, SheetLocations)
		return err
	})
	g.Go(func() (err error) {
		typeRows, err = s.gateway.Rows(gctx, SheetTypes)
		return err
	})
	g.Go(func() (err error) {
		articleRows, err = s.gateway.Rows(gctx, SheetArticles)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	locationNames := referenceMap(locationRows)
	articleNames := referenceMap(articleRows)
	typeNames := make(map[string]string)
	for _, t := range movementTypesFromRows(typeRows) {
		typeNames[t.ID] = t.Name
	}

	dateFrom, dateTo, err := parseDateRange(query.DateFrom, query.DateTo)
	if err != nil {
		return nil, err
	}

	movements := make([]Movement, 0, len(transactionRows))
	for _, row := range transactionRows {
		m := Movement{
			EmployeeID:     row.GetTrimmed(colEmployeeID),
			Timestamp:      row.GetTrimmed(colTimestamp),
			LocationID:     row.GetTrimmed(colLocationID),
			TypeID:         row.GetTrimmed(colTypeID),
			ArticleID:      row.GetTrimmed(colArticleID),
			Quantity:       row.GetTrimmed(colQuantity),
			ResultingStock: row.GetTrimmed(colResultingStock),
			Note:           row.GetTrimmed(colNote),
		}
		if m.EmployeeID == "" && m.Timestamp == "" && m.ArticleID == "" {
			continue
		}
		m.Location = locationNames[m.LocationID]
		m.Type = typeNames[m.TypeID]
		m.Article = articleNames[m.ArticleID]
		m.parsedAt, _ = ParseTimestamp(m.Timestamp)

		if !matchesMovement(m, query, dateFrom, dateTo) {
			continue
		}
		movements = append(movements, m)
	}

	// Newest first; rows with unparseable timestamps keep their sheet
	// order at the end.
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].parsedAt.After(movements[j].parsedAt)
	})

	page, limit := normalizePaging(query.Page, query.Limit)
	total := len(movements)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &MovementList{
		Movements: movements[start:end],
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalRows:  total,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

func matchesMovement(m Movement, query MovementQuery, dateFrom, dateTo time.Time) bool {
	if query.LocationID != "" && m.LocationID != query.LocationID {
		return false
	}
	if query.TypeID != "" && m.TypeID != query.TypeID {
		return false
	}
	if query.ArticleID != "" && m.ArticleID != query.ArticleID {
		return false
	}
	if !dateFrom.IsZero() || !dateTo.IsZero() {
		if m.parsedAt.IsZero() {
			return false
		}
		if !dateFrom.IsZero() && m.parsedAt.Before(dateFrom) {
			return false
		}
		if !dateTo.IsZero() && !m.parsedAt.Before(dateTo) {
			return false
		}
	}
	return true
}

// parseDateRange turns the yyyy-mm-dd filter bounds into an inclusive range:
// dateTo is pushed to the start of the following day and compared exclusive.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var dateFrom, dateTo time.Time
	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, internal.NewValidationError(
				fmt.Sprintf("Ungültiges Datum %q (erwartet JJJJ-MM-TT)", from), internal.ErrCodeValidationFailed)
		}
		dateFrom = parsed
	}
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, internal.NewValidationError(
				fmt.Sprintf("Ungültiges Datum %q (erwartet JJJJ-MM-TT)", to), internal.ErrCodeValidationFailed)
		}
		dateTo = parsed.AddDate(0, 0, 1)
	}
	return dateFrom, dateTo, nil
}

func referenceMap(rows []sheets.Row) map[string]string {
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		if id := row.GetTrimmed(colLookupID); id != "" {
			names[id] = row.GetTrimmed(colLookupName)
		}
	}
	return names
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func atoiOrZero(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
