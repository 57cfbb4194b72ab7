package inventory

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// GetItems godoc
// @Summary Artikelliste mit Bestandsstatus
// @Tags inventory
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/inventory/items [get]
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	items, err := h.service.ListItems(r.Context(), user.EmployeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   items,
	})
}

// CreateItem godoc
// @Summary Neuen Artikel anlegen
// @Tags inventory
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /api/inventory/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	var dto CreateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Ungültiger Request-Body")
		return
	}

	id, err := h.service.CreateItem(r.Context(), user.EmployeeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// GetCategories godoc
// @Summary Kategorien
// @Tags inventory
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/inventory/categories [get]
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	categories, err := h.service.ListCategories(r.Context(), user.EmployeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categories,
	})
}

// GetReferences godoc
// @Summary Stammdaten für das Buchungsformular
// @Tags inventory
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/inventory/references [get]
func (h *Handler) GetReferences(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	refs, err := h.service.ListReferences(r.Context(), user.EmployeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"references": refs,
	})
}

// CreateMovement godoc
// @Summary Lagerbewegung buchen
// @Tags inventory
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /api/inventory/movements [post]
func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	var dto CreateMovementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Ungültiger Request-Body")
		return
	}

	message, err := h.service.CreateMovement(r.Context(), user.EmployeeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// GetMovements godoc
// @Summary Bewegungshistorie
// @Tags inventory
// @Produce json
// @Param location query string false "Lagerort ID"
// @Param type query string false "Typ ID"
// @Param article query string false "Artikel ID"
// @Param dateFrom query string false "JJJJ-MM-TT"
// @Param dateTo query string false "JJJJ-MM-TT"
// @Param page query int false "Seite"
// @Param limit query int false "Einträge pro Seite"
// @Success 200 {object} map[string]interface{}
// @Router /api/inventory/movements [get]
func (h *Handler) GetMovements(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	q := r.URL.Query()
	query := MovementQuery{
		LocationID: q.Get("location"),
		TypeID:     q.Get("type"),
		ArticleID:  q.Get("article"),
		DateFrom:   q.Get("dateFrom"),
		DateTo:     q.Get("dateTo"),
		Page:       intParam(q.Get("page")),
		Limit:      intParam(q.Get("limit")),
	}

	list, err := h.service.ListMovements(r.Context(), user.EmployeeID, query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"movements":  list.Movements,
		"pagination": list.Pagination,
	})
}

// GetStock godoc
// @Summary Bestandsbericht eines Lagerorts
// @Tags inventory
// @Produce json
// @Param location query string false "Lagerort ID (Standard L00)"
// @Param article query string false "Artikelfilter"
// @Param page query int false "Seite"
// @Param limit query int false "Einträge pro Seite"
// @Success 200 {object} map[string]interface{}
// @Router /api/inventory/stock [get]
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	q := r.URL.Query()
	query := StockQuery{
		Location: q.Get("location"),
		Article:  q.Get("article"),
		Page:     intParam(q.Get("page")),
		Limit:    intParam(q.Get("limit")),
	}

	report, err := h.service.StockReport(r.Context(), user.EmployeeID, query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"location":   report.Location,
		"headers":    report.Headers,
		"items":      report.Items,
		"pagination": report.Pagination,
	})
}

func intParam(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
