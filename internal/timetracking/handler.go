package timetracking

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

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

// CreateEntry godoc
// @Summary Zeiteintrag anlegen
// @Tags time
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /api/time/entry [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	var dto CreateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Ungültiger Request-Body")
		return
	}

	message, err := h.service.CreateEntry(r.Context(), user.EmployeeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// GetLocations godoc
// @Summary Arbeitsstandorte
// @Tags time
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/time/locations [get]
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	locations, err := h.service.ListLocations(r.Context(), user.EmployeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"locations": locations,
	})
}

// GetHistory godoc
// @Summary Zeiteinträge eines Mitarbeiters
// @Tags time
// @Produce json
// @Param employeeId path string true "Mitarbeiter ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/time/history/{employeeId} [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		employeeID = user.EmployeeID
	}

	entries, err := h.service.History(r.Context(), user.EmployeeID, employeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"times":   entries,
	})
}

// DeleteEntries godoc
// @Summary Zeiteinträge löschen
// @Tags time
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/time/entries [delete]
func (h *Handler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Nicht angemeldet")
		return
	}

	var dto DeleteEntriesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Ungültiger Request-Body")
		return
	}

	message, err := h.service.DeleteEntries(r.Context(), user.EmployeeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}
