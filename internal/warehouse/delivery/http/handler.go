package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/warehouse/domain"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// LocationHandler handles HTTP requests for warehouse locations
type LocationHandler struct {
	repo domain.LocationRepository
}

func NewLocationHandler(repo domain.LocationRepository) *LocationHandler {
	return &LocationHandler{repo: repo}
}

// RegisterRoutes registers location routes
func (h *LocationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/locations", h.List).Methods("GET")
	router.HandleFunc("/api/locations", h.Create).Methods("POST")
	router.HandleFunc("/api/locations/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/locations/{id}", h.Update).Methods("PUT")
	router.HandleFunc("/api/locations/lookup/{value}", h.Lookup).Methods("GET")
}

// List handles GET /api/locations
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	locations, err := h.repo.FindAll(r.Context(), domain.LocationFilter{
		Search: r.URL.Query().Get("search"),
		Type:   r.URL.Query().Get("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list locations")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list locations")
		return
	}

	httpx.RespondData(w, http.StatusOK, locations)
}

// Create handles POST /api/locations
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var location domain.Location
	if err := json.NewDecoder(r.Body).Decode(&location); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if location.Code == "" || location.Barcode == "" {
		httpx.RespondError(w, http.StatusBadRequest, "Code and barcode are required")
		return
	}
	if location.Type == "" {
		location.Type = domain.TypeShelf
	}
	location.IsActive = true

	if err := h.repo.Create(r.Context(), &location); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create location")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create location")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Location created",
		Data:    location,
	})
}

// Get handles GET /api/locations/{id}
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	location, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Location not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, location)
}

// Update handles PUT /api/locations/{id}
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	location, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Location not found")
		return
	}

	var req domain.Location
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	location.Code = req.Code
	location.Name = req.Name
	location.Type = req.Type
	location.Barcode = req.Barcode
	location.ParentID = req.ParentID
	location.Description = req.Description

	if err := h.repo.Update(r.Context(), location); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to update location")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to update location")
		return
	}

	httpx.RespondData(w, http.StatusOK, location)
}

// Lookup handles GET /api/locations/lookup/{value}
func (h *LocationHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	location, err := h.repo.FindByBarcodeOrName(r.Context(), mux.Vars(r)["value"])
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Location not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, location)
}
