package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/inventory/domain"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// StockHandler handles HTTP requests for the stock ledger
type StockHandler struct {
	repo domain.StockRepository
}

func NewStockHandler(repo domain.StockRepository) *StockHandler {
	return &StockHandler{repo: repo}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stocks", h.List).Methods("GET")
	router.HandleFunc("/api/stocks/product/{id}", h.ByProduct).Methods("GET")
}

// List handles GET /api/stocks
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseUint(r.URL.Query().Get("product_id"), 10, 32)
	locationID, _ := strconv.ParseUint(r.URL.Query().Get("location_id"), 10, 32)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	stocks, err := h.repo.FindAll(r.Context(), domain.StockFilter{
		ProductID:  uint(productID),
		LocationID: uint(locationID),
		NonZero:    r.URL.Query().Get("non_zero") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list stocks")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list stocks")
		return
	}

	httpx.RespondData(w, http.StatusOK, stocks)
}

// ByProduct handles GET /api/stocks/product/{id}
func (h *StockHandler) ByProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	stocks, err := h.repo.FindAll(r.Context(), domain.StockFilter{ProductID: uint(id), NonZero: true})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list product stocks")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list product stocks")
		return
	}

	httpx.RespondData(w, http.StatusOK, stocks)
}
