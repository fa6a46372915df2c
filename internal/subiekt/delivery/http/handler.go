package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/subiekt/domain"
	"github.com/regalator/wms/internal/subiekt/usecase"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// SubiektHandler exposes read-only browsing of the ERP mirror and the
// product import endpoint
type SubiektHandler struct {
	adapter  domain.Adapter
	importer *usecase.Importer
}

func NewSubiektHandler(adapter domain.Adapter, importer *usecase.Importer) *SubiektHandler {
	return &SubiektHandler{adapter: adapter, importer: importer}
}

// RegisterRoutes registers Subiekt routes
func (h *SubiektHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/subiekt/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/api/subiekt/documents", h.ListDocuments).Methods("GET")
	router.HandleFunc("/api/subiekt/documents/{id}/positions", h.ListPositions).Methods("GET")
	router.HandleFunc("/api/subiekt/products/{id}/import", h.ImportProduct).Methods("POST")
}

// ListProducts handles GET /api/subiekt/products
func (h *SubiektHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.adapter.ListProductsWithStock(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		h.respondAdapterError(w, r, err, "Failed to list Subiekt products")
		return
	}

	httpx.RespondData(w, http.StatusOK, products)
}

// ListDocuments handles GET /api/subiekt/documents
func (h *SubiektHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docType, _ := strconv.Atoi(r.URL.Query().Get("type"))
	if docType == 0 {
		docType = domain.DocTypeCustomerOrder
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	documents, err := h.adapter.ListDocuments(r.Context(), docType, limit)
	if err != nil {
		h.respondAdapterError(w, r, err, "Failed to list Subiekt documents")
		return
	}

	httpx.RespondData(w, http.StatusOK, documents)
}

// ListPositions handles GET /api/subiekt/documents/{id}/positions
func (h *SubiektHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	positions, err := h.adapter.GetDocumentPositions(r.Context(), id)
	if err != nil {
		h.respondAdapterError(w, r, err, "Failed to list document positions")
		return
	}

	httpx.RespondData(w, http.StatusOK, positions)
}

// ImportProduct handles POST /api/subiekt/products/{id}/import
func (h *SubiektHandler) ImportProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.importer.GetOrCreateProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Product not found in Subiekt")
			return
		}
		h.respondAdapterError(w, r, err, "Failed to import product")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: true,
		Message: "Product imported",
		Data:    product,
	})
}

func (h *SubiektHandler) respondAdapterError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, domain.ErrUnavailable) {
		httpx.RespondError(w, http.StatusServiceUnavailable, "Subiekt is unavailable")
		return
	}
	logger.Error(r.Context()).Err(err).Msg(message)
	httpx.RespondError(w, http.StatusInternalServerError, message)
}
