package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/catalog/domain"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// CatalogHandler handles HTTP requests for products and groups
type CatalogHandler struct {
	repo domain.ProductRepository
}

func NewCatalogHandler(repo domain.ProductRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/products", h.List).Methods("GET")
	router.HandleFunc("/api/products", h.Create).Methods("POST")
	router.HandleFunc("/api/products/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/products/{id}", h.Update).Methods("PUT")
	router.HandleFunc("/api/products/lookup/{code}", h.Lookup).Methods("GET")
	router.HandleFunc("/api/product-groups", h.ListGroups).Methods("GET")
}

// List handles GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	groupID, _ := strconv.Atoi(r.URL.Query().Get("group"))

	products, err := h.repo.FindAll(r.Context(), domain.ProductFilter{
		Search:  r.URL.Query().Get("search"),
		GroupID: uint(groupID),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list products")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	httpx.RespondData(w, http.StatusOK, products)
}

// Create handles POST /api/products
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if product.Code == "" || product.Name == "" || product.Barcode == "" {
		httpx.RespondError(w, http.StatusBadRequest, "Code, name and barcode are required")
		return
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create product")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Product created",
		Data:    product,
	})
}

// Get handles GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, product)
}

// Update handles PUT /api/products/{id}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	var req domain.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product.Code = req.Code
	product.Name = req.Name
	product.Description = req.Description
	product.Barcode = req.Barcode
	product.Unit = req.Unit
	product.ParentID = req.ParentID

	if err := h.repo.Update(r.Context(), product); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to update product")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to update product")
		return
	}

	httpx.RespondData(w, http.StatusOK, product)
}

// Lookup handles GET /api/products/lookup/{code} using the scanner resolution chain.
func (h *CatalogHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	product, err := h.repo.FindByCode(r.Context(), code)
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, product)
}

// ListGroups handles GET /api/product-groups
func (h *CatalogHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repo.FindGroups(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list product groups")
		return
	}

	httpx.RespondData(w, http.StatusOK, groups)
}
