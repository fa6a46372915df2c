package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/documents/domain"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// DocumentHandler handles HTTP requests for warehouse documents
type DocumentHandler struct {
	repo domain.DocumentRepository
}

func NewDocumentHandler(repo domain.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{repo: repo}
}

// RegisterRoutes registers document routes
func (h *DocumentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/documents", h.List).Methods("GET")
	router.HandleFunc("/api/documents/{id}", h.Get).Methods("GET")
}

// List handles GET /api/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	documents, err := h.repo.FindAll(r.Context(), domain.DocumentFilter{
		Type:   r.URL.Query().Get("type"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list documents")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	httpx.RespondData(w, http.StatusOK, documents)
}

// Get handles GET /api/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	document, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Document not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, document)
}
