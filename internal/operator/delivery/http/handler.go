package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/regalator/wms/internal/operator/domain"
	"github.com/regalator/wms/pkg/auth"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// OperatorHandler handles operator accounts and login
type OperatorHandler struct {
	repo domain.OperatorRepository
}

func NewOperatorHandler(repo domain.OperatorRepository) *OperatorHandler {
	return &OperatorHandler{repo: repo}
}

// RegisterRoutes registers operator routes
func (h *OperatorHandler) RegisterRoutes(router *mux.Router, protected *mux.Router) {
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	protected.HandleFunc("/api/operators", h.List).Methods("GET")
	protected.HandleFunc("/api/operators", h.Create).Methods("POST")
	protected.HandleFunc("/api/operators/{id}", h.Get).Methods("GET")
}

// Login handles POST /api/auth/login
func (h *OperatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.RespondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	operator, err := h.repo.FindByUsername(r.Context(), req.Username)
	if err != nil {
		httpx.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !operator.IsActive {
		httpx.RespondError(w, http.StatusForbidden, "Account is disabled")
		return
	}
	if !auth.CheckPassword(operator.Password, req.Password) {
		httpx.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(operator.ID, operator.Username, operator.Role)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to generate token")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: true,
		Data: map[string]interface{}{
			"token":    token,
			"operator": operator,
		},
	})
}

// Create handles POST /api/operators
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.RespondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleOperator
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	operator := &domain.Operator{
		Username: req.Username,
		Password: hash,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}
	if err := h.repo.Create(r.Context(), operator); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create operator")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create operator")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Operator created",
		Data:    operator,
	})
}

// Get handles GET /api/operators/{id}
func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}

	operator, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Operator not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, operator)
}

// List handles GET /api/operators
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit == 0 {
		limit = 50
	}

	operators, err := h.repo.FindAll(r.Context(), limit, offset)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list operators")
		return
	}

	httpx.RespondData(w, http.StatusOK, operators)
}
