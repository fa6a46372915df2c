package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/regalator/wms/internal/receiving/domain"
	"github.com/regalator/wms/internal/receiving/usecase"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"

	operatorhttp "github.com/regalator/wms/internal/operator/delivery/http"
)

// ReceivingHandler handles HTTP requests for receiving orders
type ReceivingHandler struct {
	engine *usecase.Engine
	repo   domain.ReceivingRepository

	scanCounter *prometheus.CounterVec
	scanLatency *prometheus.HistogramVec
}

// NewReceivingHandler creates a new receiving handler
func NewReceivingHandler(engine *usecase.Engine, repo domain.ReceivingRepository) *ReceivingHandler {
	scanCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiving_scan_events_total",
			Help: "Total number of receiving scan events",
		},
		[]string{"result"},
	)
	scanLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "receiving_scan_duration_seconds",
			Help:    "Receiving scan event processing duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	prometheus.MustRegister(scanCounter)
	prometheus.MustRegister(scanLatency)

	return &ReceivingHandler{
		engine:      engine,
		repo:        repo,
		scanCounter: scanCounter,
		scanLatency: scanLatency,
	}
}

// RegisterRoutes registers receiving routes
func (h *ReceivingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/receiving", h.List).Methods("GET")
	router.HandleFunc("/api/receiving", h.Create).Methods("POST")
	router.HandleFunc("/api/receiving/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/receiving/{id}/start", h.Start).Methods("POST")
	router.HandleFunc("/api/receiving/{id}/submit", h.Submit).Methods("POST")
	router.HandleFunc("/api/receiving/{id}/complete", h.Complete).Methods("POST")
	router.HandleFunc("/api/receiving/{id}/items/{itemId}/reverse", h.Reverse).Methods("POST")
}

// List handles GET /api/receiving
func (h *ReceivingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.repo.FindAll(r.Context(), domain.ReceivingOrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list receiving orders")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list receiving orders")
		return
	}

	httpx.RespondData(w, http.StatusOK, orders)
}

// Create handles POST /api/receiving
func (h *ReceivingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupplierOrderID uint `json:"supplier_order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SupplierOrderID == 0 {
		httpx.RespondError(w, http.StatusBadRequest, "supplier_order_id is required")
		return
	}

	order, err := h.engine.CreateFromSupplierOrder(r.Context(), req.SupplierOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrActiveOrderExists) {
			httpx.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to create receiving order")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create receiving order")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Receiving order created",
		Data:    order,
	})
}

// Get handles GET /api/receiving/{id}
func (h *ReceivingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Receiving order not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}

// Start handles POST /api/receiving/{id}/start
func (h *ReceivingHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.engine.Start(r.Context(), uint(id), operatorhttp.OperatorIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Receiving order not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to start receiving order")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to start receiving order")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}

// Submit handles POST /api/receiving/{id}/submit. Accepts the scanner form
// fields: location_code, product_code, quantity, receiving_item_id, action,
// mode.
func (h *ReceivingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	itemID, _ := strconv.ParseUint(r.PostFormValue("receiving_item_id"), 10, 32)
	event := usecase.ScanEvent{
		OrderID:      uint(id),
		OperatorID:   operatorhttp.OperatorIDFromContext(r.Context()),
		LocationCode: r.PostFormValue("location_code"),
		ProductCode:  r.PostFormValue("product_code"),
		Quantity:     r.PostFormValue("quantity"),
		ItemID:       uint(itemID),
		Action:       r.PostFormValue("action"),
		Mode:         r.PostFormValue("mode"),
	}

	result, err := h.engine.Submit(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Receiving order not found")
			return
		}
		h.observeScan("failure", start)
		logger.Error(r.Context()).Err(err).Msg("Receiving scan failed")
		httpx.RespondError(w, http.StatusInternalServerError, "Scan failed, please retry")
		return
	}

	h.observeScan(result.Feedback.Severity, start)
	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: result.Feedback.Severity != "error",
		Message: result.Feedback.Message,
		Data:    result,
	})
}

// Complete handles POST /api/receiving/{id}/complete
func (h *ReceivingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.engine.Complete(r.Context(), uint(id), operatorhttp.OperatorIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Receiving order not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to complete receiving order")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to complete receiving order")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: true,
		Message: "Receiving order completed",
		Data:    order,
	})
}

// Reverse handles POST /api/receiving/{id}/items/{itemId}/reverse
func (h *ReceivingHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	itemID, err := strconv.ParseUint(mux.Vars(r)["itemId"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	result, err := h.engine.Reverse(r.Context(), uint(id), uint(itemID), operatorhttp.OperatorIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrOrderNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Receiving item not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to reverse receiving item")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to reverse receiving item")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: true,
		Message: result.Feedback.Message,
		Data:    result,
	})
}

func (h *ReceivingHandler) observeScan(result string, start time.Time) {
	h.scanCounter.WithLabelValues(result).Inc()
	h.scanLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
