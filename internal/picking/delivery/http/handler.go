package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/regalator/wms/internal/picking/domain"
	"github.com/regalator/wms/internal/picking/usecase"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"

	operatorhttp "github.com/regalator/wms/internal/operator/delivery/http"
)

// PickingHandler handles HTTP requests for picking orders
type PickingHandler struct {
	engine *usecase.Engine
	repo   domain.PickingRepository

	scanCounter  *prometheus.CounterVec
	scanLatency  *prometheus.HistogramVec
	activeOrders prometheus.Gauge
}

// NewPickingHandler creates a new picking handler
func NewPickingHandler(engine *usecase.Engine, repo domain.PickingRepository) *PickingHandler {
	scanCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picking_scan_events_total",
			Help: "Total number of picking scan events",
		},
		[]string{"result"},
	)
	scanLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picking_scan_duration_seconds",
			Help:    "Picking scan event processing duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	activeOrders := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "picking_orders_active",
			Help: "Number of picking orders currently pending or in progress",
		},
	)

	prometheus.MustRegister(scanCounter)
	prometheus.MustRegister(scanLatency)
	prometheus.MustRegister(activeOrders)

	return &PickingHandler{
		engine:       engine,
		repo:         repo,
		scanCounter:  scanCounter,
		scanLatency:  scanLatency,
		activeOrders: activeOrders,
	}
}

// RegisterRoutes registers picking routes
func (h *PickingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/picking", h.List).Methods("GET")
	router.HandleFunc("/api/picking", h.Create).Methods("POST")
	router.HandleFunc("/api/picking/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/picking/{id}/start", h.Start).Methods("POST")
	router.HandleFunc("/api/picking/{id}/submit", h.Submit).Methods("POST")
	router.HandleFunc("/api/picking/{id}/items/{itemId}/reverse", h.Reverse).Methods("POST")
}

// List handles GET /api/picking
func (h *PickingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.repo.FindAll(r.Context(), domain.PickingOrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list picking orders")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list picking orders")
		return
	}

	active := 0
	for _, order := range orders {
		if order.IsActive() {
			active++
		}
	}
	h.activeOrders.Set(float64(active))

	httpx.RespondData(w, http.StatusOK, orders)
}

// Create handles POST /api/picking
func (h *PickingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerOrderID uint `json:"customer_order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerOrderID == 0 {
		httpx.RespondError(w, http.StatusBadRequest, "customer_order_id is required")
		return
	}

	order, err := h.engine.CreateFromCustomerOrder(r.Context(), req.CustomerOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrActiveOrderExists) {
			httpx.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to create picking order")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create picking order")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Picking order created",
		Data:    order,
	})
}

// Get handles GET /api/picking/{id}
func (h *PickingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.repo.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Picking order not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}

// Start handles POST /api/picking/{id}/start
func (h *PickingHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.engine.Start(r.Context(), uint(id), operatorhttp.OperatorIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Picking order not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to start picking order")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to start picking order")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}

// Submit handles POST /api/picking/{id}/submit. Accepts the scanner form
// fields: location_code, product_code, quantity, picking_item_id, action,
// mode.
func (h *PickingHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	itemID, _ := strconv.ParseUint(r.PostFormValue("picking_item_id"), 10, 32)
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
			httpx.RespondError(w, http.StatusNotFound, "Picking order not found")
			return
		}
		h.observeScan("failure", start)
		logger.Error(r.Context()).Err(err).Msg("Picking scan failed")
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

// Reverse handles POST /api/picking/{id}/items/{itemId}/reverse
func (h *PickingHandler) Reverse(w http.ResponseWriter, r *http.Request) {
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
			httpx.RespondError(w, http.StatusNotFound, "Picking item not found")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to reverse picking item")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to reverse picking item")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, httpx.Response{
		Success: true,
		Message: result.Feedback.Message,
		Data:    result,
	})
}

func (h *PickingHandler) observeScan(result string, start time.Time) {
	h.scanCounter.WithLabelValues(result).Inc()
	h.scanLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
