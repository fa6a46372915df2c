package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/regalator/wms/internal/orders/domain"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

// OrderHandler handles HTTP requests for customer and supplier orders
type OrderHandler struct {
	customers domain.CustomerOrderRepository
	suppliers domain.SupplierOrderRepository
}

func NewOrderHandler(customers domain.CustomerOrderRepository, suppliers domain.SupplierOrderRepository) *OrderHandler {
	return &OrderHandler{customers: customers, suppliers: suppliers}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/customer-orders", h.ListCustomerOrders).Methods("GET")
	router.HandleFunc("/api/customer-orders", h.CreateCustomerOrder).Methods("POST")
	router.HandleFunc("/api/customer-orders/{id}", h.GetCustomerOrder).Methods("GET")
	router.HandleFunc("/api/supplier-orders", h.ListSupplierOrders).Methods("GET")
	router.HandleFunc("/api/supplier-orders", h.CreateSupplierOrder).Methods("POST")
	router.HandleFunc("/api/supplier-orders/{id}", h.GetSupplierOrder).Methods("GET")
}

type orderItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  string `json:"quantity"`
}

type customerOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Notes        string             `json:"notes"`
	Items        []orderItemRequest `json:"items"`
}

// CreateCustomerOrder handles POST /api/customer-orders
func (h *OrderHandler) CreateCustomerOrder(w http.ResponseWriter, r *http.Request) {
	var req customerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CustomerName == "" || len(req.Items) == 0 {
		httpx.RespondError(w, http.StatusBadRequest, "Customer name and items are required")
		return
	}

	order := domain.CustomerOrder{
		CustomerName: req.CustomerName,
		Status:       domain.CustomerStatusNew,
		Notes:        req.Notes,
	}
	for _, item := range req.Items {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || !qty.IsPositive() {
			httpx.RespondError(w, http.StatusBadRequest, "Item quantity must be a positive number")
			return
		}
		order.Items = append(order.Items, domain.CustomerOrderItem{
			ProductID: item.ProductID,
			Quantity:  qty,
		})
	}

	number, err := h.customers.NextOrderNumber(r.Context(), "RegOut")
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to generate order number")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}
	order.OrderNumber = number

	if err := h.customers.Create(r.Context(), &order); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create customer order")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create order")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Customer order created",
		Data:    order,
	})
}

// ListCustomerOrders handles GET /api/customer-orders
func (h *OrderHandler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.customers.FindAll(r.Context(), domain.CustomerOrderFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list customer orders")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	httpx.RespondData(w, http.StatusOK, orders)
}

// GetCustomerOrder handles GET /api/customer-orders/{id}
func (h *OrderHandler) GetCustomerOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.customers.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}

type supplierOrderRequest struct {
	SupplierName         string             `json:"supplier_name"`
	ExpectedDeliveryDate string             `json:"expected_delivery_date"`
	Notes                string             `json:"notes"`
	Items                []orderItemRequest `json:"items"`
}

// CreateSupplierOrder handles POST /api/supplier-orders
func (h *OrderHandler) CreateSupplierOrder(w http.ResponseWriter, r *http.Request) {
	var req supplierOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SupplierName == "" || len(req.Items) == 0 {
		httpx.RespondError(w, http.StatusBadRequest, "Supplier name and items are required")
		return
	}

	order := domain.SupplierOrder{
		SupplierName: req.SupplierName,
		Status:       domain.SupplierStatusPending,
		Notes:        req.Notes,
	}
	for _, item := range req.Items {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || !qty.IsPositive() {
			httpx.RespondError(w, http.StatusBadRequest, "Item quantity must be a positive number")
			return
		}
		order.Items = append(order.Items, domain.SupplierOrderItem{
			ProductID:        item.ProductID,
			OrderedQuantity:  qty,
			ReceivedQuantity: decimal.Zero,
		})
	}

	number, err := h.suppliers.NextOrderNumber(r.Context(), "RegIn")
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to generate order number")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}
	order.OrderNumber = number

	if err := h.suppliers.Create(r.Context(), &order); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create supplier order")
		httpx.RespondError(w, http.StatusBadRequest, "Failed to create order")
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, httpx.Response{
		Success: true,
		Message: "Supplier order created",
		Data:    order,
	})
}

// ListSupplierOrders handles GET /api/supplier-orders
func (h *OrderHandler) ListSupplierOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.suppliers.FindAll(r.Context(), domain.SupplierOrderFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list supplier orders")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	httpx.RespondData(w, http.StatusOK, orders)
}

// GetSupplierOrder handles GET /api/supplier-orders/{id}
func (h *OrderHandler) GetSupplierOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.suppliers.FindByID(r.Context(), uint(id))
	if err != nil {
		httpx.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	httpx.RespondData(w, http.StatusOK, order)
}
