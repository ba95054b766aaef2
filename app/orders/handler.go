package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/app/auth"
	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

type OrderProvider interface {
	OrderWithDetails(orderID uint) (*models.Order, error)
	OrdersForUser(userID uint) ([]models.Order, error)
	AllOrders() ([]models.Order, error)
}

type StatusUpdater interface {
	UpdateStatus(orderID uint, newStatus models.OrderStatus) error
}

type Handler struct {
	provider  OrderProvider
	lifecycle StatusUpdater
	log       *zap.Logger
}

func NewHandler(provider OrderProvider, lifecycle StatusUpdater, log *zap.Logger) *Handler {
	return &Handler{provider: provider, lifecycle: lifecycle, log: log}
}

type LineResponse struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderResponse struct {
	ID               uint               `json:"id"`
	OrderDate        time.Time          `json:"order_date"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	Status           models.OrderStatus `json:"status"`
	ShippingAddress  string             `json:"shipping_address"`
	City             string             `json:"city"`
	PostalCode       string             `json:"postal_code"`
	Country          string             `json:"country"`
	PaymentMethod    string             `json:"payment_method"`
	DeliveryLocation string             `json:"location,omitempty"`
	Details          []LineResponse     `json:"details"`
}

func toResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID,
		OrderDate:        order.OrderDate,
		TotalAmount:      order.TotalAmount,
		Status:           order.Status,
		ShippingAddress:  order.ShippingAddress,
		City:             order.City,
		PostalCode:       order.PostalCode,
		Country:          order.Country,
		PaymentMethod:    order.PaymentMethod,
		DeliveryLocation: order.DeliveryLocation,
		Details:          make([]LineResponse, len(order.Details)),
	}
	for i, detail := range order.Details {
		resp.Details[i] = LineResponse{
			ProductID: detail.ProductID,
			Quantity:  detail.Quantity,
			Price:     detail.Price,
		}
		if detail.Product != nil {
			resp.Details[i].Name = detail.Product.Name
		}
	}
	return resp
}

// HandleList serves GET /orders: the caller's own orders, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "login required")
		return
	}

	orders, err := h.provider.OrdersForUser(principal.UserID)
	if err != nil {
		h.log.Error("failed to list orders", zap.Uint("user_id", principal.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = toResponse(&orders[i])
	}
	api.Respond(w, http.StatusOK, resp)
}

// HandleGet serves GET /orders/{orderId}, scoped to the owner. Admins can
// read any order.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "login required")
		return
	}

	orderID, err := strconv.ParseUint(r.PathValue("orderId"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.provider.OrderWithDetails(uint(orderID))
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			api.Error(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("failed to fetch order", zap.Uint64("order_id", orderID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	if order.UserID != principal.UserID && !principal.IsAdmin() {
		api.Error(w, http.StatusNotFound, "order not found")
		return
	}

	api.Respond(w, http.StatusOK, toResponse(order))
}

// HandleAdminList serves GET /admin/orders.
func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.provider.AllOrders()
	if err != nil {
		h.log.Error("failed to list all orders", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = toResponse(&orders[i])
	}
	api.Respond(w, http.StatusOK, resp)
}

// HandleUpdateStatus serves POST /admin/orders/{orderId}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(r.PathValue("orderId"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var input struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.lifecycle.UpdateStatus(uint(orderID), input.Status); err != nil {
		var reactErr *ReactivationStockError
		switch {
		case errors.Is(err, ErrUnknownStatus):
			api.Error(w, http.StatusBadRequest, ErrUnknownStatus.Error())
		case errors.Is(err, storage.ErrOrderNotFound):
			api.Error(w, http.StatusNotFound, "order not found")
		case errors.As(err, &reactErr):
			api.Error(w, http.StatusConflict, reactErr.Error())
		default:
			h.log.Error("status update failed", zap.Uint64("order_id", orderID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to update order")
		}
		return
	}

	api.Respond(w, http.StatusOK, map[string]string{
		"message": "order status updated",
	})
}
