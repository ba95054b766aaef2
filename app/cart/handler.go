package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/app/auth"
	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

type CartService interface {
	Get(userID uint) (*View, error)
	Add(userID, productID uint, quantity int) error
	UpdateQuantity(userID, productID uint, quantity int) (UpdateResult, error)
	Remove(userID, productID uint) error
	Clear(userID uint) error
}

type Handler struct {
	service CartService
	log     *zap.Logger
}

func NewHandler(service CartService, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func principalOr401(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "login required")
	}
	return principal, ok
}

func productIDFromPath(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("productId"), 10, 64)
	return uint(id), err
}

// HandleGet serves GET /cart.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(principal.UserID)
	if err != nil {
		h.log.Error("failed to load cart", zap.Uint("user_id", principal.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	api.Respond(w, http.StatusOK, view)
}

// HandleAdd serves POST /cart/items.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	var input struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.ProductID == 0 {
		api.Error(w, http.StatusBadRequest, "product_id is required")
		return
	}

	err := h.service.Add(principal.UserID, input.ProductID, input.Quantity)
	if err != nil {
		var exceedsErr *QuantityExceedsStockError
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			api.Error(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrOutOfStock):
			api.Error(w, http.StatusConflict, ErrOutOfStock.Error())
		case errors.As(err, &exceedsErr):
			api.Error(w, http.StatusConflict, exceedsErr.Error())
		default:
			h.log.Error("failed to add to cart", zap.Uint("user_id", principal.UserID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to add item")
		}
		return
	}

	api.Respond(w, http.StatusOK, map[string]string{"message": "added to cart"})
}

// HandleUpdateQuantity serves PUT /cart/items/{productId}. A quantity
// above stock is clamped, not rejected; the response carries a warning
// in that case.
func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	productID, err := productIDFromPath(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.service.UpdateQuantity(principal.UserID, productID, input.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound), errors.Is(err, storage.ErrCartItemNotFound):
			api.Error(w, http.StatusNotFound, "item not in cart")
		case errors.Is(err, ErrOutOfStock):
			api.Error(w, http.StatusConflict, ErrOutOfStock.Error())
		default:
			h.log.Error("failed to update cart", zap.Uint("user_id", principal.UserID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to update item")
		}
		return
	}

	resp := map[string]any{
		"quantity": result.Quantity,
		"removed":  result.Removed,
	}
	if result.Clamped {
		resp["warning"] = "quantity reduced to available stock"
	}
	api.Respond(w, http.StatusOK, resp)
}

// HandleRemove serves DELETE /cart/items/{productId}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	productID, err := productIDFromPath(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.Remove(principal.UserID, productID); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			api.Error(w, http.StatusNotFound, "item not in cart")
			return
		}
		h.log.Error("failed to remove cart item", zap.Uint("user_id", principal.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	api.Respond(w, http.StatusOK, map[string]string{"message": "removed from cart"})
}

// HandleClear serves DELETE /cart.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(principal.UserID); err != nil {
		h.log.Error("failed to clear cart", zap.Uint("user_id", principal.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	api.Respond(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
