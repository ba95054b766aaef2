package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/app/auth"
)

type OrderPlacer interface {
	PlaceOrder(userID uint, info ShippingInfo) (uint, error)
}

type Handler struct {
	placer OrderPlacer
	log    *zap.Logger
}

func NewHandler(placer OrderPlacer, log *zap.Logger) *Handler {
	return &Handler{placer: placer, log: log}
}

// HandlePlaceOrder serves POST /checkout/place-order.
func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "login required")
		return
	}

	var info ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	orderID, err := h.placer.PlaceOrder(principal.UserID, info)
	if err != nil {
		var verr *ValidationError
		var stockErr *InsufficientStockError
		switch {
		case errors.As(err, &verr):
			api.Error(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, ErrEmptyCart):
			api.Error(w, http.StatusBadRequest, ErrEmptyCart.Error())
		case errors.As(err, &stockErr):
			api.Error(w, http.StatusConflict, stockErr.Error())
		default:
			h.log.Error("order placement failed",
				zap.Uint("user_id", principal.UserID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "could not place order, please try again")
		}
		return
	}

	api.Respond(w, http.StatusCreated, map[string]uint{"order_id": orderID})
}
