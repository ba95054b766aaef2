package dashboard

import (
	"net/http"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/models"
)

type StatsProvider interface {
	GetStats() (*models.Stats, error)
	GetLowStockProducts(limit int) ([]models.Product, error)
}

type Handler struct {
	stats StatsProvider
}

func NewHandler(stats StatsProvider) *Handler {
	return &Handler{stats: stats}
}

type lowStockProduct struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// HandleGet serves GET /admin/dashboard.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats()
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	lowStock, err := h.stats.GetLowStockProducts(5)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	products := make([]lowStockProduct, len(lowStock))
	for i, p := range lowStock {
		products[i] = lowStockProduct{ID: p.ID, Name: p.Name, Stock: p.Stock}
	}

	api.Respond(w, http.StatusOK, map[string]any{
		"stats":     stats,
		"low_stock": products,
	})
}
