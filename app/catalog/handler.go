package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    *Category `json:"category,omitempty"`
}

type ProductProvider interface {
	GetFilteredProducts(offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	CreateProduct(product *models.Product) error
	UpdateProduct(product *models.Product) error
	DeleteProduct(id uint) error
}

type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func toProduct(p *models.Product) Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
	}
	if p.Category != nil {
		out.Category = &Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	return out
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	filters := models.ProductFilters{
		Search:   r.URL.Query().Get("search"),
		LowStock: r.URL.Query().Get("low_stock") == "true",
	}
	if cStr := r.URL.Query().Get("category"); cStr != "" {
		if c, err := strconv.ParseUint(cStr, 10, 64); err == nil {
			filters.CategoryID = uint(c)
		}
	}

	res, total, err := h.repo.GetFilteredProducts(offset, limit, filters)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}

	api.Respond(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.Error(w, http.StatusNotFound, "Product not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	api.Respond(w, http.StatusOK, toProduct(product))
}

type productInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock"`
	Image       string          `json:"image"`
	CategoryID  *uint           `json:"category_id"`
}

// HandleCreate serves POST /catalog (admin).
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Name == "" || input.Stock == nil {
		api.Error(w, http.StatusBadRequest, "name, price and stock are required")
		return
	}
	if *input.Stock < 0 || input.Price.IsNegative() {
		api.Error(w, http.StatusBadRequest, "stock and price must not be negative")
		return
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       *input.Stock,
		Image:       input.Image,
		CategoryID:  input.CategoryID,
	}
	if err := h.repo.CreateProduct(product); err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	api.Respond(w, http.StatusCreated, toProduct(product))
}

// HandleUpdate serves PUT /catalog/{id} (admin).
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Name == "" || input.Stock == nil {
		api.Error(w, http.StatusBadRequest, "name, price and stock are required")
		return
	}
	if *input.Stock < 0 || input.Price.IsNegative() {
		api.Error(w, http.StatusBadRequest, "stock and price must not be negative")
		return
	}

	product := &models.Product{
		ID:          uint(id),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       *input.Stock,
		Image:       input.Image,
		CategoryID:  input.CategoryID,
	}
	if err := h.repo.UpdateProduct(product); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.Error(w, http.StatusNotFound, "Product not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	api.Respond(w, http.StatusOK, toProduct(product))
}

// HandleDelete serves DELETE /catalog/{id} (admin). Products referenced
// by existing order lines cannot be deleted.
func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.repo.DeleteProduct(uint(id)); err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			api.Error(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, models.ErrProductInUse):
			api.Error(w, http.StatusConflict, "product is referenced by existing orders")
		default:
			api.Error(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	api.Respond(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
