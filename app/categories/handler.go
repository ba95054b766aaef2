package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/models"
)

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	DeleteCategory(id uint) error
}

type CategoryHandler struct {
	repo CategoryProvider
}

func NewCategoryHandler(r CategoryProvider) *CategoryHandler {
	return &CategoryHandler{repo: r}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories()
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		}
	}

	api.Respond(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Name == "" {
		api.Error(w, http.StatusBadRequest, "Missing name")
		return
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
	}

	if err := h.repo.CreateCategory(category); err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	api.Respond(w, http.StatusCreated, map[string]string{
		"message": "Category created successfully",
	})
}

func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Name == "" {
		api.Error(w, http.StatusBadRequest, "Missing name")
		return
	}

	category := &models.Category{
		ID:          uint(id),
		Name:        input.Name,
		Description: input.Description,
	}
	if err := h.repo.UpdateCategory(category); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			api.Error(w, http.StatusNotFound, "Category not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	api.Respond(w, http.StatusOK, CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	})
}

func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.repo.DeleteCategory(uint(id)); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			api.Error(w, http.StatusNotFound, "Category not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	api.Respond(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
