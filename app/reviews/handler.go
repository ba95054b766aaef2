package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/app/auth"
	"github.com/oakline/storefront/models"
)

type ReviewStore interface {
	GetByProduct(productID uint) ([]models.Review, error)
	CreateReview(review *models.Review) error
}

type ProductProvider interface {
	GetByID(id uint) (*models.Product, error)
}

type Handler struct {
	reviews  ReviewStore
	products ProductProvider
}

func NewHandler(reviews ReviewStore, products ProductProvider) *Handler {
	return &Handler{reviews: reviews, products: products}
}

type ReviewResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleList serves GET /products/{id}/reviews.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.reviews.GetByProduct(uint(productID))
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to fetch reviews")
		return
	}

	response := make([]ReviewResponse, len(reviews))
	for i, review := range reviews {
		response[i] = ReviewResponse{
			ID:        review.ID,
			UserID:    review.UserID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt,
		}
	}
	api.Respond(w, http.StatusOK, response)
}

// HandleCreate serves POST /products/{id}/reviews. Rating is bounded
// 1..3 and a comment is required.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "login required")
		return
	}

	productID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if _, err := h.products.GetByID(uint(productID)); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.Error(w, http.StatusNotFound, "product not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Rating < 1 || input.Rating > 3 {
		api.Error(w, http.StatusBadRequest, "rating must be between 1 and 3")
		return
	}
	if strings.TrimSpace(input.Comment) == "" {
		api.Error(w, http.StatusBadRequest, "comment is required")
		return
	}

	review := &models.Review{
		UserID:    principal.UserID,
		ProductID: uint(productID),
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := h.reviews.CreateReview(review); err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	api.Respond(w, http.StatusCreated, ReviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	})
}
