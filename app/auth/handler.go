package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/models"
)

type UserStore interface {
	GetByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
}

type Handler struct {
	users  UserStore
	tokens *TokenManager
}

func NewHandler(users UserStore, tokens *TokenManager) *Handler {
	return &Handler{users: users, tokens: tokens}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	if err := h.users.CreateUser(user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			api.Error(w, http.StatusConflict, "username or email already taken")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to register")
		return
	}

	api.Respond(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.users.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		// Same answer for unknown email and bad password.
		api.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		api.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	api.Respond(w, http.StatusOK, map[string]any{
		"token": token,
		"user": userResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}
