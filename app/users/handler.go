package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/oakline/storefront/app/api"
	"github.com/oakline/storefront/models"
)

type UserStore interface {
	GetAllUsers() ([]models.User, error)
	GetByID(id uint) (*models.User, error)
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error
}

// Handler is the admin user CRUD surface.
type Handler struct {
	users UserStore
}

func NewHandler(users UserStore) *Handler {
	return &Handler{users: users}
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func toResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers()
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = toResponse(&users[i])
	}
	api.Respond(w, http.StatusOK, response)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.users.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	api.Respond(w, http.StatusOK, toResponse(user))
}

type userInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input userInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		api.Error(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		api.Error(w, http.StatusBadRequest, "invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hash),
		Role:      role,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := h.users.CreateUser(user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			api.Error(w, http.StatusConflict, "username or email already taken")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	api.Respond(w, http.StatusCreated, toResponse(user))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	var input userInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Role != "" {
		if input.Role != models.RoleUser && input.Role != models.RoleAdmin {
			api.Error(w, http.StatusBadRequest, "invalid role")
			return
		}
		user.Role = input.Role
	}
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	// A new password is re-hashed; an absent one keeps the old hash.
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		user.Password = string(hash)
	}

	if err := h.users.UpdateUser(user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			api.Error(w, http.StatusConflict, "username or email already taken")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	api.Respond(w, http.StatusOK, toResponse(user))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.users.DeleteUser(uint(id)); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	api.Respond(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
