package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakline/storefront/models"
)

// --- Mock User Store ---

type MockUserStore struct {
	Users     []models.User
	CreateErr error

	lastCreated *models.User
}

func (m *MockUserStore) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.Users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserStore) CreateUser(user *models.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	user.ID = uint(len(m.Users) + 1)
	m.lastCreated = user
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestHandler(store *MockUserStore) *Handler {
	return NewHandler(store, NewTokenManager("test-secret", time.Hour))
}

// --- Tests ---

func TestHandleRegister(t *testing.T) {
	t.Run("creates the user with a hashed password", func(t *testing.T) {
		store := &MockUserStore{}
		rec := httptest.NewRecorder()
		body := `{"username":"ana","email":"ana@example.com","password":"s3cret"}`

		newTestHandler(store).HandleRegister(rec, httptest.NewRequest("POST", "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, store.lastCreated)
		assert.Equal(t, "ana", store.lastCreated.Username)
		assert.Equal(t, models.RoleUser, store.lastCreated.Role)
		assert.NotEqual(t, "s3cret", store.lastCreated.Password, "password must be hashed")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.lastCreated.Password), []byte("s3cret")))

		var resp map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ana", resp["username"])
		assert.NotContains(t, resp, "password")
	})

	t.Run("duplicate user", func(t *testing.T) {
		store := &MockUserStore{CreateErr: models.ErrUserExists}
		rec := httptest.NewRecorder()
		body := `{"username":"ana","email":"ana@example.com","password":"s3cret"}`

		newTestHandler(store).HandleRegister(rec, httptest.NewRequest("POST", "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []string{
			`{"email":"ana@example.com","password":"s3cret"}`,
			`{"username":"ana","password":"s3cret"}`,
			`{"username":"ana","email":"ana@example.com"}`,
			`{"username":"  ","email":"ana@example.com","password":"s3cret"}`,
		} {
			store := &MockUserStore{}
			rec := httptest.NewRecorder()

			newTestHandler(store).HandleRegister(rec, httptest.NewRequest("POST", "/auth/register", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
			assert.Nil(t, store.lastCreated)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestHandler(&MockUserStore{}).HandleRegister(rec, httptest.NewRequest("POST", "/auth/register", strings.NewReader(`{"username":`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	existing := models.User{
		ID:       3,
		Username: "ana",
		Email:    "ana@example.com",
		Role:     models.RoleUser,
	}

	t.Run("returns a verifiable token", func(t *testing.T) {
		user := existing
		user.Password = hashOf(t, "s3cret")
		store := &MockUserStore{Users: []models.User{user}}
		tokens := NewTokenManager("test-secret", time.Hour)
		handler := NewHandler(store, tokens)
		rec := httptest.NewRecorder()
		body := `{"email":"ana@example.com","password":"s3cret"}`

		handler.HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Token string `json:"token"`
			User  struct {
				ID   uint   `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, uint(3), resp.User.ID)

		principal, err := tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, uint(3), principal.UserID)
		assert.Equal(t, models.RoleUser, principal.Role)
	})

	t.Run("unknown email and wrong password give the same answer", func(t *testing.T) {
		user := existing
		user.Password = hashOf(t, "s3cret")
		store := &MockUserStore{Users: []models.User{user}}
		handler := newTestHandler(store)

		bodies := []string{
			`{"email":"nobody@example.com","password":"s3cret"}`,
			`{"email":"ana@example.com","password":"wrong"}`,
		}
		var messages []string
		for _, body := range bodies {
			rec := httptest.NewRecorder()
			handler.HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var errResp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
			messages = append(messages, errResp["error"])
		}
		assert.Equal(t, messages[0], messages[1], "responses must not reveal which part failed")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestHandler(&MockUserStore{}).HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
