package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakline/storefront/models"
)

// --- Mock Repository ---

type MockCategoryRepo struct {
	Categories []models.Category
	CreateErr  error
	ListErr    error
	UpdateErr  error
	DeleteErr  error
	LastSaved  *models.Category
	DeletedID  uint
}

func (m *MockCategoryRepo) GetAllCategories() ([]models.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

func (m *MockCategoryRepo) CreateCategory(cat *models.Category) error {
	m.LastSaved = cat
	return m.CreateErr
}

func (m *MockCategoryRepo) UpdateCategory(cat *models.Category) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.LastSaved = cat
	return nil
}

func (m *MockCategoryRepo) DeleteCategory(id uint) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedID = id
	return nil
}

// --- Tests: GET /categories ---

func TestHandleGetAll(t *testing.T) {
	testCases := []struct {
		name               string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with multiple categories",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					Categories: []models.Category{
						{ID: 1, Name: "Clothing", Description: "Apparel"},
						{ID: 2, Name: "Shoes"},
					},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Len(t, resp, 2)
				assert.Equal(t, "Clothing", resp[0].Name)
				assert.Equal(t, "Shoes", resp[1].Name)
			},
		},
		{
			name: "Success with empty list",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					Categories: []models.Category{},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Len(t, resp, 0)
			},
		},
		{
			name: "Repository error",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					ListErr: errors.New("db down"),
				}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "failed to fetch categories", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo)
			req := httptest.NewRequest("GET", "/categories", nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetAll(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

// --- Tests: POST /categories ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockCategoryRepo)
	}{
		{
			name:        "Success",
			requestBody: `{"name":"Accessories","description":"Belts and bags"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "Category created successfully", resp["message"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.NotNil(t, repo.LastSaved)
				assert.Equal(t, "Accessories", repo.LastSaved.Name)
				assert.Equal(t, "Belts and bags", repo.LastSaved.Description)
			},
		},
		{
			name:        "Invalid JSON body",
			requestBody: `{invalid json`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Invalid JSON body", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with invalid JSON")
			},
		},
		{
			name:        "Missing name",
			requestBody: `{"description":"No name"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Missing name", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with missing fields")
			},
		},
		{
			name:        "Repository error on create",
			requestBody: `{"name":"Toys"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{CreateErr: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to create category", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.NotNil(t, repo.LastSaved, "CreateCategory should have been called")
				assert.Equal(t, "Toys", repo.LastSaved.Name)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo)
			req := httptest.NewRequest("POST", "/categories", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

// --- Tests: PUT /categories/{id} and DELETE /categories/{id} ---

func TestHandleUpdate(t *testing.T) {
	testCases := []struct {
		name               string
		categoryID         string
		requestBody        string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
	}{
		{
			name:               "Success",
			categoryID:         "3",
			requestBody:        `{"name":"Renamed"}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusOK,
		},
		{
			name:        "Category not found",
			categoryID:  "99",
			requestBody: `{"name":"Renamed"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{UpdateErr: models.ErrCategoryNotFound}
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Missing name",
			categoryID:         "3",
			requestBody:        `{}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Invalid id",
			categoryID:         "abc",
			requestBody:        `{"name":"Renamed"}`,
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo)
			req := httptest.NewRequest("PUT", "/categories/"+tc.categoryID, strings.NewReader(tc.requestBody))
			req.SetPathValue("id", tc.categoryID)
			rec := httptest.NewRecorder()

			handler.HandleUpdate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
		})
	}
}

func TestHandleDelete(t *testing.T) {
	testCases := []struct {
		name               string
		categoryID         string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkRepoCall      func(t *testing.T, repo *MockCategoryRepo)
	}{
		{
			name:               "Success",
			categoryID:         "3",
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusOK,
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Equal(t, uint(3), repo.DeletedID)
			},
		},
		{
			name:       "Category not found",
			categoryID: "99",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{DeleteErr: models.ErrCategoryNotFound}
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name:               "Invalid id",
			categoryID:         "abc",
			mockRepoSetup:      func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo)
			req := httptest.NewRequest("DELETE", "/categories/"+tc.categoryID, nil)
			req.SetPathValue("id", tc.categoryID)
			rec := httptest.NewRecorder()

			handler.HandleDelete(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
		})
	}
}
