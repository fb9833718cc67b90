package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/config"
	"github.com/accenprove/accenprove-api/internal/jobs"
	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/repository"
	"github.com/accenprove/accenprove-api/internal/services"
)

type mockUserRepo struct {
	repository.UserRepository
	mockList   func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error)
	mockCreate func(ctx context.Context, user *models.User) error
}

func (m *mockUserRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.mockCreate(ctx, user)
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	return nil, nil
}

func newUserHandlerForTest(mockRepo *mockUserRepo) *UserHandler {
	userService := services.NewUserService(
		mockRepo,
		nil,
		services.NewEmailService(&config.Config{}),
		services.NewAuditService(nil),
		jobs.NewWorker(1),
	)
	return NewUserHandler(userService, nil)
}

func adminContext(method, target string, payload map[string]interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")

	c.Set("userID", uint(1))
	c.Set("userEmail", "admin@example.com")
	c.Set("userRole", models.RoleAdmin)
	return w, c
}

func TestUserHandler_Index_PassesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{}
	handler := newUserHandlerForTest(mockRepo)

	var captured *repository.ListQuery
	mockRepo.mockList = func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
		captured = query
		return []models.User{}, 0, nil
	}

	w, c := adminContext("GET", "/users?role=vendor&active=true&page=2", nil)
	handler.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vendor", captured.Filters["role"])
	assert.Equal(t, "true", captured.Filters["active"])
	assert.Equal(t, 2, captured.Page)
}

func TestUserHandler_Index_NoFilterByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{}
	handler := newUserHandlerForTest(mockRepo)

	var captured *repository.ListQuery
	mockRepo.mockList = func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
		captured = query
		return []models.User{}, 0, nil
	}

	w, c := adminContext("GET", "/users", nil)
	handler.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured.Filters)
}

func TestUserHandler_Index_ZeroPerPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{}
	handler := newUserHandlerForTest(mockRepo)

	mockRepo.mockList = func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
		return []models.User{}, 0, nil
	}

	// per_page=0 must not blow up the page-count arithmetic
	w, c := adminContext("GET", "/users?per_page=0", nil)
	handler.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"per_page":20`)
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name        string
		target      string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "/ba", 1, 20},
		{"explicit", "/ba?page=3&per_page=50", 3, 50},
		{"zero per_page", "/ba?per_page=0", 1, 20},
		{"negative values", "/ba?page=-2&per_page=-10", 1, 20},
		{"non-numeric", "/ba?page=abc&per_page=abc", 1, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", tc.target, nil)

			page, perPage := parsePagination(c, 20)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantPerPage, perPage)
		})
	}
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{}
	handler := newUserHandlerForTest(mockRepo)

	mockRepo.mockCreate = func(ctx context.Context, user *models.User) error {
		return repository.ErrDuplicateEmail
	}

	w, c := adminContext("POST", "/users", map[string]interface{}{
		"full_name": "PT Maju Jaya",
		"email":     "vendor@example.com",
		"password":  "password123",
		"role":      models.RoleVendor,
	})
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}

func TestUserHandler_Create_UnknownRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newUserHandlerForTest(&mockUserRepo{})

	w, c := adminContext("POST", "/users", map[string]interface{}{
		"full_name": "Somebody",
		"email":     "somebody@example.com",
		"password":  "password123",
		"role":      "superuser",
	})
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown role")
}

func TestUserHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newUserHandlerForTest(&mockUserRepo{})

	// Password below the minimum length
	w, c := adminContext("POST", "/users", map[string]interface{}{
		"full_name": "Somebody",
		"email":     "somebody@example.com",
		"password":  "short",
		"role":      models.RoleVendor,
	})
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
