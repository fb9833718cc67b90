package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/accenprove/accenprove-api/internal/models"
	"github.com/accenprove/accenprove-api/internal/services"
	"github.com/accenprove/accenprove-api/pkg/logger"
)

func init() {
	logger.Setup("test")
}

func newBAHandlerForTest(t *testing.T) *BeritaAcaraHandler {
	baService := services.NewBeritaAcaraService(nil, nil, nil, nil, nil, nil)
	return NewBeritaAcaraHandler(baService, nil, nil, services.NewImageService(t.TempDir()))
}

// patchContext builds an authenticated PATCH /ba/:id context the way
// the auth middleware would.
func patchContext(role string, payload map[string]interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(payload)
	c.Request = httptest.NewRequest("PATCH", "/ba/1", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	c.Set("userID", uint(7))
	c.Set("userEmail", "someone@example.com")
	c.Set("userRole", role)
	return w, c
}

func TestBeritaAcaraHandler_Patch_UnknownAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	w, c := patchContext(models.RoleDireksi, map[string]interface{}{"action": "archive"})
	handler.Patch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown action")
}

func TestBeritaAcaraHandler_Patch_MissingAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	w, c := patchContext(models.RoleDireksi, map[string]interface{}{"reason": "no action verb"})
	handler.Patch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBeritaAcaraHandler_Patch_RoleGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	tests := []struct {
		name   string
		role   string
		action string
	}{
		{"vendor cannot approve", models.RoleVendor, "approve"},
		{"vendor cannot reject", models.RoleVendor, "reject"},
		{"dk cannot approve", models.RoleDK, "approve"},
		{"dk cannot edit", models.RoleDK, "edit"},
		{"direksi cannot edit", models.RoleDireksi, "edit"},
		{"admin cannot approve", models.RoleAdmin, "approve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := patchContext(tt.role, map[string]interface{}{"action": tt.action})
			handler.Patch(c)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestBeritaAcaraHandler_Patch_ApproveRequiresSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	w, c := patchContext(models.RoleDireksi, map[string]interface{}{"action": "approve"})
	handler.Patch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "signature")
}

func TestBeritaAcaraHandler_Patch_ApproveRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	w, c := patchContext(models.RoleDireksi, map[string]interface{}{
		"action":    "approve",
		"signature": "not-a-data-uri",
	})
	handler.Patch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "data URI")
}

func TestBeritaAcaraHandler_Patch_RejectRequiresReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	w, c := patchContext(models.RoleDireksi, map[string]interface{}{"action": "reject"})
	handler.Patch(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "reason")
}

func validCreatePayload() map[string]interface{} {
	return map[string]interface{}{
		"type":                "BAPB",
		"contract_number":     "CTR-2026-001",
		"inspection_date":     "2026-08-20",
		"inspection_location": "Gudang Utama",
		"pic_name":            "Budi Santoso",
		"pic_title":           "Inspector",
		"item_description":    "Server rack 42U",
		"item_quantity":       2,
		"item_unit":           "unit",
		"item_condition":      "good",
		"signature_vendor":    "data:image/png;base64,aGVsbG8=",
	}
}

func createContext(payload map[string]interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(payload)
	c.Request = httptest.NewRequest("POST", "/ba", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	c.Set("userID", uint(7))
	c.Set("userEmail", "vendor@example.com")
	c.Set("userRole", models.RoleVendor)
	return w, c
}

func TestBeritaAcaraHandler_Create_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	payload := validCreatePayload()
	delete(payload, "item_quantity")

	w, c := createContext(payload)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "item_quantity")
}

func TestBeritaAcaraHandler_Create_BadInspectionDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	payload := validCreatePayload()
	payload["inspection_date"] = "20/08/2026"

	w, c := createContext(payload)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func TestBeritaAcaraHandler_Create_BadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBAHandlerForTest(t)

	payload := validCreatePayload()
	payload["signature_vendor"] = "hello world"

	w, c := createContext(payload)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
