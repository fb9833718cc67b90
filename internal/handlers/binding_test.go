package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	ContractNumber string  `json:"contract_number"`
	ItemQuantity   float64 `json:"item_quantity"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "Nested body from the web client",
			key:      "berita_acara",
			body:     `{"berita_acara": {"contract_number": "CTR-001", "item_quantity": 10}}`,
			expected: bindTarget{ContractNumber: "CTR-001", ItemQuantity: 10},
		},
		{
			name:     "Flat body",
			key:      "berita_acara",
			body:     `{"contract_number": "CTR-002", "item_quantity": 5}`,
			expected: bindTarget{ContractNumber: "CTR-002", ItemQuantity: 5},
		},
		{
			name:     "Missing key falls back to flat binding",
			key:      "berita_acara",
			body:     `{"other": "value", "contract_number": "CTR-003", "item_quantity": 2}`,
			expected: bindTarget{ContractNumber: "CTR-003", ItemQuantity: 2},
		},
		{
			name:        "Type mismatch errors",
			key:         "berita_acara",
			body:        `{"contract_number": "CTR-004", "item_quantity": "ten"}`,
			expectError: true,
		},
		{
			name:        "Invalid JSON errors",
			key:         "berita_acara",
			body:        `{"contract_number":`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/ba", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var target bindTarget
			err := BindNestedOrFlat(c, tt.key, &target)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, target)
		})
	}
}

func TestBindNestedOrFlat_BodyRestored(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/ba", bytes.NewBufferString(`{"contract_number": "CTR-001"}`))

	var first, second bindTarget
	assert.NoError(t, BindNestedOrFlat(c, "berita_acara", &first))
	assert.NoError(t, BindNestedOrFlat(c, "berita_acara", &second))
	assert.Equal(t, first, second)
}
