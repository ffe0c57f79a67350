package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/checkout/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Name      string `json:"name" binding:"required,max=10"`
	UnitPrice string `json:"unit_price" binding:"required,money"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type openInput struct {
	InvoiceID string      `json:"invoice_id" binding:"required"`
	Items     []lineInput `json:"items" binding:"dive"`
	Channels  []string    `json:"channels" binding:"omitempty,dive,oneof=PRINT SMS"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.POST("/checkouts", func(c *gin.Context) {
		var req openInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkouts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDKey, "req-v")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NoError(t, v.Var("12.50", "money"))
	assert.Error(t, v.Var("12.505", "money"))
	assert.Error(t, v.Var("-1", "money"))
	assert.Error(t, v.Var("ten", "money"))
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("valid input passes", func(t *testing.T) {
		w := postJSON(router, `{"invoice_id":"INV-1","items":[{"name":"Tea","unit_price":"450","quantity":2}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("lists offending fields by json path", func(t *testing.T) {
		w := postJSON(router, `{"items":[{"name":"Tea","unit_price":"4.505","quantity":0}],"channels":["FAX"]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v", resp.Error.RequestID)

		got := make(map[string]string)
		for _, d := range resp.Error.Details {
			got[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"invoice_id":          "This field is required",
			"items[0].unit_price": "Must be a non-negative amount with at most 2 decimal places",
			"items[0].quantity":   "This field is required",
			"channels[0]":         "Must be one of: PRINT SMS",
		}, got)
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		w := postJSON(router, `{"invoice_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Name    string   `validate:"max=3"`
		Entries []string `validate:"min=1"`
		ID      string   `validate:"uuid"`
	}

	err := validator.New().Struct(input{Name: "long name", ID: "nope"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	got := make(map[string]string)
	for _, e := range errs {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "Must be at most 3 characters", got["Name"])
	assert.Equal(t, "Must contain at least 1 item(s)", got["Entries"])
	assert.Equal(t, "Invalid UUID format", got["ID"])
}
