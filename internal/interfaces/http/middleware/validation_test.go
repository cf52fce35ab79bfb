package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

type validationProbe struct {
	Status   procurement.Status         `json:"status" binding:"omitempty,po_status"`
	Step     procurement.Step           `json:"step" binding:"omitempty,po_step"`
	Type     procurement.Type           `json:"type" binding:"omitempty,po_type"`
	Decision procurement.ApprovalStatus `json:"decision" binding:"omitempty,po_decision"`
	Scope    procurement.SupplierScope  `json:"scope" binding:"required,supplier_scope"`
	Window   procurement.PaymentWindow  `json:"window" binding:"payment_window"`
}

func validationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/probe", func(c *gin.Context) {
		var req validationProbe
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postProbe(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator_Idempotent(t *testing.T) {
	require.NoError(t, SetupValidator())
	require.NoError(t, SetupValidator())
}

func TestProcurementValidations(t *testing.T) {
	router := validationRouter(t)

	tests := []struct {
		name      string
		body      string
		wantField string
		wantTag   string
	}{
		{"valid", `{"scope":"domestic","window":15,"status":"draft","step":"draft","type":"reimbursement","decision":"approved"}`, "", ""},
		{"last business day window", `{"scope":"international","window":"last_business_day"}`, "", ""},
		{"missing scope", `{"window":5}`, "scope", "required"},
		{"unknown scope", `{"scope":"galactic","window":5}`, "scope", "supplier_scope"},
		{"missing window", `{"scope":"domestic"}`, "window", "payment_window"},
		{"unknown status", `{"scope":"domestic","window":5,"status":"archived"}`, "status", "po_status"},
		{"unknown step", `{"scope":"domestic","window":5,"step":"shipping"}`, "step", "po_step"},
		{"unknown type", `{"scope":"domestic","window":5,"type":"lease"}`, "type", "po_type"},
		{"pending is not a decision", `{"scope":"domestic","window":5,"decision":"pending"}`, "decision", "po_decision"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postProbe(router, tt.body)
			if tt.wantField == "" {
				assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
				return
			}

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
			assert.Equal(t, tt.wantTag, resp.Error.Details[0].Tag)
			assert.NotEqual(t, "Invalid value", resp.Error.Details[0].Message)
		})
	}
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	router := validationRouter(t)

	for _, body := range []string{`{"scope":`, `{"scope":"domestic","window":"someday"}`} {
		w := postProbe(router, body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
		assert.Empty(t, resp.Error.Details)
	}
}
