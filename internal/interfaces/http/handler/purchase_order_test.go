package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	procapp "github.com/Vinicius2501/aqua-erp-sub001/internal/application/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/middleware"
)

var handlerNow = time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

func newProcurementEngine(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	clock := shared.FixedClock{At: handlerNow}
	orders := procapp.NewPurchaseOrderService(zap.NewNop(), clock)
	orders.SetDefaultPaymentWindowDays(10)
	schedules := procapp.NewPaymentScheduleService(zap.NewNop(), clock, time.UTC)
	schedules.SetDefaultPaymentWindowDays(10)

	po := NewPurchaseOrderHandler(orders)
	ps := NewPaymentScheduleHandler(schedules)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	api := engine.Group("/api/v1/procurement")
	api.GET("/lifecycle/steps", po.AllowedSteps)
	api.POST("/lifecycle/validate", po.ValidateLifecycle)
	api.POST("/purchase-orders", po.Create)
	api.POST("/purchase-orders/submit", po.Submit)
	api.POST("/purchase-orders/decide", po.Decide)
	api.POST("/contracts/classify", po.ClassifyContracts)
	api.GET("/payment-windows", ps.PaymentWindows)
	api.POST("/payment-windows/next", ps.NextPaymentDate)
	api.POST("/installments/reconcile", ps.ReconcileInstallments)
	return engine
}

func performJSON(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

func createBody() map[string]any {
	return map[string]any{
		"requester_id":      uuid.New(),
		"supplier_id":       uuid.New(),
		"supplier_scope":    "domestic",
		"type":              "products_services",
		"subtype":           "service",
		"total_value":       "1500.00",
		"currency_code":     "BRL",
		"payment_terms":     "installments",
		"installment_count": 3,
		"payment_window":    15,
	}
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	engine := newProcurementEngine(t)

	w := performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders", createBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := responseData(t, w)
	var order map[string]any
	require.NoError(t, json.Unmarshal(data["order"], &order))
	assert.Equal(t, "draft", order["status"])
	assert.Equal(t, "draft", order["step"])
	assert.Regexp(t, `^PO-20250110-`, order["order_number"])
	assert.EqualValues(t, 10, order["payment_window_days"])
}

func TestPurchaseOrderHandler_CreateErrors(t *testing.T) {
	engine := newProcurementEngine(t)

	tests := []struct {
		name       string
		mutate     func(body map[string]any)
		wantStatus int
		wantCode   string
	}{
		{"bad scope tag", func(b map[string]any) { b["supplier_scope"] = "lunar" }, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad window", func(b map[string]any) { b["payment_window"] = 0 }, http.StatusBadRequest, dto.ErrCodeValidation},
		{"window outside scope", func(b map[string]any) { b["payment_window"] = 20 }, http.StatusBadRequest, "INVALID_PAYMENT_WINDOW"},
		{"subtype of another type", func(b map[string]any) { b["subtype"] = "standard" }, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"negative total", func(b map[string]any) { b["total_value"] = "-5" }, http.StatusBadRequest, "INVALID_AMOUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := createBody()
			tt.mutate(body)
			w := performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders", body, nil)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestPurchaseOrderHandler_AllowedSteps(t *testing.T) {
	engine := newProcurementEngine(t)

	w := performJSON(engine, http.MethodGet, "/api/v1/procurement/lifecycle/steps?status=approved", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.JSONEq(t, `["awaiting_contract","processing_payments"]`, string(data["steps"]))

	w = performJSON(engine, http.MethodGet, "/api/v1/procurement/lifecycle/steps?status=archived", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrderHandler_ValidateLifecycle(t *testing.T) {
	engine := newProcurementEngine(t)

	w := performJSON(engine, http.MethodPost, "/api/v1/procurement/lifecycle/validate",
		map[string]string{"status": "approved", "step": "awaiting_contract"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `true`, string(responseData(t, w)["valid"]))

	w = performJSON(engine, http.MethodPost, "/api/v1/procurement/lifecycle/validate",
		map[string]string{"status": "finalized", "step": "processing_payments"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.JSONEq(t, `false`, string(data["valid"]))
	assert.JSONEq(t, `["closed"]`, string(data["allowed_steps"]))

	var violation dto.ErrorInfo
	require.NoError(t, json.Unmarshal(data["violation"], &violation))
	assert.Equal(t, dto.ErrCodeInvalidState, violation.Code)
}

func TestPurchaseOrderHandler_DecideRequiresActor(t *testing.T) {
	engine := newProcurementEngine(t)

	w := performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", `{}`,
		map[string]string{middleware.ActorIDHeader: uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrderHandler_SubmitAndDecide(t *testing.T) {
	engine := newProcurementEngine(t)
	approver := uuid.New()

	w := performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders", createBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	order := responseData(t, w)["order"]

	w = performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders/submit", map[string]any{
		"order":     order,
		"approvers": []uuid.UUID{approver},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitted := responseData(t, w)

	decide := map[string]any{
		"order":          submitted["order"],
		"approval_steps": submitted["approval_steps"],
		"actor_id":       approver,
		"decision":       "approved",
	}

	w = performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", decide,
		map[string]string{middleware.ActorIDHeader: uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, w.Code, "header actor overrides the body")

	w = performJSON(engine, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", decide,
		map[string]string{middleware.ActorIDHeader: approver.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := responseData(t, w)
	assert.JSONEq(t, `true`, string(data["chain_complete"]))

	var decided map[string]any
	require.NoError(t, json.Unmarshal(data["order"], &decided))
	assert.Equal(t, "approved", decided["status"])
	assert.Equal(t, "awaiting_contract", decided["step"])
}

func TestPaymentScheduleHandler(t *testing.T) {
	engine := newProcurementEngine(t)

	t.Run("windows", func(t *testing.T) {
		w := performJSON(engine, http.MethodGet, "/api/v1/procurement/payment-windows?scope=international", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[10,20,"last_business_day"]`, string(responseData(t, w)["windows"]))

		w = performJSON(engine, http.MethodGet, "/api/v1/procurement/payment-windows?scope=orbital", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "supplier_scope", resp.Error.Details[0].Tag)
	})

	t.Run("next date", func(t *testing.T) {
		w := performJSON(engine, http.MethodPost, "/api/v1/procurement/payment-windows/next", map[string]any{
			"open_date":        "2025-01-10T00:00:00Z",
			"payment_window":   5,
			"min_days_advance": 10,
			"supplier_scope":   "domestic",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := responseData(t, w)
		assert.JSONEq(t, `25`, string(data["day"]))
		assert.JSONEq(t, `true`, string(data["snapped"]))
	})

	t.Run("reconcile", func(t *testing.T) {
		w := performJSON(engine, http.MethodPost, "/api/v1/procurement/installments/reconcile", map[string]any{
			"allocations": []map[string]any{
				{"payer_company_id": uuid.New(), "allocation_amount": "300.00"},
			},
			"total_value":       "300.00",
			"currency_code":     "BRL",
			"installment_count": 3,
			"first_due_date":    "2025-02-15T00:00:00Z",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := responseData(t, w)
		assert.Contains(t, string(data["reconciliation"]), "2025-04-15")
		assert.JSONEq(t, `"0"`, string(data["divergence"]))
	})
}

func TestPurchaseOrderHandler_ClassifyContracts(t *testing.T) {
	engine := newProcurementEngine(t)
	supplierID := uuid.New()
	until := handlerNow.AddDate(0, 6, 0)

	w := performJSON(engine, http.MethodPost, "/api/v1/procurement/contracts/classify", map[string]any{
		"supplier_id": supplierID,
		"documents": []map[string]any{
			{"id": uuid.New(), "supplier_id": supplierID, "file_name": "v2.pdf", "valid_until": until},
			{"id": uuid.New(), "supplier_id": supplierID, "file_name": "v1.pdf"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := responseData(t, w)
	var versions []map[string]any
	require.NoError(t, json.Unmarshal(data["versions"], &versions))
	require.Len(t, versions, 2)
	assert.EqualValues(t, 1, versions[0]["version"])
	assert.Contains(t, string(data["current"]), "v2.pdf")
}
