package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	procapp "github.com/Vinicius2501/aqua-erp-sub001/internal/application/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/cache"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/config"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/event"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/handler"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/middleware"
)

var routerNow = time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	engine *gin.Engine
	bus    *event.InMemoryEventBus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := shared.FixedClock{At: routerNow}
	stores := cache.NewStoreFactory(config.RedisConfig{}, cache.WithClock(clock)).CreateInMemory()
	t.Cleanup(func() { _ = stores.Close() })

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(procapp.NewLifecycleAuditHandler(zap.NewNop(), nil))

	orders := procapp.NewPurchaseOrderService(zap.NewNop(), clock)
	orders.SetEventPublisher(bus)
	orders.SetLocker(stores.Locker)
	orders.SetDecisionStore(stores.KeyValue)
	orders.SetDefaultPaymentWindowDays(10)
	schedules := procapp.NewPaymentScheduleService(zap.NewNop(), clock, time.UTC)
	schedules.SetDefaultPaymentWindowDays(10)

	engine, err := NewEngine(EngineConfig{
		Logger:      zap.NewNop(),
		ServiceName: "procurement-test",
		HTTP:        config.HTTPConfig{MaxBodyBytes: 4096},
	})
	require.NoError(t, err)

	system := handler.NewSystemHandler("procurement-test", "1.0.0", stores.KeyValue, stores.Backend)
	engine.GET("/health", system.Health)

	NewRouter(engine).
		Register(NewProcurementGroup(ProcurementHandlers{
			PurchaseOrders:   handler.NewPurchaseOrderHandler(orders),
			PaymentSchedules: handler.NewPaymentScheduleHandler(schedules),
			Preferences:      handler.NewPreferenceHandler(stores.KeyValue),
		})).
		Register(NewSystemGroup(system)).
		Setup()

	return &testServer{engine: engine, bus: bus}
}

func (s *testServer) do(t *testing.T, method, path string, body any, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(middleware.ActorIDHeader, actor)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

func field(t *testing.T, raw json.RawMessage, name string) any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal(raw, &obj))
	return obj[name]
}

func TestProcurementAPI_FullLifecycle(t *testing.T) {
	srv := newTestServer(t)
	requester := uuid.NewString()
	supplierID := uuid.New()
	first, second := uuid.New(), uuid.New()
	contractID := uuid.New()
	validUntil := routerNow.AddDate(1, 0, 0)

	w := srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders", map[string]any{
		"requester_id":      requester,
		"supplier_id":       supplierID,
		"supplier_scope":    "domestic",
		"type":              "products_services",
		"subtype":           "product",
		"total_value":       "1500.00",
		"currency_code":     "BRL",
		"payment_terms":     "installments",
		"installment_count": 3,
		"payment_window":    15,
	}, requester)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := data(t, w)["order"]
	assert.Equal(t, "draft", field(t, order, "status"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/submit", map[string]any{
		"order":     order,
		"approvers": []uuid.UUID{first, second},
	}, requester)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitted := data(t, w)
	assert.Equal(t, "awaiting_approval", field(t, submitted["order"], "step"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", map[string]any{
		"order":          submitted["order"],
		"approval_steps": submitted["approval_steps"],
		"decision":       "approved",
	}, second.String())
	assert.Equal(t, http.StatusForbidden, w.Code, "second approver cannot decide first")

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", map[string]any{
		"order":          submitted["order"],
		"approval_steps": submitted["approval_steps"],
		"decision":       "approved",
	}, first.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	partial := data(t, w)
	assert.JSONEq(t, `false`, string(partial["chain_complete"]))
	assert.Equal(t, "awaiting_approval", field(t, partial["order"], "status"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", map[string]any{
		"order":          submitted["order"],
		"approval_steps": submitted["approval_steps"],
		"decision":       "approved",
	}, first.String())
	assert.Equal(t, http.StatusConflict, w.Code, "replaying a decided step")
	assert.Contains(t, w.Body.String(), "ERR_CONFLICT")

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/decide", map[string]any{
		"order":          partial["order"],
		"approval_steps": partial["approval_steps"],
		"decision":       "approved",
	}, second.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decided := data(t, w)
	assert.JSONEq(t, `true`, string(decided["chain_complete"]))
	assert.Equal(t, "awaiting_contract", field(t, decided["order"], "step"))

	documents := []map[string]any{
		{"id": contractID, "supplier_id": supplierID, "file_name": "framework-2025.pdf", "valid_until": validUntil},
	}
	w = srv.do(t, http.MethodPost, "/api/v1/procurement/contracts/classify", map[string]any{
		"supplier_id": supplierID,
		"documents":   documents,
	}, requester)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(data(t, w)["current"]), contractID.String())

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/link-contract", map[string]any{
		"order":       decided["order"],
		"documents":   documents,
		"document_id": contractID,
	}, requester)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	linked := data(t, w)["order"]
	assert.Equal(t, "processing_payments", field(t, linked, "step"))
	assert.Equal(t, contractID.String(), field(t, linked, "contract_id"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/schedule", map[string]any{
		"order": linked,
		"allocations": []map[string]any{
			{"payer_company_id": uuid.New(), "allocation_amount": "900.00"},
			{"payer_company_id": uuid.New(), "allocation_amount": "600.00"},
		},
	}, requester)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	schedule := data(t, w)
	assert.Equal(t, false, field(t, schedule["reconciliation"], "has_divergence"))
	assert.Len(t, field(t, schedule["reconciliation"], "payers"), 2)
	assert.NotEmpty(t, field(t, schedule["first_payment"], "date"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/finalize", map[string]any{
		"order": linked,
	}, requester)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	final := data(t, w)["order"]
	assert.Equal(t, "finalized", field(t, final, "status"))
	assert.Equal(t, "closed", field(t, final, "step"))

	w = srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders/finalize", map[string]any{
		"order": final,
	}, requester)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	published, failed := srv.bus.Stats()
	assert.Equal(t, int64(5), published, "created, submitted, approved, contract linked, finalized")
	assert.Zero(t, failed)
}

func TestProcurementAPI_Preferences(t *testing.T) {
	srv := newTestServer(t)
	actor := uuid.NewString()

	w := srv.do(t, http.MethodPut, "/api/v1/procurement/preferences/default_window",
		map[string]any{"value": "15"}, actor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/v1/procurement/preferences/default_window", nil, actor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `"15"`, string(data(t, w)["value"]))

	w = srv.do(t, http.MethodGet, "/api/v1/procurement/preferences/default_window", nil, uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/procurement/preferences/default_window", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodDelete, "/api/v1/procurement/preferences/default_window", nil, actor)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProcurementAPI_Middleware(t *testing.T) {
	srv := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "ok (memory)", field(t, data(t, w)["checks"], "kv_store"))
	})

	t.Run("system info", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/system/info", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `"procurement-test"`, string(data(t, w)["name"]))
	})

	t.Run("invalid actor header", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/procurement/payment-windows?scope=domestic", nil, "not-a-uuid")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("request id and secure headers", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/procurement/payment-windows?scope=domestic", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("body too large", func(t *testing.T) {
		body := `{"description":"` + strings.Repeat("x", 8192) + `"}`
		w := srv.do(t, http.MethodPost, "/api/v1/procurement/purchase-orders", body, "")
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, middleware.ErrCodeRequestTooLarge, resp.Error.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/procurement/unknown", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
