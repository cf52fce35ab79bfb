package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/cache"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/middleware"
)

func newPreferenceEngine(t *testing.T, store shared.KeyValueStore) *gin.Engine {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	h := NewPreferenceHandler(store)
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	engine.GET("/preferences/:key", h.Get)
	engine.PUT("/preferences/:key", h.Put)
	engine.DELETE("/preferences/:key", h.Delete)
	return engine
}

func TestPreferenceHandler_Lifecycle(t *testing.T) {
	store := cache.NewInMemoryKeyValueStore(shared.FixedClock{At: handlerNow})
	t.Cleanup(func() { _ = store.Close() })
	engine := newPreferenceEngine(t, store)

	alice := map[string]string{middleware.ActorIDHeader: uuid.NewString()}
	bob := map[string]string{middleware.ActorIDHeader: uuid.NewString()}
	path := "/preferences/last_payment_window"

	w := performJSON(engine, http.MethodGet, path, nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(engine, http.MethodPut, path, map[string]any{"value": "15"}, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performJSON(engine, http.MethodGet, path, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.JSONEq(t, `"15"`, string(data["value"]))
	assert.JSONEq(t, `"last_payment_window"`, string(data["key"]))

	w = performJSON(engine, http.MethodGet, path, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code, "preferences are scoped per actor")

	w = performJSON(engine, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performJSON(engine, http.MethodGet, path, nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferenceHandler_Errors(t *testing.T) {
	store := cache.NewInMemoryKeyValueStore(shared.FixedClock{At: handlerNow})
	t.Cleanup(func() { _ = store.Close() })
	engine := newPreferenceEngine(t, store)
	actor := map[string]string{middleware.ActorIDHeader: uuid.NewString()}

	w := performJSON(engine, http.MethodGet, "/preferences/theme", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(engine, http.MethodPut, "/preferences/theme", map[string]any{"value": ""}, actor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(engine, http.MethodPut, "/preferences/theme", map[string]any{"value": "dark", "ttl_seconds": -1}, actor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) (string, error) { return "", s.err }
func (s failingStore) Set(context.Context, string, string, time.Duration) error { return s.err }
func (s failingStore) Delete(context.Context, string) error { return s.err }
func (s failingStore) Close() error { return nil }

func TestPreferenceHandler_StoreFailure(t *testing.T) {
	engine := newPreferenceEngine(t, failingStore{err: errors.New("connection refused")})
	actor := map[string]string{middleware.ActorIDHeader: uuid.NewString()}

	w := performJSON(engine, http.MethodGet, "/preferences/theme", nil, actor)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
}
