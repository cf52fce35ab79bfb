package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/cache"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

func systemEngine(h *SystemHandler) *gin.Engine {
	engine := gin.New()
	engine.GET("/health", h.Health)
	engine.GET("/system/info", h.GetSystemInfo)
	return engine
}

func TestSystemHandler_Info(t *testing.T) {
	engine := systemEngine(NewSystemHandler("procurement-service", "1.2.3", nil, ""))

	w := performJSON(engine, http.MethodGet, "/system/info", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.JSONEq(t, `"procurement-service"`, string(data["name"]))
	assert.JSONEq(t, `"1.2.3"`, string(data["version"]))
	assert.Contains(t, string(data["go_version"]), "go")
}

func TestSystemHandler_Health(t *testing.T) {
	store := cache.NewInMemoryKeyValueStore(shared.FixedClock{At: handlerNow})
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name       string
		handler    *SystemHandler
		wantStatus int
		wantCheck  string
	}{
		{"no store", NewSystemHandler("svc", "dev", nil, ""), http.StatusOK, `"disabled"`},
		{"memory store", NewSystemHandler("svc", "dev", store, "memory"), http.StatusOK, `"ok (memory)"`},
		{"failing store", NewSystemHandler("svc", "dev", failingStore{err: errors.New("dial tcp: refused")}, "redis"), http.StatusServiceUnavailable, `"error: dial tcp: refused"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(systemEngine(tt.handler), http.MethodGet, "/health", nil, nil)
			require.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Success bool           `json:"success"`
				Data    HealthResponse `json:"data"`
				Error   *dto.ErrorInfo `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.JSONEq(t, tt.wantCheck, `"`+resp.Data.Checks["kv_store"]+`"`)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, dto.ErrCodeUnavailable, resp.Error.Code)
			}
		})
	}
}
