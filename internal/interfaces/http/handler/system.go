package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

const healthProbeKey = "health:probe"

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	name      string
	version   string
	store     shared.KeyValueStore
	backend   string
}

// NewSystemHandler creates a new SystemHandler. store and backend describe the
// key-value store probed by Health; a nil store is reported as "disabled".
func NewSystemHandler(name, version string, store shared.KeyValueStore, backend string) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		name:      name,
		version:   version,
		store:     store,
		backend:   backend,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports liveness and the key-value store state
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// GetSystemInfo returns name, version and uptime
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health answers 200 while the key-value store responds, 503 otherwise
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	checks := map[string]string{"kv_store": "disabled"}
	status := "ok"

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if _, err := h.store.Get(ctx, healthProbeKey); err != nil && !errors.Is(err, shared.ErrKeyNotFound) {
			checks["kv_store"] = "error: " + err.Error()
			status = "degraded"
		} else {
			checks["kv_store"] = "ok (" + h.backend + ")"
		}
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp, Error: &dto.ErrorInfo{
			Code:      dto.ErrCodeUnavailable,
			Message:   "Key-value store unavailable",
			RequestID: getRequestID(c),
		}})
		return
	}
	h.Success(c, resp)
}
