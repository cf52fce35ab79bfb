package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// PreferenceHandler stores small UI state values (last chosen payment window,
// collapsed panels) per actor in the key-value store
type PreferenceHandler struct {
	BaseHandler
	store shared.KeyValueStore
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(store shared.KeyValueStore) *PreferenceHandler {
	return &PreferenceHandler{store: store}
}

// PreferenceKey is the path parameter naming a preference
type PreferenceKey struct {
	Key string `uri:"key" json:"key" binding:"required,max=128"`
}

// PutPreferenceRequest stores a value; a zero TTLSeconds keeps it until deleted
type PutPreferenceRequest struct {
	Value      string `json:"value" binding:"required,max=4096"`
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,min=0,max=31536000"`
}

// PreferenceResponse is a stored preference
type PreferenceResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Get returns the caller's preference
// GET /api/v1/procurement/preferences/:key
func (h *PreferenceHandler) Get(c *gin.Context) {
	storeKey, key, ok := h.scopedKey(c)
	if !ok {
		return
	}

	value, err := h.store.Get(c.Request.Context(), storeKey)
	if errors.Is(err, shared.ErrKeyNotFound) {
		h.NotFound(c, "Preference not found")
		return
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, PreferenceResponse{Key: key, Value: value})
}

// Put stores the caller's preference
// PUT /api/v1/procurement/preferences/:key
func (h *PreferenceHandler) Put(c *gin.Context) {
	storeKey, key, ok := h.scopedKey(c)
	if !ok {
		return
	}

	var req PutPreferenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := h.store.Set(c.Request.Context(), storeKey, req.Value, ttl); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, PreferenceResponse{Key: key, Value: req.Value})
}

// Delete removes the caller's preference; a missing key is not an error
// DELETE /api/v1/procurement/preferences/:key
func (h *PreferenceHandler) Delete(c *gin.Context) {
	storeKey, _, ok := h.scopedKey(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), storeKey); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// scopedKey builds "pref:<actor>:<key>" so callers only see their own values
func (h *PreferenceHandler) scopedKey(c *gin.Context) (storeKey, key string, ok bool) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "X-User-ID is required for preferences")
		return "", "", false
	}

	var uri PreferenceKey
	if err := c.ShouldBindUri(&uri); err != nil {
		h.handleBindError(c, err)
		return "", "", false
	}
	return "pref:" + actorID.String() + ":" + uri.Key, uri.Key, true
}
