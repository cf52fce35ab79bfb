package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

const (
	// ActorIDHeader identifies the acting user. Authentication happens
	// upstream; this service trusts the gateway to set it.
	ActorIDHeader = "X-User-ID"
	// ActorIDKey is the gin context key holding the parsed actor ID
	ActorIDKey = "actor_id"
)

// Actor parses X-User-ID into the gin context and the request logger.
// A malformed header is rejected; a missing one is left to the handlers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		actorID, err := uuid.Parse(raw)
		if err != nil || actorID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "X-User-ID must be a user UUID", GetRequestID(c)))
			return
		}
		c.Set(ActorIDKey, actorID)
		c.Request = c.Request.WithContext(logger.WithActorID(c.Request.Context(), actorID.String()))
		c.Next()
	}
}

// GetActorID returns the actor parsed by Actor
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ActorIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
