package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

// requestIDFromContext returns a stable request id for the lifetime of the
// request, minting one when neither the context nor the client provided it.
func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext reads the id set by the auth middleware, nil when the
// request is unauthenticated.
func userIDFromContext(c *gin.Context) *int64 {
	if val, ok := c.Get("userID"); ok {
		if userID, ok := val.(int); ok && userID != 0 {
			value := int64(userID)
			return &value
		}
	}
	return nil
}

// auditUserID renders the authenticated user id in the string form the audit
// envelope carries, nil when the request is unauthenticated.
func auditUserID(c *gin.Context) *string {
	id := userIDFromContext(c)
	if id == nil {
		return nil
	}
	value := strconv.FormatInt(*id, 10)
	return &value
}
