package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stories-service/internal/mocks"
	"stories-service/internal/telemetry"
)

func setupDebugRouter(emitter *telemetry.AuditEmitter, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	RegisterDebugRoutes(r, emitter, enabled)
	return r
}

func TestDebugAuditRouteEmitsUserID(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.stories", "stories-service", "test")
	router := setupDebugRouter(emitter, true)

	publisher.On("Publish", mock.Anything, "audit.stories", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.UserID != nil && *envelope.UserID == "1"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}

func TestDebugRoutesDisabled(t *testing.T) {
	router := setupDebugRouter(nil, false)

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
