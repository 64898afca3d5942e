package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedRequest struct {
	method string
	path   string
	status int
}

type requestRecorder struct {
	requests []observedRequest
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.requests = append(r.requests, observedRequest{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &requestRecorder{}
	router := gin.New()
	router.Use(Metrics(recorder))
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for _, path := range []string{"/courses/a", "/courses/b", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, recorder.requests, 3)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/courses/:id", status: http.StatusTeapot}, recorder.requests[0])
	assert.Equal(t, "/courses/:id", recorder.requests[1].path)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound}, recorder.requests[2])
}
