package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/bootstrap"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/middleware"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupEngine_RecoversPanics(t *testing.T) {
	// Given: Engine with a handler that panics
	engine, err := bootstrap.NewBootstrap(testutil.NewTestConfig()).SetupEngine()
	require.NoError(t, err)
	engine.GET("/boom", func(c *gin.Context) {
		panic("nil letter")
	})

	// When
	recorder := testutil.ExecuteRequest(t, engine, testutil.TestRequest{Method: http.MethodGet, URL: "/boom"})

	// Then: Standard 500 body, request id still attached
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "ERROR-003", testutil.ParseError(t, recorder).Code)
	assert.NotEmpty(t, recorder.Header().Get(middleware.RequestIDHeader))
}

func TestSetupEngine_TrustedProxies(t *testing.T) {
	cfg := testutil.NewTestConfig()

	// Given: Only the load balancer subnet is trusted
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	engine, err := bootstrap.NewBootstrap(cfg).SetupEngine()
	require.NoError(t, err)

	var clientIP string
	engine.GET("/ip", func(c *gin.Context) {
		clientIP = c.ClientIP()
		c.Status(http.StatusNoContent)
	})

	send := func(remote string) string {
		req := httptest.NewRequest(http.MethodGet, "/ip", nil)
		req.RemoteAddr = remote + ":4321"
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		engine.ServeHTTP(httptest.NewRecorder(), req)
		return clientIP
	}

	// Then: Forwarded header honored only from the proxy
	assert.Equal(t, "203.0.113.9", send("10.1.2.3"))
	assert.Equal(t, "198.51.100.7", send("198.51.100.7"))

	// Then: Malformed proxy list fails fast
	cfg.Server.TrustedProxies = []string{"not-an-ip"}
	_, err = bootstrap.NewBootstrap(cfg).SetupEngine()
	assert.Error(t, err)
}
