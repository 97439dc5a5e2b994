package bootstrap

import (
	"fmt"
	"io"
	"net/http"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Bootstrap builds the gin engine with the middleware every route shares
type Bootstrap struct {
	cfg *config.Config
}

func NewBootstrap(cfg *config.Config) *Bootstrap {
	return &Bootstrap{
		cfg: cfg,
	}
}

// SetupEngine creates the engine. ClientIP feeds the submit throttle and the
// hashed IP stored on anonymous requests, so only configured proxies may set it.
func (b *Bootstrap) SetupEngine() (*gin.Engine, error) {
	if b.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// gin 기본 로거 대신 slog 사용
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard

	engine := gin.New()
	if err := engine.SetTrustedProxies(b.cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES 설정 오류: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.LoggerMiddleware())
	engine.Use(gin.CustomRecovery(b.recoveryHandler))
	engine.Use(middleware.CORS(b.cfg))
	engine.Use(middleware.Timeout(b.cfg.Server.RequestTimeout))
	engine.Use(middleware.Metrics())

	return engine, nil
}

// recoveryHandler runs after LoggerMiddleware, so the panic is logged with the request id
func (b *Bootstrap) recoveryHandler(c *gin.Context, recovered interface{}) {
	logger.FromContext(c.Request.Context()).Error("panic 복구",
		"error", recovered,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, sharedError.InternalServerError)
}
