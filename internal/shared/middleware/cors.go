package middleware

import (
	"slices"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browsers send and read the session token header; anonymous requesters
// on another origin keep their identity through it when third party cookies are blocked.
func CORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     withHeaders(cfg.CORS.AllowedHeaders, SessionTokenHeader, RequestIDHeader, AuthorizationHeader),
		ExposeHeaders:    []string{SessionTokenHeader, RequestIDHeader},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}

	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
		// 와일드카드 origin과 credentials는 브라우저가 함께 허용하지 않음
		corsConfig.AllowCredentials = false
	}

	return cors.New(corsConfig)
}

func withHeaders(configured []string, required ...string) []string {
	if slices.Contains(configured, "*") {
		return configured
	}
	headers := slices.Clone(configured)
	for _, header := range required {
		if !slices.Contains(headers, header) {
			headers = append(headers, header)
		}
	}
	return headers
}
