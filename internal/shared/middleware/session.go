package middleware

import (
	"net/http"

	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/session"
	"github.com/gin-gonic/gin"
)

const SessionTokenHeader = "X-Session-Token"

// Session resolves the anonymous requester identity. The header wins over the cookie;
// when neither carries a usable token a new one is minted and returned in both.
func Session(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		existing := c.GetHeader(SessionTokenHeader)
		if existing == "" {
			if cookie, err := c.Cookie(manager.CookieName()); err == nil {
				existing = cookie
			}
		}

		token, created, err := manager.Resolve(existing)
		if err != nil {
			logger.FromContext(c.Request.Context()).Error("세션 토큰 발급 실패", "error", err)
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, sharedError.InternalServerError)
			return
		}

		c.Set(sharedContext.SessionTokenKey, token)
		c.Set(sharedContext.HashedIPKey, manager.HashIP(c.ClientIP()))
		c.Set(sharedContext.UserAgentKey, c.Request.UserAgent())

		c.Writer.Header().Set(SessionTokenHeader, token)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(manager.CookieName(), token, manager.MaxAge(), "/", "", manager.Secure(), true)
		}

		c.Next()
	}
}
