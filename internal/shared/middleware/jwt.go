package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/token"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"
)

// JWT error constants (errInfo)
const (
	missingToken  = "MISSING_TOKEN"
	invalidToken  = "INVALID_TOKEN"
	expiredToken  = "EXPIRED_TOKEN"
	invalidClaims = "INVALID_CLAIMS"
)

// Domain errors
var (
	ErrMissingToken  = sharedError.NewDomainError(missingToken)
	ErrInvalidToken  = sharedError.NewDomainError(invalidToken)
	ErrExpiredToken  = sharedError.NewDomainError(expiredToken)
	ErrInvalidClaims = sharedError.NewDomainError(invalidClaims)
)

// Token failures all answer AUTH-000
func init() {
	for _, info := range []string{missingToken, invalidToken, expiredToken, invalidClaims} {
		sharedError.RegisterDomainErrorResponse(info, sharedError.Unauthorized)
	}
}

// JWT requires a valid access token
func JWT(cfg *config.Config) gin.HandlerFunc {
	tokenManager := token.NewJWTManager(cfg)

	return func(c *gin.Context) {
		if authenticate(c, tokenManager) {
			c.Next()
		}
	}
}

// OptionalJWT authenticates the member when an Authorization header is present.
// Requests without the header continue anonymously; a present but invalid token is rejected.
func OptionalJWT(cfg *config.Config) gin.HandlerFunc {
	tokenManager := token.NewJWTManager(cfg)

	return func(c *gin.Context) {
		if c.GetHeader(AuthorizationHeader) == "" {
			c.Next()
			return
		}
		if authenticate(c, tokenManager) {
			c.Next()
		}
	}
}

// authenticate stores the claims of a valid access token, or writes 401 and aborts
func authenticate(c *gin.Context, tokenManager token.Manager) bool {
	tokenString, err := extractToken(c)
	if err == nil {
		var claims *token.Claims
		if claims, err = token.ValidateAs(tokenManager, tokenString, token.ACCESS); err == nil {
			setClaims(c, claims)
			return true
		}
	}

	// 에러 발생 지점에서 바로 로깅
	logger.FromContext(c.Request.Context()).Warn("JWT 인증 실패",
		"error", err.Error(),
		"client_ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_agent", c.Request.UserAgent(),
	)
	handleJWTError(c, mapTokenError(err))
	return false
}

// RequireAdmin must run after JWT
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sharedContext.IsAdmin(c) {
			logger.FromContext(c.Request.Context()).Warn("관리자 권한 없음",
				"member_id", c.GetString(sharedContext.MemberIDKey),
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(sharedError.Forbidden.Status, sharedError.Forbidden)
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *token.Claims) {
	c.Set(sharedContext.MemberIDKey, claims.MemberID)
	c.Set(sharedContext.MemberEmailKey, claims.Email)
	c.Set(sharedContext.MemberRoleKey, claims.Role)

	// 이후 서비스 로그에 회원 식별자가 함께 남도록 요청 로거에 바인딩
	c.Request = c.Request.WithContext(logger.With(c.Request.Context(), "member_id", claims.MemberID))
}

// handleJWTError writes the registered 401 body; logging is done by the caller
func handleJWTError(c *gin.Context, err error) {
	if resp, ok := sharedError.ResolveDomainError(err); ok {
		c.JSON(resp.Status, resp)
	} else {
		// 예상치 못한 에러 → Fallback 응답
		c.JSON(http.StatusUnauthorized, sharedError.ErrorResponse{
			Status:  http.StatusUnauthorized,
			Code:    "AUTH-999",
			Message: "인증에 실패했습니다.",
		})
	}
	c.Abort()
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], BearerScheme) {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return err
	case errors.Is(err, token.ErrExpiredToken):
		return ErrExpiredToken
	case errors.Is(err, token.ErrInvalidClaims), errors.Is(err, token.ErrWrongTokenType):
		return ErrInvalidClaims
	default:
		return ErrInvalidToken
	}
}
