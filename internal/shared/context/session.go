package context

import "github.com/gin-gonic/gin"

const (
	SessionTokenKey = "session_token"
	HashedIPKey     = "hashed_ip"
	UserAgentKey    = "user_agent"
)

// Session is the anonymous requester identity resolved by the session middleware
type Session struct {
	Token     string
	HashedIP  string
	UserAgent string
}

func GetSession(c *gin.Context) (Session, bool) {
	token := c.GetString(SessionTokenKey)
	if token == "" {
		return Session{}, false
	}
	return Session{
		Token:     token,
		HashedIP:  c.GetString(HashedIPKey),
		UserAgent: c.GetString(UserAgentKey),
	}, true
}
