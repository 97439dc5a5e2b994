package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"golang.org/x/crypto/blake2b"
)

const (
	// tokenBytes gives 256 bits of entropy
	tokenBytes     = 32
	maxTokenLength = 100
)

// Manager mints anonymous session tokens and hashes client IPs.
// Tokens are opaque; a presented token is reused verbatim as the requester identity.
type Manager struct {
	secret     []byte
	cookieName string
	maxAge     int
	secure     bool
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		secret:     []byte(cfg.Session.Secret),
		cookieName: cfg.Session.CookieName,
		maxAge:     int(cfg.Session.MaxAge.Seconds()),
		secure:     cfg.Session.Secure,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) MaxAge() int {
	return m.maxAge
}

func (m *Manager) Secure() bool {
	return m.secure
}

// Resolve returns existing when it is a usable token, otherwise a freshly minted one
func (m *Manager) Resolve(existing string) (token string, created bool, err error) {
	if IsUsable(existing) {
		return existing, false, nil
	}

	token, err = NewToken()
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// HashIP returns a keyed BLAKE2b-256 digest of the client IP. Raw IPs are never stored.
func (m *Manager) HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	h, err := blake2b.New256(m.secret)
	if err != nil {
		// key longer than 64 bytes
		sum := blake2b.Sum256(append(append([]byte{}, m.secret...), ip...))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("세션 토큰 생성 실패: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IsUsable reports whether a client supplied token can be stored as-is
func IsUsable(token string) bool {
	if token == "" || len(token) > maxTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		ch := token[i]
		if ch < 0x21 || ch > 0x7e {
			return false
		}
	}
	return true
}
