package token

import (
	"errors"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("token: invalid token")
	ErrExpiredToken   = errors.New("token: expired token")
	ErrInvalidClaims  = errors.New("token: invalid claims")
	ErrWrongTokenType = errors.New("token: unexpected token type")
)

const (
	ACCESS  = "access"
	REFRESH = "refresh"
)

// Claims carries exp/iat only through RegisteredClaims so the parser validates them
type Claims struct {
	MemberID  string `json:"member_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Manager interface {
	GenerateAccessToken(memberID, email, role string) (string, error)
	GenerateRefreshToken(memberID, email, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ValidateAs validates the token and requires it to be of the given type,
// so a refresh token cannot be replayed as an access token and vice versa.
func ValidateAs(m Manager, tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims == nil || claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

type JWTManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	clock         clock.Clock
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:        []byte(cfg.JWT.Secret),
		issuer:        cfg.App.Name,
		accessExpiry:  cfg.JWT.Expiry,
		refreshExpiry: cfg.JWT.RefreshExpiry,
		clock:         clock.New(),
	}
}

// WithClock pins issue and validation time
func (m *JWTManager) WithClock(c clock.Clock) *JWTManager {
	copied := *m
	copied.clock = c
	return &copied
}

func (m *JWTManager) GenerateAccessToken(memberID, email, role string) (string, error) {
	return m.issue(ACCESS, m.accessExpiry, memberID, email, role)
}

func (m *JWTManager) GenerateRefreshToken(memberID, email, role string) (string, error) {
	return m.issue(REFRESH, m.refreshExpiry, memberID, email, role)
}

func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.MemberID == "" || claims.MemberID != claims.Subject {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

func (m *JWTManager) issue(tokenType string, ttl time.Duration, memberID, email, role string) (string, error) {
	if memberID == "" {
		return "", ErrInvalidClaims
	}

	now := m.clock.Now()
	claims := Claims{
		MemberID:  memberID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
