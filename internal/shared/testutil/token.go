package testutil

import (
	"strconv"
	"testing"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/token"
)

// MockTokenManager is a mock implementation of token.Manager for testing
type MockTokenManager struct {
	GenerateAccessTokenFunc  func(memberID, email, role string) (string, error)
	GenerateRefreshTokenFunc func(memberID, email, role string) (string, error)
	ValidateTokenFunc        func(tokenString string) (*token.Claims, error)
}

func (m *MockTokenManager) GenerateAccessToken(memberID, email, role string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(memberID, email, role)
	}
	return "mock-access-token", nil
}

func (m *MockTokenManager) GenerateRefreshToken(memberID, email, role string) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(memberID, email, role)
	}
	return "mock-refresh-token", nil
}

func (m *MockTokenManager) ValidateToken(tokenString string) (*token.Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, nil
}

// Ensure MockTokenManager implements token.Manager
var _ token.Manager = (*MockTokenManager)(nil)

// NewMockTokenManager creates a new mock token manager with default behavior
func NewMockTokenManager() *MockTokenManager {
	return &MockTokenManager{}
}

// BearerHeader issues a real access token signed with cfg and returns it as request headers
func BearerHeader(t *testing.T, cfg *config.Config, memberID uint32, role string) map[string]string {
	t.Helper()

	accessToken, err := token.NewJWTManager(cfg).GenerateAccessToken(strconv.FormatUint(uint64(memberID), 10), "member@test.com", role)
	if err != nil {
		t.Fatalf("Failed to issue access token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + accessToken}
}
