package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/member"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db               *gorm.DB
	memberRepository *member.MemberRepository
	tokenManager     token.Manager
	adminEmails      []string
}

func NewAuthService(db *gorm.DB, memberRepository *member.MemberRepository, tokenManager token.Manager, adminEmails []string) *AuthService {
	normalized := make([]string, 0, len(adminEmails))
	for _, email := range adminEmails {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(email)))
	}
	return &AuthService{
		db:               db,
		memberRepository: memberRepository,
		tokenManager:     tokenManager,
		adminEmails:      normalized,
	}
}

func (a *AuthService) Login(ctx context.Context, request *LoginRequest) (*TokenResponse, error) {
	log := logger.FromContext(ctx)

	// 1. Find member by email
	member, err := a.memberRepository.FindByEmail(ctx, a.db, request.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("로그인 실패 - member email not found", "email", logger.MaskEmail(request.Email))
			return nil, fmt.Errorf("error %w", ErrInCorrectEmailPassword) // Security: don't reveal if email exists
		}
		log.Error("로그인 실패 - 알 수 없는 오류", "error", err)
		return nil, fmt.Errorf("로그인 실패: %w", err)
	}

	// 2. Validate password
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(request.Password)); err != nil {
		log.Warn("로그인 실패 - invalid password", "email", logger.MaskEmail(request.Email))
		return nil, fmt.Errorf("error %w", ErrInCorrectEmailPassword)
	}

	// 3. Generate JWT tokens (role claim은 관리자 API 접근 판별에 사용)
	response, err := a.issueTokens(ctx, member)
	if err != nil {
		return nil, err
	}

	log.Info("로그인 성공", "email", logger.MaskEmail(request.Email), "role", member.Role)
	return response, nil
}

// Refresh rotates the token pair. The role is re-read from the member row so a
// promotion or demotion takes effect without waiting for the refresh token to expire.
func (a *AuthService) Refresh(ctx context.Context, request *RefreshRequest) (*TokenResponse, error) {
	log := logger.FromContext(ctx)

	claims, err := token.ValidateAs(a.tokenManager, request.RefreshToken, token.REFRESH)
	if err != nil {
		log.Warn("refresh token 검증 실패", "error", err)
		return nil, fmt.Errorf("refresh token: %v %w", err, ErrInvalidRefreshToken)
	}

	memberID, err := strconv.ParseUint(claims.MemberID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("refresh token member_id=%q %w", claims.MemberID, ErrInvalidRefreshToken)
	}

	member, err := a.memberRepository.FindByID(ctx, a.db, uint32(memberID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("refresh 대상 회원 없음", "member_id", memberID)
			return nil, fmt.Errorf("memberID=%d %w", memberID, ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("회원 조회 실패: %w", err)
	}

	response, err := a.issueTokens(ctx, member)
	if err != nil {
		return nil, err
	}

	log.Info("토큰 재발급", "member_id", memberID, "role", member.Role)
	return response, nil
}

func (a *AuthService) issueTokens(ctx context.Context, member *model.Member) (*TokenResponse, error) {
	log := logger.FromContext(ctx)
	memberID := strconv.FormatUint(uint64(member.ID), 10)

	accessToken, err := a.tokenManager.GenerateAccessToken(memberID, member.Email, member.Role)
	if err != nil {
		log.Error("access token 생성 실패", "error", err)
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := a.tokenManager.GenerateRefreshToken(memberID, member.Email, member.Role)
	if err != nil {
		log.Error("refresh token 생성 실패", "error", err)
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         member.Role,
	}, nil
}

func (a *AuthService) Signup(ctx context.Context, request *SignupRequest) error {
	log := logger.FromContext(ctx)
	return database.WithTransaction(ctx, a.db, func(tx *gorm.DB) error {
		exists, err := a.memberRepository.IsExist(ctx, tx, request.Email)
		if err != nil {
			log.Error("Failed to check member existence", "error", err)
			return fmt.Errorf("check member existence: %w", err)
		}
		if exists {
			log.Warn("Member already exists", "email", logger.MaskEmail(request.Email))
			return fmt.Errorf("error %w", member.ErrMemberAlreadyExists)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", "error", err)
			return fmt.Errorf("hash password: %w", err)
		}

		member := model.NewMember(request.Name, request.Email, request.PhoneNumber, string(hashedPassword))
		if slices.Contains(a.adminEmails, strings.ToLower(request.Email)) {
			member.Role = model.RoleAdmin
		}
		if err := a.memberRepository.Create(ctx, tx, member); err != nil {
			log.Error("Failed to create member", "error", err)
			return fmt.Errorf("create member: %w", err)
		}

		log.Info("Member created successfully", "email", logger.MaskEmail(request.Email), "role", member.Role)
		return nil
	})
}
