package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/accounts"
	"github.com/anoixa/files-manager/internal/apperr"
	cryptopackage "github.com/anoixa/files-manager/utils/crypto"
)

const basicPrefix = "Basic "

// Service 注册、登录、token 解析与注销
type Service struct {
	users      *accounts.Repository
	sessions   *SessionStore
	hashParams cryptopackage.Params
}

// NewService 创建认证服务
func NewService(users *accounts.Repository, sessions *SessionStore) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		hashParams: cryptopackage.DefaultParams,
	}
}

// WithHashParams 覆盖 argon2 参数，仅影响之后注册的用户
func (s *Service) WithHashParams(p cryptopackage.Params) *Service {
	s.hashParams = p
	return s
}

// Register 创建新用户
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, apperr.ErrMissingEmail
	}
	if password == "" {
		return nil, apperr.ErrMissingPassword
	}

	exists, err := s.users.UserExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, apperr.ErrAlreadyExists
	}

	hash, err := cryptopackage.GenerateWithParams(password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, Password: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// 并发注册同一邮箱时唯一索引会拒绝第二次插入
		if exists, checkErr := s.users.UserExists(ctx, email); checkErr == nil && exists {
			return nil, apperr.ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Authenticate 校验 "Basic base64(email:password)" 并签发 token
func (s *Service) Authenticate(ctx context.Context, authorization string) (string, error) {
	email, password, ok := parseBasic(authorization)
	if !ok {
		return "", apperr.ErrUnauthorized
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", apperr.ErrUnauthorized
	}

	match, err := cryptopackage.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		if errors.Is(err, cryptopackage.ErrInvalidHash) {
			log.Printf("[Auth] Stored password hash for user %d is malformed", user.ID)
			return "", apperr.ErrUnauthorized
		}
		return "", err
	}
	if !match {
		return "", apperr.ErrUnauthorized
	}

	return s.sessions.Create(ctx, user.ID)
}

// Resolve token -> 用户ID
func (s *Service) Resolve(ctx context.Context, token string) (uint, error) {
	return s.sessions.Lookup(ctx, token)
}

// Revoke 注销 token
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Me 返回当前用户，用户已不存在时视为未认证
func (s *Service) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUnauthorized
	}
	return user, nil
}

// parseBasic 解析 Basic 认证头，按第一个 ':' 切分
func parseBasic(header string) (email, password string, ok bool) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicPrefix):]))
	if err != nil {
		return "", "", false
	}

	email, password, found := strings.Cut(string(decoded), ":")
	if !found || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}
