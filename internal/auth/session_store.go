package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/files-manager/cache"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/google/uuid"
)

const (
	// SessionTTL 会话有效期
	SessionTTL = 24 * time.Hour

	sessionKeyPrefix = "auth_"
)

// Session 会话存储值
type Session struct {
	UserID    uint      `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore token -> 用户ID 的映射，过期时间固定
type SessionStore struct {
	provider cache.Provider
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(provider cache.Provider) *SessionStore {
	return &SessionStore{
		provider: provider,
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

// WithClock 替换时钟，用于测试过期逻辑
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Create 为用户创建新会话并返回 token
func (s *SessionStore) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	session := Session{
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.provider.Set(ctx, sessionKey(token), session, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Lookup 解析 token，不存在或已过期返回 ErrUnauthorized
func (s *SessionStore) Lookup(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, apperr.ErrUnauthorized
	}

	var session Session
	if err := s.provider.Get(ctx, sessionKey(token), &session); err != nil {
		if cache.IsCacheMiss(err) {
			return 0, apperr.ErrUnauthorized
		}
		return 0, fmt.Errorf("failed to read session: %w", err)
	}

	if session.UserID == 0 || !s.now().Before(session.ExpiresAt) {
		_ = s.provider.Delete(ctx, sessionKey(token))
		return 0, apperr.ErrUnauthorized
	}
	return session.UserID, nil
}

// Delete 删除会话，token 未知时返回 ErrUnauthorized
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.Lookup(ctx, token); err != nil {
		return err
	}
	if err := s.provider.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
