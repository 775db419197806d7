// Package admin 管理后台会话
//
// 管理后台只有一个共享口令,登录成功后签发24小时有效的JWT,
// 登出时把令牌ID加入黑名单直到令牌自然过期。
package admin

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/jwt"
)

const (
	// Subject 管理员令牌的主体
	Subject = "admin"
	// Role 管理员角色
	Role = "admin"
)

// TokenBlacklist 令牌黑名单,由Redis或进程内存实现
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginUseCase 管理员登录用例
type LoginUseCase struct {
	admin      config.AdminConfig
	jwtManager *jwt.Manager
	log        *logrus.Logger
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(cfg *config.Config, jwtManager *jwt.Manager, log *logrus.Logger) *LoginUseCase {
	return &LoginUseCase{
		admin:      cfg.Admin,
		jwtManager: jwtManager,
		log:        log,
	}
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"` // 秒
	ExpiresAt   time.Time `json:"expires_at"`
}

// Execute 校验口令并签发令牌
func (uc *LoginUseCase) Execute(ctx context.Context, passcode string) (*LoginResponse, error) {
	if !uc.verify(passcode) {
		uc.log.Warn("admin login rejected")
		return nil, apperrors.ErrInvalidPasscode
	}

	token, err := uc.jwtManager.GenerateToken(Subject, Role)
	if err != nil {
		return nil, err
	}

	uc.log.WithField("expires_at", token.ExpiresAt).Info("admin logged in")
	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// verify bcrypt哈希优先;未配置任何口令时拒绝所有登录
func (uc *LoginUseCase) verify(passcode string) bool {
	if passcode == "" {
		return false
	}
	if uc.admin.PasscodeHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(uc.admin.PasscodeHash), []byte(passcode)) == nil
	}
	if uc.admin.Passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(uc.admin.Passcode), []byte(passcode)) == 1
}

// LogoutUseCase 管理员登出用例
type LogoutUseCase struct {
	blacklist TokenBlacklist
	log       *logrus.Logger
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(blacklist TokenBlacklist, log *logrus.Logger) *LogoutUseCase {
	return &LogoutUseCase{blacklist: blacklist, log: log}
}

// Execute 将令牌加入黑名单,有效期为令牌剩余时间
func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims) error {
	ttl := claims.Remaining(time.Now())
	if err := uc.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	uc.log.WithField("token_id", claims.ID).Info("admin logged out")
	return nil
}
