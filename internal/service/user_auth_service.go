package service

import (
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuthService 用户令牌签发与校验；账号体系本身由上游系统维护
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 签发用户令牌，供联调与运营工具使用
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	hours := s.cfg.UserJWT.ExpireHours
	if hours <= 0 {
		hours = 168
	}
	now := time.Now()
	ttl := time.Duration(hours) * time.Hour
	claims := UserJWTClaims{
		UserID:           user.ID,
		Email:            user.Email,
		RegisteredClaims: newRegisteredClaims(subjectID(user.ID), s.cfg.UserJWT.Audience, ttl, now),
	}
	token, err := signHS256(claims, s.cfg.UserJWT.SecretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl), nil
}

// ParseUserJWT 解析用户令牌
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	return ParseUserToken(tokenString, s.cfg.UserJWT.SecretKey, s.cfg.UserJWT.Audience)
}

// LoadActiveUser 按令牌中的用户 ID 读取并校验账号状态
func (s *UserAuthService) LoadActiveUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}
	return user, nil
}
