package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService interface {
	RegisterUser(ctx context.Context, username, password, email string) (*models.User, error)
	// LoginUser 支持用户名或邮箱登录，成功时返回 JWT Token
	LoginUser(ctx context.Context, identifier, password string) (string, *models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) RegisterUser(ctx context.Context, username, password, email string) (*models.User, error) {
	//检查用户名是否存在
	existingUser, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if existingUser != nil {
		return nil, xerr.ErrUserAlreadyExists
	}

	//检查邮箱是否存在
	existingUser, err = s.userRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existingUser != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	//哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Status:       models.UserStatusNormal,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}

	logger.Info("RegisterUser: 用户注册成功", zap.Uint64("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, identifier, password string) (string, *models.User, error) {
	// 1. 先按用户名查找，未命中再按邮箱查找
	user, err := s.userRepo.GetUserByUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("failed to get user by username: %w", err)
		}
		user, err = s.userRepo.GetUserByEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 不泄露用户是否存在，与密码错误返回同一错误
				return "", nil, xerr.ErrInvalidCredentials
			}
			return "", nil, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	// 2. 验证密码
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, xerr.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusBanned {
		return "", nil, xerr.ErrForbidden
	}

	// 3. 生成 JWT Token
	tokenString, err := utils.GenerateToken(
		user.ID,
		user.Username,
		user.IsAdmin,
		s.cfg.JWT.SecretKey,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.ExpiresIn,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("LoginUser: 用户登录成功", zap.Uint64("userID", user.ID))
	return tokenString, user, nil
}
