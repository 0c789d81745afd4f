package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type LogoutAllResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	validator AuthValidator
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	validator AuthValidator,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.createUser(ctx, strings.TrimSpace(req.Email), req.Password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

// パスワードは必ずハッシュ化して保存（平文保存しない）
func (u *AuthUsecase) createUser(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		// unique違反も含めて競合扱い
		u.logger.Warn("create user", zap.String("email", email), zap.Error(err))
		return nil, NewHTTPError(http.StatusConflict, "email already used")
	}
	return user, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//last_login更新（失敗してもログインは続ける）
	now := u.now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.logger.Warn("update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, internalError(err)
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, unauthorizedError()
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, unauthorizedError()
	}
	if !user.IsActive {
		return nil, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_versionを上げて発行済みのaccess tokenを全部無効にする
func (u *AuthUsecase) LogoutAll(ctx context.Context, userID int64) (*LogoutAllResponse, error) {
	if userID <= 0 {
		return nil, unauthorizedError()
	}

	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorizedError()
		}
		return nil, internalError(err)
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, internalError(err)
	}

	return &LogoutAllResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// 起動時に管理者ユーザーを用意する。既にいればロールだけ合わせる。
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if user != nil {
		if user.Role == model.RoleAdmin {
			return nil
		}
		user.Role = model.RoleAdmin
		if err := u.users.Update(ctx, user); err != nil {
			return err
		}
		u.logger.Info("promoted user to admin", zap.Int64("user_id", user.ID))
		return nil
	}

	created, err := u.createUser(ctx, email, password, model.RoleAdmin)
	if err != nil {
		return err
	}
	u.logger.Info("created admin user", zap.Int64("user_id", created.ID))
	return nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
