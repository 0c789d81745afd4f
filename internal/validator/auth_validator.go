package validator

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// パスワード最低文字数
const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	if len(password) < minPasswordLength {
		return usecase.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.NewHTTPError(http.StatusConflict, "email already used")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(_ context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}
