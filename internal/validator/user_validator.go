package validator

import (
	"net/http"
	"net/mail"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/usecase"
)

type userValidator struct{}

// Usecaseは interface を依存注入
func NewUserValidator() usecase.UserValidator {
	return &userValidator{}
}

// サインアップの入力を検証
func (v *userValidator) ValidateSignup(username, email, password string, role model.Role) error {
	// 必須チェック
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" ||
		password == "" || role == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "Username, email, password, and role are required")
	}

	// roleはuser/adminのどちらか
	if !role.Valid() {
		return usecase.NewHTTPError(http.StatusBadRequest, "Invalid role. Choose either 'admin' or 'user'.")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.NewHTTPError(http.StatusBadRequest, "Invalid email format")
	}

	return nil
}

// ログインの入力を検証。identifierはusernameかemailのどちらかで良い。
func (v *userValidator) ValidateLogin(username, email, password string) error {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "Username or email is required")
	}
	if password == "" {
		return usecase.NewHTTPError(http.StatusBadRequest, "Password is required")
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil
}
