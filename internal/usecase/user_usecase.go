package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = time.Hour

// usecaseがValidatorInterfaceに依存する約束
type UserValidator interface {
	ValidateSignup(username, email, password string, role model.Role) error
	ValidateLogin(username, email, password string) error
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type UserUsecase struct {
	users     repo.UserRepository
	validator UserValidator
	clock     Clock
	jwtSecret []byte
}

// DI
func NewUserUsecase(users repo.UserRepository, validator UserValidator, clock Clock, jwtSecret string) *UserUsecase {
	return &UserUsecase{
		users:     users,
		validator: validator,
		clock:     clock,
		jwtSecret: []byte(jwtSecret),
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type ProfileOutput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// 任意項目だけ差し替えるプロフィール更新
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Password *string
}

func (u *UserUsecase) Signup(ctx context.Context, in SignupInput) error {
	role := model.Role(in.Role)
	if err := u.validator.ValidateSignup(in.Username, in.Email, in.Password, role); err != nil {
		return err
	}

	exists, err := u.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}
	if exists {
		return NewHTTPError(http.StatusBadRequest, "User already exists.")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	user := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(pwHash),
		Role:         role,
	}

	if err := u.users.Create(ctx, user); err != nil {
		// unique制約との競合もここに落ちる
		return NewHTTPError(http.StatusBadRequest, "User already exists.")
	}

	return nil
}

// ログイン成功でJWTを返す。失敗はどれも同じ400（理由を漏らさない）。
func (u *UserUsecase) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := u.validator.ValidateLogin(in.Username, in.Email, in.Password); err != nil {
		return "", err
	}

	user, err := u.users.FindByLogin(ctx, in.Username, in.Email)
	if err == repo.ErrNotFound {
		return "", NewHTTPError(http.StatusBadRequest, "Invalid username/email or password")
	}
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", NewHTTPError(http.StatusBadRequest, "Invalid username/email or password")
	}

	token, err := u.issueAccessToken(user)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	return token, nil
}

func (u *UserUsecase) Profile(ctx context.Context, userID int64) (ProfileOutput, error) {
	if userID <= 0 {
		return ProfileOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return ProfileOutput{}, NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return ProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to fetch profile")
	}

	return ProfileOutput{
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// 指定された項目だけを更新する。未指定は現状維持。
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Username == nil && in.Email == nil && in.Password == nil {
		return NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return NewHTTPError(http.StatusBadRequest, "Username cannot be empty")
		}
		user.Username = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return NewHTTPError(http.StatusBadRequest, "Email cannot be empty")
		}
		user.Email = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return NewHTTPError(http.StatusBadRequest, "Password cannot be empty")
		}
		pwHash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
		}
		user.PasswordHash = string(pwHash)
	}

	if err := u.users.Update(ctx, user); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}
	return nil
}

// jwt発行。claimsは {id, username, role}、有効期限1時間。
func (u *UserUsecase) issueAccessToken(user model.User) (string, error) {
	now := u.clock.Now()

	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(u.jwtSecret)
}
