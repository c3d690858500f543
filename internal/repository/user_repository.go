package repository

import (
	"context"

	"shop/internal/domain/model"
)

// ユーザーの保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error

	FindByID(ctx context.Context, userID int64) (model.User, error)

	// username一致 OR email一致で1件取得する（ログイン用）
	FindByLogin(ctx context.Context, username string, email string) (model.User, error)

	// usernameかemailのどちらかが既に使われているか
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)

	Update(ctx context.Context, user model.User) error
}
