package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)

	// 同一(user, product)は数量加算。新規作成ならcreated=true。
	AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) (created bool, err error)

	// 数量の置き換え。該当行が無ければErrNotFound。
	ReplaceQuantity(ctx context.Context, userID int64, productID int64, qty int64) error

	// 明細ID指定の削除（所有ユーザー一致が条件）
	DeleteByID(ctx context.Context, userID int64, entryID int64) error

	// 商品ID指定の削除
	DeleteByProduct(ctx context.Context, userID int64, productID int64) error

	// チェックアウト後のカート全消し
	ClearByUserID(ctx context.Context, userID int64) error
}
