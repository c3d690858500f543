package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 本人の注文だけを対象に1件取得。他人の注文はErrNotFound扱い。
	FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error)

	// 新しい順・ページング付き。2番目の戻り値は総件数。
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// 管理者用の全件一覧（新しい順）
	ListAll(ctx context.Context) ([]model.Order, error)

	// statusとlast_updatedを書き換える。時刻は呼び出し側のClockが決める。
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, updatedAt time.Time) error

	// 同じキーなら同じ注文を返すための検索
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}
