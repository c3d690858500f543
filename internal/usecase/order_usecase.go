package usecase

import (
	"context"
	"net/http"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// UUID等のIDを作る約束（チェックアウトのidempotency key用）
type IDGenerator interface {
	NewID() string
}

type OrderUsecase struct {
	tx    repo.TransactionManager
	idGen IDGenerator
	clock Clock
}

// DI
func NewOrderUsecase(tx repo.TransactionManager, idGen IDGenerator, clock Clock) *OrderUsecase {
	return &OrderUsecase{tx: tx, idGen: idGen, clock: clock}
}

type OrderItemOutput struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	OrderDate   time.Time         `json:"order_date"`
	TotalPrice  float64           `json:"total_price"`
	Status      string            `json:"status"`
	LastUpdated time.Time         `json:"last_updated"`
	Items       []OrderItemOutput `json:"items"`
}

type OrderHistoryOutput struct {
	TotalOrders int64         `json:"total_orders"`
	Page        int           `json:"page"`
	Limit       int           `json:"limit"`
	Data        []OrderOutput `json:"data"`
}

// Checkout はカートを注文に変換する。
// 注文作成・明細作成・在庫減算・カート削除は1つのトランザクションで行い、
// 途中失敗で部分的な注文が残らないようにする。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, idemKey string) (int64, error) {
	if userID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//キー未指定ならサーバ側で採番（同じリクエストの再送だけを束ねたいとき用）
	if idemKey == "" {
		idemKey = u.idGen.NewID()
	}

	var orderID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ注文を返す
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, idemKey)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
		}
		if found {
			orderID = existing.ID
			return nil
		}

		//カート明細を現在価格と結合して読む
		cartItems, err := r.Cart().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "Cart is empty.")
		}

		//合計はワークフロー側で計算する（ストア任せにしない）
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total float64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
			}

			//購入時点の単価スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				Price:     p.Price,
			})

			total += float64(ci.Quantity) * p.Price
		}

		//注文作成
		now := u.clock.Now()
		id, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			OrderDate:      now,
			TotalPrice:     total,
			Status:         model.OrderStatusPending,
			LastUpdated:    now,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
		}

		//注文明細を一括作成
		if err := r.OrderItems().CreateBulk(ctx, id, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
		}

		//在庫減算（足りなければ失敗させてロールバック。負在庫は作らない）
		for _, it := range orderItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "Insufficient stock.")
			}
		}

		//カートを空にする
		if err := r.Cart().ClearByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to place order")
		}

		orderID = id
		return nil
	})

	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// Cancel は本人のPending注文だけを取り消し、在庫を戻す。
// ステータス更新と在庫戻しは同一トランザクション。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "Order ID is required.")
	}

	var cancelled model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUser(ctx, orderID, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "Order not found or unauthorized.")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to cancel order")
		}

		//Pending以外は取り消し不可（在庫の二重戻しも防ぐ）
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "Order cannot be canceled as it is already processed.")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled, u.clock.Now()); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to cancel order")
		}

		//在庫戻し
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to cancel order")
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "Failed to cancel order")
			}
		}

		//更新後の注文を返す
		cancelled, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to cancel order")
		}
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}
	return cancelled, nil
}

// History は本人の注文履歴（新しい順・ページング付き）。
func (u *OrderUsecase) History(ctx context.Context, userID int64, page int, limit int) (OrderHistoryOutput, error) {
	if userID <= 0 {
		return OrderHistoryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}

	var out OrderHistoryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to fetch orders")
		}

		data := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "Failed to fetch orders")
			}
			data = append(data, toOrderOutput(o, items))
		}

		out = OrderHistoryOutput{
			TotalOrders: total,
			Page:        page,
			Limit:       limit,
			Data:        data,
		}
		return nil
	})

	if err != nil {
		return OrderHistoryOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		OrderDate:   o.OrderDate,
		TotalPrice:  o.TotalPrice,
		Status:      string(o.Status),
		LastUpdated: o.LastUpdated,
		Items:       outItems,
	}
}
