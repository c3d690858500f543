package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock

	// trueなら Pending→Shipped→Delivered / Pending→Cancelled 以外を拒否する。
	// 既定はfalse（4値の中なら無条件に書き換え）。
	strictTransitions bool
}

// DI
func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, strictTransitions bool) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock, strictTransitions: strictTransitions}
}

// 所有者のusernameと明細を足した管理者向けの行
type AdminOrderOutput struct {
	ID         int64             `json:"id"`
	OrderDate  time.Time         `json:"order_date"`
	TotalPrice float64           `json:"total_price"`
	Status     string            `json:"status"`
	Username   string            `json:"username"`
	Items      []OrderItemOutput `json:"items"`
}

type AdminOrderListOutput struct {
	Orders []AdminOrderOutput `json:"orders"`
}

// ListAll は全注文を所有者のusername付きで返す。
func (u *AdminOrderUsecase) ListAll(ctx context.Context) (AdminOrderListOutput, error) {
	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAll(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to retrieve orders")
		}

		rows := make([]AdminOrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "Failed to retrieve orders")
			}

			username := ""
			if owner, err := r.Users().FindByID(ctx, o.UserID); err == nil {
				username = owner.Username
			}

			row := toOrderOutput(o, items)
			rows = append(rows, AdminOrderOutput{
				ID:         row.ID,
				OrderDate:  row.OrderDate,
				TotalPrice: row.TotalPrice,
				Status:     row.Status,
				Username:   username,
				Items:      row.Items,
			})
		}

		out = AdminOrderListOutput{Orders: rows}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// UpdateStatus は管理者による任意の注文のステータス書き換え。
// 在庫には触れない（在庫戻しは利用者のキャンセル経路だけ）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, status string) (model.Order, error) {
	if orderID <= 0 || strings.TrimSpace(status) == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "Order ID and status are required.")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if !newStatus.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "Invalid status provided.")
	}

	var updated model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "Order not found.")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to update order status")
		}

		if u.strictTransitions && !transitionAllowed(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, "Invalid status transition.")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus, u.clock.Now()); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "Order not found.")
			}
			return NewHTTPError(http.StatusInternalServerError, "Failed to update order status")
		}

		updated, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "Failed to update order status")
		}
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}
	return updated, nil
}

// Pending → {Shipped → Delivered, Cancelled}、終端からは出られない
func transitionAllowed(from, to model.OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case model.OrderStatusPending:
		return to == model.OrderStatusShipped || to == model.OrderStatusCancelled
	case model.OrderStatusShipped:
		return to == model.OrderStatusDelivered
	}
	return false
}
