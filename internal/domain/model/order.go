package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// 4つの正当なステータスか
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 終端ステータス（Cancelled / Delivered）か
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

// 注文本体。作成後に変わるのはstatusとlast_updatedだけ。
type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;index" json:"user_id"`
	OrderDate      time.Time   `gorm:"not null;autoCreateTime" json:"order_date"`
	TotalPrice     float64     `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	LastUpdated    time.Time   `gorm:"not null" json:"last_updated"`
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
