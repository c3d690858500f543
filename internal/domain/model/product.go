package model

type Product struct {
	ID       int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Category string  `gorm:"type:varchar(100);not null" json:"category"`
	Image    string  `gorm:"type:text;not null" json:"image"`
	Stock    int64   `gorm:"not null;default:100" json:"stock"`
}
