package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// OrderStatusRow mirrors the order_statuses reference table. The ids are
// fixed business vocabulary, see enums.OrderStatus.
type OrderStatusRow struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;size:50;not null;uniqueIndex"`
}

// TableName implements the GORM naming override.
func (OrderStatusRow) TableName() string { return "order_statuses" }

// Order is the central entity: one customer's request for a product variant.
//
// Invariants enforced by the coordinator (and mirrored by DB checks):
// product_count > 0, total_price >= 0 and always unit price × count, status
// only moves along the life-cycle graph, manager_id is set exactly once.
type Order struct {
	ID               int64             `gorm:"column:id;primaryKey;autoIncrement"`
	TgUserID         int64             `gorm:"column:tg_user_id;not null;index"`
	ManagerID        *int64            `gorm:"column:manager_id"`
	ProductSizeID    int64             `gorm:"column:product_size_id;not null"`
	StatusID         enums.OrderStatus `gorm:"column:status_id;not null;index"`
	ProductCount     int               `gorm:"column:product_count;not null"`
	TotalPrice       decimal.Decimal   `gorm:"column:total_price;type:numeric(7,1);not null"`
	CustomerComment  *string           `gorm:"column:customer_comment;size:255"`
	ManagerComment   *string           `gorm:"column:manager_comment;size:255"`
	IsActive         bool              `gorm:"column:is_active;not null;default:true"`
	RequiredDelivery bool              `gorm:"column:required_delivery;not null;default:false"`
	SessionID        int64             `gorm:"column:session_id;not null"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`

	User        *User        `gorm:"foreignKey:TgUserID;references:TgUserID"`
	Manager     *User        `gorm:"foreignKey:ManagerID;references:TgUserID"`
	ProductSize *ProductSize `gorm:"foreignKey:ProductSizeID"`
	Session     *Session     `gorm:"foreignKey:SessionID"`
}

// TableName implements the GORM naming override.
func (Order) TableName() string { return "orders" }

// UnitPrice returns the snapshotted per-unit price derived from the stored
// total; callers inside a transition should prefer the loaded variant price.
func (o Order) UnitPrice() decimal.Decimal {
	if o.ProductCount <= 0 {
		return decimal.Zero
	}
	return o.TotalPrice.Div(decimal.NewFromInt(int64(o.ProductCount)))
}
