package stats

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/repo"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// ProductSales is the per-variety rollup: kilograms sold and revenue.
type ProductSales struct {
	ProductName string          `gorm:"column:product_name"`
	TotalKG     decimal.Decimal `gorm:"column:total_kg"`
	TotalSum    decimal.Decimal `gorm:"column:total_sum"`
}

// StatusBreakdown is the count and revenue of orders in one status.
type StatusBreakdown struct {
	Count int64
	Sum   decimal.Decimal
}

// Repository is the read-only aggregation surface for dashboards. A non-nil
// ownerTgID scopes every query to orders on that seller's products.
type Repository interface {
	ProductSales(ctx context.Context, ownerTgID *int64) ([]ProductSales, error)
	OrderTotals(ctx context.Context, ownerTgID *int64) (int64, decimal.Decimal, error)
	StatusBreakdowns(ctx context.Context, ownerTgID *int64) (map[enums.OrderStatus]StatusBreakdown, error)
	CountByStatus(ctx context.Context, status enums.OrderStatus, ownerTgID *int64) (int64, error)
	ActiveUserCount(ctx context.Context) (int64, error)
	TastingSignupCount(ctx context.Context) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a stats repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func scopeToOwner(query *gorm.DB, ownerTgID *int64) *gorm.DB {
	if ownerTgID == nil {
		return query
	}
	return query.
		Joins("JOIN product_sizes ON orders.product_size_id = product_sizes.id").
		Joins("JOIN products ON product_sizes.product_id = products.id").
		Where("products.created_by = ?", *ownerTgID)
}

// ProductSales sums kilograms and revenue per variety across live statuses,
// heaviest varieties first.
func (r *repository) ProductSales(ctx context.Context, ownerTgID *int64) ([]ProductSales, error) {
	query := r.base.DB(ctx).
		Table("orders").
		Select("products.name AS product_name, "+
			"SUM(orders.product_count * sizes.kg) AS total_kg, "+
			"SUM(orders.total_price) AS total_sum").
		Joins("JOIN product_sizes ON orders.product_size_id = product_sizes.id").
		Joins("JOIN products ON product_sizes.product_id = products.id").
		Joins("JOIN sizes ON product_sizes.size_id = sizes.id").
		Where("orders.status_id IN ?", statusIDs(enums.ActiveStatuses())).
		Group("products.name").
		Order("total_kg DESC")
	if ownerTgID != nil {
		query = query.Where("products.created_by = ?", *ownerTgID)
	}

	var rows []ProductSales
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) OrderTotals(ctx context.Context, ownerTgID *int64) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64           `gorm:"column:count"`
		Sum   decimal.Decimal `gorm:"column:sum"`
	}
	query := scopeToOwner(r.base.DB(ctx).Table("orders"), ownerTgID).
		Select("COUNT(orders.id) AS count, COALESCE(SUM(orders.total_price), 0) AS sum")
	if err := query.Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Sum, nil
}

func (r *repository) StatusBreakdowns(ctx context.Context, ownerTgID *int64) (map[enums.OrderStatus]StatusBreakdown, error) {
	var rows []struct {
		StatusID int             `gorm:"column:status_id"`
		Count    int64           `gorm:"column:count"`
		Sum      decimal.Decimal `gorm:"column:sum"`
	}
	query := scopeToOwner(r.base.DB(ctx).Table("orders"), ownerTgID).
		Select("orders.status_id AS status_id, COUNT(orders.id) AS count, COALESCE(SUM(orders.total_price), 0) AS sum").
		Group("orders.status_id")
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	breakdowns := make(map[enums.OrderStatus]StatusBreakdown, len(rows))
	for _, row := range rows {
		breakdowns[enums.OrderStatus(row.StatusID)] = StatusBreakdown{Count: row.Count, Sum: row.Sum}
	}
	return breakdowns, nil
}

func (r *repository) CountByStatus(ctx context.Context, status enums.OrderStatus, ownerTgID *int64) (int64, error) {
	var count int64
	query := scopeToOwner(r.base.DB(ctx).Table("orders"), ownerTgID).
		Where("orders.status_id = ?", int(status))
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ActiveUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Table("users").
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// TastingSignupCount counts tasting sign-ups that have not been contacted yet.
func (r *repository) TastingSignupCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Table("sessions").
		Where("role_id = ?", int(enums.RoleDegustation)).
		Where("sent_message = ?", false).
		Count(&count).Error
	return count, err
}

func statusIDs(statuses []enums.OrderStatus) []int {
	ids := make([]int, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, int(s))
	}
	return ids
}
