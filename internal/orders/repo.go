package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/repo"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// Repository is the Order Store persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Find(ctx context.Context, id int64) (*models.Order, error)
	ListByStatuses(ctx context.Context, statuses []enums.OrderStatus, ownerTgID *int64) ([]models.Order, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	FindExpiredDrafts(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.base.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Find loads an order with everything notification composers need: the
// customer, the assigned manager, the variant with its product and size, and
// the originating session.
func (r *repository) Find(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("User").
		Preload("Manager").
		Preload("ProductSize").
		Preload("ProductSize.Product").
		Preload("ProductSize.Size").
		Preload("ProductSize.Size.Package").
		Preload("Session").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStatuses returns orders in the given statuses, newest first. When
// ownerTgID is set, only orders for products created by that seller are
// returned; admins pass nil and see everything.
func (r *repository) ListByStatuses(ctx context.Context, statuses []enums.OrderStatus, ownerTgID *int64) ([]models.Order, error) {
	query := r.base.DB(ctx).
		Preload("User").
		Preload("Manager").
		Preload("ProductSize").
		Preload("ProductSize.Product").
		Preload("ProductSize.Size").
		Where("orders.status_id IN ?", statusIDs(statuses)).
		Where("orders.is_active = ?", true)

	if ownerTgID != nil {
		query = query.
			Joins("JOIN product_sizes ps ON ps.id = orders.product_size_id").
			Joins("JOIN products p ON p.id = ps.product_id").
			Where("p.created_by = ?", *ownerTgID)
	}

	var result []models.Order
	if err := query.Order("orders.created_at DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindExpiredDrafts returns active drafts untouched since cutoff. The sweep
// re-checks each order inside its own transaction before expiring it.
func (r *repository) FindExpiredDrafts(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var drafts []models.Order
	err := r.base.DB(ctx).
		Preload("Session").
		Where("status_id = ?", enums.OrderStatusDraft).
		Where("is_active = ?", true).
		Where("updated_at < ?", cutoff).
		Order("id ASC").
		Find(&drafts).Error
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func statusIDs(statuses []enums.OrderStatus) []int {
	ids := make([]int, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, int(s))
	}
	return ids
}
