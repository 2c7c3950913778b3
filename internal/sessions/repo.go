package sessions

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/repo"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// Repository is the Session Ledger persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tgUserID int64, role enums.Role, lastAction *models.LastAction) (*models.Session, error)
	Get(ctx context.Context, id int64) (*models.Session, error)
	UpdateLastAction(ctx context.Context, id int64, lastAction *models.LastAction) error
	Finish(ctx context.Context, id int64) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds a session repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, tgUserID int64, role enums.Role, lastAction *models.LastAction) (*models.Session, error) {
	session := &models.Session{
		TgUserID:   tgUserID,
		RoleID:     role,
		LastAction: lastAction,
		IsActive:   true,
	}
	if err := r.base.DB(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*models.Session, error) {
	var session models.Session
	if err := r.base.DB(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) UpdateLastAction(ctx context.Context, id int64, lastAction *models.LastAction) error {
	return r.base.DB(ctx).
		Model(&models.Session{ID: id}).
		Select("last_action", "updated_at").
		Updates(&models.Session{LastAction: lastAction, UpdatedAt: time.Now().UTC()}).Error
}

func (r *repository) Finish(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.base.DB(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":   false,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}
