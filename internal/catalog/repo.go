package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/repo"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
)

// Repository is the read-mostly catalog persistence surface.
type Repository interface {
	FindProductSize(ctx context.Context, id int64) (*models.ProductSize, error)
	ListProductsByType(ctx context.Context, typeID int64) ([]models.Product, error)
	ListProductSizes(ctx context.Context, productID int64) ([]models.ProductSize, error)
	ListProductTypes(ctx context.Context) ([]models.ProductType, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
	FindSizeByName(ctx context.Context, name string) (*models.Size, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) FindProductSize(ctx context.Context, id int64) (*models.ProductSize, error) {
	var variant models.ProductSize
	err := r.base.DB(ctx).
		Preload("Product").
		Preload("Size").
		Preload("Size.Package").
		Where("id = ?", id).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) ListProductsByType(ctx context.Context, typeID int64) ([]models.Product, error) {
	var products []models.Product
	err := r.base.DB(ctx).
		Where("type_id = ? AND is_active = ? AND is_draft = ?", typeID, true, false).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListProductSizes(ctx context.Context, productID int64) ([]models.ProductSize, error) {
	var variants []models.ProductSize
	err := r.base.DB(ctx).
		Preload("Size").
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *repository) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	var types []models.ProductType
	if err := r.base.DB(ctx).Order("id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repository) ListPackages(ctx context.Context) ([]models.Package, error) {
	var packages []models.Package
	if err := r.base.DB(ctx).Order("id ASC").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *repository) FindSizeByName(ctx context.Context, name string) (*models.Size, error) {
	var size models.Size
	if err := r.base.DB(ctx).Where("name = ?", name).First(&size).Error; err != nil {
		return nil, err
	}
	return &size, nil
}
