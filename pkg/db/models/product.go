package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is a read-mostly catalog dimension (honey varieties etc.).
type ProductType struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;size:100;not null;uniqueIndex"`
}

// TableName implements the GORM naming override.
func (ProductType) TableName() string { return "product_types" }

// Package is the physical container a size maps to (jar, bucket).
type Package struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;size:100;not null"`
}

// TableName implements the GORM naming override.
func (Package) TableName() string { return "packages" }

// Product is a catalog entry owned by the seller who created it.
type Product struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string           `gorm:"column:name;size:255;not null"`
	TypeID      int64            `gorm:"column:type_id;not null"`
	Description *string          `gorm:"column:description"`
	CreatedBy   int64            `gorm:"column:created_by;not null"`
	UpdatedBy   *int64           `gorm:"column:updated_by"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	IsDraft     bool             `gorm:"column:is_draft;not null;default:true"`
	Quantity    *decimal.Decimal `gorm:"column:quantity;type:numeric(5,1)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	ProductType  *ProductType  `gorm:"foreignKey:TypeID"`
	ProductSizes []ProductSize `gorm:"foreignKey:ProductID"`
}

// TableName implements the GORM naming override.
func (Product) TableName() string { return "products" }

// Size names the weight of a variant in kilograms ("0.5", "1", "3").
type Size struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string           `gorm:"column:name;size:50;not null"`
	KG        decimal.Decimal  `gorm:"column:kg;type:numeric(4,2);not null"`
	PackageID *int64           `gorm:"column:package_id"`
	VolumeML  *int             `gorm:"column:volume_ml"`

	Package *Package `gorm:"foreignKey:PackageID"`
}

// TableName implements the GORM naming override.
func (Size) TableName() string { return "sizes" }

// ProductSize is the sellable (product, size) variant; price lives here.
// Orders snapshot the price at selection time, so later edits never
// retroactively change existing orders.
type ProductSize struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64           `gorm:"column:product_id;not null;index"`
	SizeID    int64           `gorm:"column:size_id;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(5,1);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
	Size    *Size    `gorm:"foreignKey:SizeID"`
}

// TableName implements the GORM naming override.
func (ProductSize) TableName() string { return "product_sizes" }
