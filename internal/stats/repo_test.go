package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

const (
	sellerLinden    = int64(3003)
	sellerBuckwheat = int64(4004)
)

func setupStatsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tg_user_id INTEGER NOT NULL UNIQUE,
  username TEXT,
  firstname TEXT,
  phone_number TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_bot INTEGER NOT NULL DEFAULT 0,
  source_id INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tg_user_id INTEGER NOT NULL,
  role_id INTEGER NOT NULL DEFAULT 1,
  last_action TEXT,
  sent_message INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  finished_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  type_id INTEGER NOT NULL,
  description TEXT,
  created_by INTEGER NOT NULL,
  updated_by INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_draft INTEGER NOT NULL DEFAULT 0,
  quantity NUMERIC,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sizes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  kg NUMERIC NOT NULL,
  package_id INTEGER,
  volume_ml INTEGER
);`,
		`CREATE TABLE IF NOT EXISTS product_sizes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL,
  size_id INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  tg_user_id INTEGER NOT NULL,
  manager_id INTEGER,
  product_size_id INTEGER NOT NULL,
  status_id INTEGER NOT NULL,
  product_count INTEGER NOT NULL,
  total_price NUMERIC NOT NULL,
  customer_comment TEXT,
  manager_comment TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  required_delivery INTEGER NOT NULL DEFAULT 0,
  session_id INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// seedShop creates two sellers with one variant each plus a customer, and
// returns the two variant ids. Linden sells 1kg at 950, buckwheat 0.5kg at 500.
func seedShop(t *testing.T, db *gorm.DB) (linden, buckwheat *models.ProductSize) {
	t.Helper()

	name := "Иван"
	require.NoError(t, db.Create(&models.User{TgUserID: 1001, Firstname: &name, IsActive: true}).Error)

	lindenProduct := &models.Product{Name: "Липовый", TypeID: 1, CreatedBy: sellerLinden, IsActive: true}
	require.NoError(t, db.Create(lindenProduct).Error)
	buckwheatProduct := &models.Product{Name: "Гречишный", TypeID: 1, CreatedBy: sellerBuckwheat, IsActive: true}
	require.NoError(t, db.Create(buckwheatProduct).Error)

	kg1 := &models.Size{Name: "1", KG: decimal.NewFromInt(1)}
	require.NoError(t, db.Create(kg1).Error)
	kgHalf := &models.Size{Name: "0.5", KG: decimal.RequireFromString("0.5")}
	require.NoError(t, db.Create(kgHalf).Error)

	linden = &models.ProductSize{ProductID: lindenProduct.ID, SizeID: kg1.ID, Price: decimal.NewFromInt(950), IsActive: true}
	require.NoError(t, db.Create(linden).Error)
	buckwheat = &models.ProductSize{ProductID: buckwheatProduct.ID, SizeID: kgHalf.ID, Price: decimal.NewFromInt(500), IsActive: true}
	require.NoError(t, db.Create(buckwheat).Error)
	return linden, buckwheat
}

func seedStatsOrder(t *testing.T, db *gorm.DB, variant *models.ProductSize, status enums.OrderStatus, count int, total int64) {
	t.Helper()
	order := &models.Order{
		TgUserID:      1001,
		ProductSizeID: variant.ID,
		StatusID:      status,
		ProductCount:  count,
		TotalPrice:    decimal.NewFromInt(total),
		IsActive:      true,
		SessionID:     1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Create(order).Error)
}

func TestRepository_ProductSales(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	linden, buckwheat := seedShop(t, db)

	seedStatsOrder(t, db, linden, enums.OrderStatusReceived, 2, 1900)
	seedStatsOrder(t, db, linden, enums.OrderStatusProcessing, 1, 950)
	seedStatsOrder(t, db, buckwheat, enums.OrderStatusCreated, 2, 1000)
	// drafts and terminal failures stay out of the dashboard
	seedStatsOrder(t, db, linden, enums.OrderStatusDraft, 5, 4750)
	seedStatsOrder(t, db, buckwheat, enums.OrderStatusDeclined, 3, 1500)

	rows, err := repo.ProductSales(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// heaviest variety first: linden 3kg, buckwheat 1kg
	require.Equal(t, "Липовый", rows[0].ProductName)
	require.True(t, rows[0].TotalKG.Equal(decimal.NewFromInt(3)), "total_kg = %s", rows[0].TotalKG)
	require.True(t, rows[0].TotalSum.Equal(decimal.NewFromInt(2850)), "total_sum = %s", rows[0].TotalSum)
	require.Equal(t, "Гречишный", rows[1].ProductName)
	require.True(t, rows[1].TotalKG.Equal(decimal.NewFromInt(1)), "total_kg = %s", rows[1].TotalKG)
	require.True(t, rows[1].TotalSum.Equal(decimal.NewFromInt(1000)), "total_sum = %s", rows[1].TotalSum)
}

func TestRepository_ProductSales_scopedToSeller(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	linden, buckwheat := seedShop(t, db)

	seedStatsOrder(t, db, linden, enums.OrderStatusReceived, 2, 1900)
	seedStatsOrder(t, db, buckwheat, enums.OrderStatusCreated, 2, 1000)

	seller := sellerLinden
	rows, err := repo.ProductSales(ctx, &seller)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Липовый", rows[0].ProductName)
}

func TestRepository_OrderTotals(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	linden, buckwheat := seedShop(t, db)

	seedStatsOrder(t, db, linden, enums.OrderStatusReceived, 2, 1900)
	seedStatsOrder(t, db, buckwheat, enums.OrderStatusCreated, 2, 1000)

	count, sum, err := repo.OrderTotals(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.True(t, sum.Equal(decimal.NewFromInt(2900)), "sum = %s", sum)

	seller := sellerBuckwheat
	count, sum, err = repo.OrderTotals(ctx, &seller)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.True(t, sum.Equal(decimal.NewFromInt(1000)), "sum = %s", sum)
}

func TestRepository_OrderTotals_emptyShop(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)

	count, sum, err := repo.OrderTotals(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, count)
	require.True(t, sum.IsZero(), "sum = %s", sum)
}

func TestRepository_StatusBreakdownsAndCounts(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	linden, _ := seedShop(t, db)

	seedStatsOrder(t, db, linden, enums.OrderStatusCreated, 1, 950)
	seedStatsOrder(t, db, linden, enums.OrderStatusCreated, 2, 1900)
	seedStatsOrder(t, db, linden, enums.OrderStatusReceived, 1, 950)

	breakdowns, err := repo.StatusBreakdowns(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, breakdowns[enums.OrderStatusCreated].Count)
	require.True(t, breakdowns[enums.OrderStatusCreated].Sum.Equal(decimal.NewFromInt(2850)))
	require.EqualValues(t, 1, breakdowns[enums.OrderStatusReceived].Count)

	newOrders, err := repo.CountByStatus(ctx, enums.OrderStatusCreated, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, newOrders)
}

func TestRepository_UserAndSignupCounts(t *testing.T) {
	db := setupStatsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	name := "Иван"
	require.NoError(t, db.Create(&models.User{TgUserID: 1, Firstname: &name, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.User{TgUserID: 2, Firstname: &name, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.User{TgUserID: 3, Firstname: &name, IsActive: false}).Error)

	require.NoError(t, db.Create(&models.Session{TgUserID: 1, RoleID: enums.RoleDegustation}).Error)
	require.NoError(t, db.Create(&models.Session{TgUserID: 2, RoleID: enums.RoleDegustation, SentMessage: true}).Error)
	require.NoError(t, db.Create(&models.Session{TgUserID: 1, RoleID: enums.RoleCustomer}).Error)

	users, err := repo.ActiveUserCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, users)

	signups, err := repo.TastingSignupCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, signups)
}
