package stats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/orders"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

type fakeOrderLister struct {
	gotStatuses []enums.OrderStatus
	gotOwner    *int64
	result      []models.Order
}

func (f *fakeOrderLister) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderLister) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (f *fakeOrderLister) Find(ctx context.Context, id int64) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderLister) ListByStatuses(ctx context.Context, statuses []enums.OrderStatus, ownerTgID *int64) ([]models.Order, error) {
	f.gotStatuses = statuses
	f.gotOwner = ownerTgID
	return f.result, nil
}

func (f *fakeOrderLister) Update(ctx context.Context, id int64, updates map[string]any) error {
	return nil
}

func (f *fakeOrderLister) FindExpiredDrafts(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func TestCardPagerList_ownerSeesEverything(t *testing.T) {
	lister := &fakeOrderLister{}
	pager := NewCardPager(lister, 555)

	if _, err := pager.List(context.Background(), 555, nil); err != nil {
		t.Fatalf("List: %v", err)
	}
	if lister.gotOwner != nil {
		t.Fatalf("owner must see all sellers, got scope %v", lister.gotOwner)
	}
	if len(lister.gotStatuses) != len(enums.ArchiveStatuses()) {
		t.Fatalf("nil filter must select the archive, got %v", lister.gotStatuses)
	}
}

func TestCardPagerList_sellerIsScoped(t *testing.T) {
	lister := &fakeOrderLister{}
	pager := NewCardPager(lister, 555)
	created := enums.OrderStatusCreated

	if _, err := pager.List(context.Background(), 777, &created); err != nil {
		t.Fatalf("List: %v", err)
	}
	if lister.gotOwner == nil || *lister.gotOwner != 777 {
		t.Fatalf("seller must only see own products, got scope %v", lister.gotOwner)
	}
	if len(lister.gotStatuses) != 1 || lister.gotStatuses[0] != created {
		t.Fatalf("filter must narrow to one status, got %v", lister.gotStatuses)
	}
}

func TestParseNavIndex(t *testing.T) {
	if index, ok := ParseNavIndex(PrevToken(2)); !ok || index != 2 {
		t.Fatalf("ParseNavIndex(prev) = %d, %v", index, ok)
	}
	if index, ok := ParseNavIndex(NextToken(4)); !ok || index != 4 {
		t.Fatalf("ParseNavIndex(next) = %d, %v", index, ok)
	}
	for _, data := range []string{"owner_order_prev_", "owner_order_next_x", "owner_order_prev_-1", "back_menu", ""} {
		if _, ok := ParseNavIndex(data); ok {
			t.Fatalf("ParseNavIndex(%q) must fail", data)
		}
	}
}

func TestParseFilter(t *testing.T) {
	created := enums.OrderStatusCreated
	filter, ok := ParseFilter(FilterToken(&created))
	if !ok || filter == nil || *filter != created {
		t.Fatalf("ParseFilter(created) = %v, %v", filter, ok)
	}

	filter, ok = ParseFilter(FilterToken(nil))
	if !ok || filter != nil {
		t.Fatalf("ParseFilter(all) = %v, %v", filter, ok)
	}

	// legacy serialization of the empty filter
	filter, ok = ParseFilter("owner_order_filter_None")
	if !ok || filter != nil {
		t.Fatalf("ParseFilter(None) = %v, %v", filter, ok)
	}

	if _, ok := ParseFilter("owner_order_filter_99"); ok {
		t.Fatal("unknown status id must not parse")
	}
	if _, ok := ParseFilter("back_menu"); ok {
		t.Fatal("foreign tokens must not parse as filters")
	}
}

func cardOrder(status enums.OrderStatus) *models.Order {
	name := "Иван"
	return &models.Order{
		ID:           12,
		TgUserID:     1001,
		StatusID:     status,
		ProductCount: 2,
		TotalPrice:   decimal.NewFromInt(1900),
		CreatedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		User:         &models.User{TgUserID: 1001, Firstname: &name},
		ProductSize: &models.ProductSize{
			Product: &models.Product{Name: "Липовый"},
			Size:    &models.Size{Name: "1"},
		},
	}
}

func TestRenderCard_navigationBounds(t *testing.T) {
	order := cardOrder(enums.OrderStatusReceived)

	// first of three: only forward navigation
	_, markup := RenderCard(order, 0, 3)
	nav := markup[0]
	if len(nav) != 1 || nav[0].Data != NextToken(1) {
		t.Fatalf("unexpected nav row at index 0: %+v", nav)
	}

	// middle: both directions
	_, markup = RenderCard(order, 1, 3)
	nav = markup[0]
	if len(nav) != 2 || nav[0].Data != PrevToken(0) || nav[1].Data != NextToken(2) {
		t.Fatalf("unexpected nav row at index 1: %+v", nav)
	}

	// single order: no nav row, filter row comes first
	_, markup = RenderCard(order, 0, 1)
	if markup[0][0].Data == PrevToken(0) || markup[0][0].Data == NextToken(1) {
		t.Fatalf("single card must have no nav row: %+v", markup[0])
	}
}

func TestRenderCard_actionsFollowStatus(t *testing.T) {
	text, markup := RenderCard(cardOrder(enums.OrderStatusCreated), 0, 1)
	if markup[0][0].Data != orders.ConfirmToken(12) || markup[0][1].Data != orders.DeclineToken(12) {
		t.Fatalf("created card must offer confirm/decline: %+v", markup[0])
	}
	if !strings.Contains(text, "Создан") {
		t.Fatalf("card must show the status title: %s", text)
	}
	if !strings.Contains(text, "📍 1 из 1") {
		t.Fatalf("card must show the position: %s", text)
	}

	_, markup = RenderCard(cardOrder(enums.OrderStatusProcessing), 0, 1)
	if markup[0][0].Data != orders.ReadyToken(12) {
		t.Fatalf("processing card must offer the ready action: %+v", markup[0])
	}

	created := enums.OrderStatusCreated
	_, markup = RenderCard(cardOrder(enums.OrderStatusReceived), 0, 1)
	if markup[0][0].Data != FilterToken(&created) {
		t.Fatalf("terminal card must have no action row: %+v", markup[0])
	}
	last := markup[len(markup)-1]
	if last[0].Data != backMenuToken {
		t.Fatalf("card must end with the back button: %+v", last)
	}
}
