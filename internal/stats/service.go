package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
)

// Report is the full dashboard snapshot for one requester.
type Report struct {
	ProductSales   []ProductSales
	TotalOrders    int64
	TotalSum       decimal.Decimal
	ByStatus       map[enums.OrderStatus]StatusBreakdown
	NewOrders      int64
	ActiveUsers    int64
	TastingSignups int64
}

// Service builds sales dashboards. The owner sees shop-wide numbers, every
// other seller only their own products.
type Service struct {
	repo    Repository
	logger  *logger.Logger
	ownerID int64
}

// NewService builds the aggregator; ownerID is the admin's Telegram id.
func NewService(repo Repository, logg *logger.Logger, ownerID int64) *Service {
	return &Service{repo: repo, logger: logg, ownerID: ownerID}
}

func (s *Service) scope(requesterTgID int64) *int64 {
	if requesterTgID == s.ownerID {
		return nil
	}
	return &requesterTgID
}

// BuildReport gathers all dashboard aggregates in one pass.
func (s *Service) BuildReport(ctx context.Context, requesterTgID int64) (*Report, error) {
	owner := s.scope(requesterTgID)

	sales, err := s.repo.ProductSales(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}
	totalOrders, totalSum, err := s.repo.OrderTotals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	byStatus, err := s.repo.StatusBreakdowns(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("status breakdowns: %w", err)
	}
	newOrders, err := s.repo.CountByStatus(ctx, enums.OrderStatusCreated, owner)
	if err != nil {
		return nil, fmt.Errorf("new order count: %w", err)
	}
	activeUsers, err := s.repo.ActiveUserCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("active user count: %w", err)
	}
	signups, err := s.repo.TastingSignupCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("tasting signup count: %w", err)
	}

	s.logger.Debug(s.logger.WithField(ctx, "requester", requesterTgID), "stats report built")

	return &Report{
		ProductSales:   sales,
		TotalOrders:    totalOrders,
		TotalSum:       totalSum,
		ByStatus:       byStatus,
		NewOrders:      newOrders,
		ActiveUsers:    activeUsers,
		TastingSignups: signups,
	}, nil
}

// RenderReport formats the dashboard as the Telegram HTML message.
func RenderReport(report *Report) string {
	var b strings.Builder
	b.WriteString("📊 <b>Общая статистика продаж</b>\n\n")
	b.WriteString("<b>🍯 статус продажи В работе и Завершено:</b>\n")

	totalKG := decimal.Zero
	totalSum := decimal.Zero
	for _, row := range report.ProductSales {
		fmt.Fprintf(&b, "%s: %sкг | %s₽\n",
			row.ProductName, row.TotalKG.StringFixed(1), row.TotalSum.Round(0))
		totalKG = totalKG.Add(row.TotalKG)
		totalSum = totalSum.Add(row.TotalSum)
	}
	fmt.Fprintf(&b, "\n<b>Итого:</b> %s кг | %s₽\n\n", totalKG.StringFixed(1), totalSum.Round(0))

	completed := report.ByStatus[enums.OrderStatusReceived]

	inProgressCount := int64(0)
	inProgressSum := decimal.Zero
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusReady,
		enums.OrderStatusCustomerNotified,
		enums.OrderStatusCreated,
	} {
		breakdown := report.ByStatus[status]
		inProgressCount += breakdown.Count
		inProgressSum = inProgressSum.Add(breakdown.Sum)
	}
	newSum := report.ByStatus[enums.OrderStatusCreated].Sum

	fmt.Fprintf(&b,
		"📦 <b>Заказы</b> Всего: %d | %s₽\n"+
			"✅ Завершено: %d | %s₽\n"+
			"🕓 В работе: %d | %s₽\n "+
			"🚨 <b>Новые: %d | %s₽</b>\n\n"+
			"👨 Пользователей: %d <b>(%d)</b>",
		report.TotalOrders, report.TotalSum.Round(0),
		completed.Count, completed.Sum.Round(0),
		inProgressCount, inProgressSum.Round(0),
		report.NewOrders, newSum.Round(0),
		report.ActiveUsers, report.TastingSignups,
	)
	return b.String()
}
