package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medovik-lab/honeybot-backend/internal/orders"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

// Card pager callback tokens. "all" selects the archive filter.
const (
	cardPrevPrefix   = "owner_order_prev_"
	cardNextPrefix   = "owner_order_next_"
	cardFilterPrefix = "owner_order_filter_"
	backMenuToken    = "back_menu"
)

var cardZone = time.FixedZone("MSK", 3*60*60)

// CardPager serves the seller's "my orders" browsing view: one card at a
// time with navigation, per-status actions, and status filters.
type CardPager struct {
	orders  orders.Repository
	ownerID int64
}

// NewCardPager builds the pager; ownerID is the admin's Telegram id.
func NewCardPager(repo orders.Repository, ownerID int64) *CardPager {
	return &CardPager{orders: repo, ownerID: ownerID}
}

// List fetches the orders visible to the requester under the given filter.
// A nil filter selects the archive statuses.
func (p *CardPager) List(ctx context.Context, requesterTgID int64, filter *enums.OrderStatus) ([]models.Order, error) {
	statuses := enums.ArchiveStatuses()
	if filter != nil {
		statuses = []enums.OrderStatus{*filter}
	}
	var owner *int64
	if requesterTgID != p.ownerID {
		owner = &requesterTgID
	}
	return p.orders.ListByStatuses(ctx, statuses, owner)
}

// PrevToken and NextToken encode pager navigation to the given index.
func PrevToken(index int) string { return cardPrevPrefix + strconv.Itoa(index) }

func NextToken(index int) string { return cardNextPrefix + strconv.Itoa(index) }

// FilterToken encodes a status filter choice; nil means the archive.
func FilterToken(filter *enums.OrderStatus) string {
	if filter == nil {
		return cardFilterPrefix + "all"
	}
	return cardFilterPrefix + strconv.Itoa(int(*filter))
}

// ParseNavIndex extracts the target index from a prev/next token.
func ParseNavIndex(data string) (int, bool) {
	for _, prefix := range []string{cardPrevPrefix, cardNextPrefix} {
		if strings.HasPrefix(data, prefix) {
			index, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
			if err != nil || index < 0 {
				return 0, false
			}
			return index, true
		}
	}
	return 0, false
}

// ParseFilter extracts the status filter from a filter token; the second
// return reports whether data was a filter token at all.
func ParseFilter(data string) (*enums.OrderStatus, bool) {
	if !strings.HasPrefix(data, cardFilterPrefix) {
		return nil, false
	}
	raw := strings.TrimPrefix(data, cardFilterPrefix)
	if raw == "all" || raw == "None" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	status, err := enums.ParseOrderStatus(id)
	if err != nil {
		return nil, false
	}
	return &status, true
}

// RenderCard formats one order card plus its keyboard for position index of
// total.
func RenderCard(order *models.Order, index, total int) (string, telegram.Markup) {
	text := cardText(order, index, total)

	var markup telegram.Markup

	var nav []telegram.Button
	if index > 0 {
		nav = append(nav, telegram.Button{Label: "⬅️ Предыдущий", Data: PrevToken(index - 1)})
	}
	if index < total-1 {
		nav = append(nav, telegram.Button{Label: "➡️ Следующий", Data: NextToken(index + 1)})
	}
	if len(nav) > 0 {
		markup = append(markup, nav)
	}

	switch order.StatusID {
	case enums.OrderStatusCreated:
		markup = append(markup, telegram.Row(
			telegram.Button{Label: "✅ Подтвердить", Data: orders.ConfirmToken(order.ID)},
			telegram.Button{Label: "❌ Отклонить", Data: orders.DeclineToken(order.ID)},
		))
	case enums.OrderStatusProcessing:
		markup = append(markup, telegram.Row(
			telegram.Button{Label: "📦 Заказ готов к выдаче", Data: orders.ReadyToken(order.ID)},
		))
	}

	created := enums.OrderStatusCreated
	processing := enums.OrderStatusProcessing
	markup = append(markup, telegram.Row(
		telegram.Button{Label: "Создан", Data: FilterToken(&created)},
		telegram.Button{Label: "В работе", Data: FilterToken(&processing)},
		telegram.Button{Label: "Архив", Data: FilterToken(nil)},
	))
	markup = append(markup, telegram.Row(
		telegram.Button{Label: "⬅️ Вернуться в меню", Data: backMenuToken},
	))

	return text, markup
}

// NoOrdersText is shown when the filter matches nothing.
const NoOrdersText = "❌ Заказы не найдены."

func cardText(order *models.Order, index, total int) string {
	productName := "—"
	sizeName := "—"
	if order.ProductSize != nil {
		if order.ProductSize.Product != nil {
			productName = order.ProductSize.Product.Name
		}
		if order.ProductSize.Size != nil {
			sizeName = order.ProductSize.Size.Name
		}
	}
	customerName := "—"
	customerPhone := "не указан"
	if order.User != nil {
		customerName = order.User.DisplayName()
		customerPhone = order.User.Phone()
	}
	customerComment := "—"
	if order.CustomerComment != nil && *order.CustomerComment != "" {
		customerComment = *order.CustomerComment
	}

	return fmt.Sprintf(
		"‼️ Cтатус <b>%s</b> ‼️\n\n"+
			"Заказ №%d\n"+
			"%s (%s x %d)\n"+
			"⏰ Создан: %s\n"+
			"💰 Стоимость: %s ₽\n"+
			"💬 Комментарий клиента: %s\n"+
			"👨: %s\n"+
			"☎️ Номер: %s\n\n"+
			"📍 %d из %d",
		order.StatusID.Title(), order.ID, productName, sizeName, order.ProductCount,
		order.CreatedAt.In(cardZone).Format("15:04 02.01.2006"), order.TotalPrice,
		customerComment, customerName, customerPhone, index+1, total,
	)
}
