package orders

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

// Customer-facing times are rendered in the shop's local zone.
var shopZone = time.FixedZone("MSK", 3*60*60)

const (
	declineReasonPlaceholder = "Причина не указана"
	declineReasonSendButton  = "отправка причины"
	maxDeclineReasonLen      = 255
)

// NormalizeDeclineReason trims, HTML-escapes and truncates a free-form decline
// reason. Empty input and the reply-keyboard button label both collapse to the
// placeholder.
func NormalizeDeclineReason(raw string) string {
	reason := strings.TrimSpace(raw)
	if reason == "" || strings.EqualFold(reason, declineReasonSendButton) {
		return declineReasonPlaceholder
	}
	return truncateEscaped(html.EscapeString(reason), maxDeclineReasonLen)
}

// truncateEscaped bounds escaped text to max characters. The cut is on rune
// boundaries, and a half-written entity at the tail is dropped whole so the
// result stays valid HTML parse-mode input.
func truncateEscaped(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if amp := strings.LastIndexByte(cut, '&'); amp >= 0 && !strings.ContainsRune(cut[amp:], ';') {
		cut = cut[:amp]
	}
	return cut
}

// NormalizeComment trims the customer's note and bounds it to the column size.
func NormalizeComment(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if runes := []rune(trimmed); len(runes) > maxDeclineReasonLen {
		trimmed = string(runes[:maxDeclineReasonLen])
	}
	return trimmed
}

func shopTime(t time.Time) string {
	return t.In(shopZone).Format("15:04 02.01.2006")
}

func productName(order *models.Order) string {
	if order.ProductSize != nil && order.ProductSize.Product != nil {
		return order.ProductSize.Product.Name
	}
	return "—"
}

func sizeName(order *models.Order) string {
	if order.ProductSize != nil && order.ProductSize.Size != nil {
		return order.ProductSize.Size.Name
	}
	return "—"
}

func packageName(order *models.Order) string {
	if order.ProductSize != nil && order.ProductSize.Size != nil && order.ProductSize.Size.Package != nil {
		return order.ProductSize.Size.Package.Name
	}
	return "—"
}

func customerName(order *models.Order) string {
	if order.User != nil {
		return order.User.DisplayName()
	}
	return "—"
}

func customerPhone(order *models.Order) string {
	if order.User != nil {
		return order.User.Phone()
	}
	return "не указан"
}

func comment(value *string) string {
	if value != nil && *value != "" {
		return *value
	}
	return "—"
}

// DraftCardText renders the interactive order card shown while the customer
// tunes quantity and comment.
func DraftCardText(order *models.Order) string {
	unit := "0"
	if order.ProductSize != nil {
		unit = order.ProductSize.Price.Round(0).String()
	}
	card := comment(order.CustomerComment)
	if card == "—" {
		card = "-"
	}
	return fmt.Sprintf(
		"<b>%s</b>\n"+
			"🍯🐝👨‍🌾🍯🐝👨‍🌾🍯🐝👨‍🌾🍯🐝👨‍🌾🍯🐝\n"+
			"Цена (%sкг) – %s₽\n"+
			"Количество: %d\n"+
			"Тара: %s\n"+
			"Комментарий: %s",
		productName(order), sizeName(order), unit, order.ProductCount, packageName(order), card,
	)
}

/// DraftCardMarkup builds the draft card's keyboard: quantity steppers, the
// comment button while no comment is set, and the place-order button.
func DraftCardMarkup(order *models.Order) telegram.Markup {
	markup := telegram.Markup{telegram.Row(
		telegram.Button{Label: "➖", Data: DecrementToken(order.ID)},
		telegram.Button{Label: strconv.Itoa(order.ProductCount), Data: "noop"},
		telegram.Button{Label: "➕", Data: IncrementToken(order.ID)},
	)}
	if order.CustomerComment == nil || *order.CustomerComment == "" {
		markup = append(markup, telegram.Row(
			telegram.Button{Label: "📨 Комментарий к заказу", Data: CommentToken(order.ID)},
		))
	}
	markup = append(markup, telegram.Row(
		telegram.Button{
			Label: fmt.Sprintf("🛎 Заказать мед %s ₽", order.TotalPrice.Round(0)),
			Data:  FinalizeToken(order.ID),
		},
	))
	return markup
}

// NewOrderText is the seller-chat card announcing a finalized order.
func NewOrderText(order *models.Order) string {
	return fmt.Sprintf(
		"🔔 Новый заказ #%d🔔\n\n"+
			"🍯: <b>%s</b>\n"+
			"🫙 Размер: %sкг\n"+
			"🔢 Количество: %d\n"+
			"💰 Стоимость: %s ₽\n"+
			"⏰ Создан: %s\n"+
			"💬 Комментарий клиента: %s\n"+
			"👨: %s\n"+
			"☎️ Номер: %s",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, shopTime(order.CreatedAt),
		comment(order.CustomerComment), customerName(order), customerPhone(order),
	)
}

// NewOrderMarkup offers confirm and decline to the seller.
func NewOrderMarkup(orderID int64) telegram.Markup {
	return telegram.Markup{telegram.Row(
		telegram.Button{Label: "✅ Подтвердить", Data: ConfirmToken(orderID)},
		telegram.Button{Label: "Отклонить ❌", Data: DeclineToken(orderID)},
	)}
}

// OrderCreatedCustomerText acknowledges finalization to the customer.
const OrderCreatedCustomerText = "✅ Ваш заказ создан! Ожидайте уведомление от продавца."

// ConfirmedCustomerText tells the customer the seller took the order.
func ConfirmedCustomerText(order *models.Order, pickupAddress string) string {
	return fmt.Sprintf(
		"🍯 Ваш заказ №%d подтвержден!\n\n"+
			"%s (%sкг х %d)\n"+
			"Когда заказ будет готов, вы получите уведомление.\n"+
			"Оплата %s₽ при получении переводом или наличными.\n"+
			"Получение заказа:\n"+
			"%s",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, pickupAddress,
	)
}

// ConfirmedManagerText is the refreshed seller card after confirmation.
func ConfirmedManagerText(order *models.Order) string {
	return fmt.Sprintf(
		"🔔 Заказ #%d🔔\n\n"+
			"🍯: <b>%s</b>\n"+
			"🫙 Размер: %sкг\n"+
			"🔢 Количество: %d\n"+
			"💰 Стоимость: %s ₽\n"+
			"⏰ Создан: %s\n"+
			"💬 Комментарий клиента: %s\n"+
			"👨: %s\n"+
			"☎️ Номер: %s",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, shopTime(order.CreatedAt),
		comment(order.CustomerComment), customerName(order), customerPhone(order),
	)
}

// ReadyActionMarkup carries the single follow-up the seller has after
// confirming: mark the order ready.
func ReadyActionMarkup(orderID int64) telegram.Markup {
	return telegram.Markup{telegram.Row(
		telegram.Button{Label: "📦 Заказ готов к выдаче", Data: ReadyToken(orderID)},
	)}
}

// ReadyCustomerText tells the customer the order awaits pickup.
func ReadyCustomerText(order *models.Order, pickupAddress string) string {
	return fmt.Sprintf(
		"💥Ваш заказ №%d ожидает получения!💥\n\n"+
			"<b>%s</b> (%sкг х %d)\n"+
			"К оплате <b>%s₽</b> переводом или наличными.\n"+
			"Получение заказа:\n"+
			"%s",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, pickupAddress,
	)
}

// ReadyCustomerMarkup asks the customer when they plan to pick up.
func ReadyCustomerMarkup(orderID int64) telegram.Markup {
	return telegram.Markup{
		telegram.Row(telegram.Button{Label: "Планирую получить:", Data: "noop"}),
		telegram.Row(
			telegram.Button{Label: "🟢 сегодня", Data: PickupToken(enums.PickupToday, orderID)},
			telegram.Button{Label: "🟡 завтра", Data: PickupToken(enums.PickupTomorrow, orderID)},
			telegram.Button{Label: "🔵 завтра+", Data: PickupToken(enums.PickupLater, orderID)},
		),
	}
}

// ReadySellerAckText replaces the seller card once the customer is notified.
func ReadySellerAckText(orderID int64) string {
	return fmt.Sprintf("Покупатель получил уведомление, что заказ №%d готов к выдаче", orderID)
}

// PickupManagerText tells the seller chat when the customer plans to come.
func PickupManagerText(order *models.Order, pickupDate time.Time) string {
	return fmt.Sprintf(
		"🔔 Заказ #%d🔔\n\n"+
			"🍯: <b>%s(%sкг)</b>\n"+
			"🔢 Количество: %d\n"+
			"💰 Стоимость: %s ₽\n"+
			"Покупатель подтвердил, что придет за медом:\n"+
			"<b>%s</b> (ориентировочно)\n"+
			"👨: %s\n"+
			"☎️: %s",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, pickupDate.In(shopZone).Format("02.01.2006"),
		customerName(order), customerPhone(order),
	)
}

// CompleteActionMarkup carries the hand-over button for the seller chat.
func CompleteActionMarkup(orderID int64) telegram.Markup {
	return telegram.Markup{telegram.Row(
		telegram.Button{Label: "Покупатель получил заказ", Data: CompleteToken(orderID)},
	)}
}

// PickupCustomerText echoes the chosen date back to the customer with the
// manager's phone number.
func PickupCustomerText(pickupDate time.Time, managerPhone string) string {
	return fmt.Sprintf(
		"Продавец проинформирован,\n"+
			"что примерная дата получения заказа:\n"+
			"<b>%s</b>\n"+
			"Номер телефона для связи\n"+
			"☎️: %s",
		pickupDate.In(shopZone).Format("02.01.2006"), managerPhone,
	)
}

// CompleteCustomerText thanks the customer after hand-over.
const CompleteCustomerText = "❤️ Спасибо, что выбрали наш мёд!Будем рады видеть вас снова!\n"

// CompleteManagerText summarizes the completed sale for the seller chat.
func CompleteManagerText(order *models.Order) string {
	return fmt.Sprintf("Заказ №%d выдан покупателю.\nОплачено %s ₽", order.ID, order.TotalPrice)
}

// DeclinedByCustomerText notifies the product owner that the customer bailed.
func DeclinedByCustomerText(order *models.Order, reason string) string {
	return fmt.Sprintf(
		"❌ Гость отменил заказ №%d\n"+
			"⏰ Создан: %s\n"+
			"%s (%sкг х %d)\n"+
			"Cтоимость: %s₽ \n"+
			"Причина: %s",
		order.ID, shopTime(order.CreatedAt),
		productName(order), sizeName(order), order.ProductCount,
		order.TotalPrice, reason,
	)
}

// DeclinedBySellerText notifies the customer that the seller declined.
func DeclinedBySellerText(order *models.Order, reason string) string {
	return fmt.Sprintf(
		"❌ Ваше заказ №%d отклонен продавцом.\n"+
			"%s (%sкг х %d)\n"+
			"⏰ Создан: %s\n"+
			"Cтоимость: %s₽\n"+
			"Причина: %s\n\n"+
			"Хотите выбрать другой товар?\n"+
			"👉 /honey_buy",
		order.ID, productName(order), sizeName(order), order.ProductCount,
		shopTime(order.CreatedAt), order.TotalPrice, reason,
	)
}

// DeclineInitiatorAck texts confirm the decline back to whoever triggered it.
const (
	DeclineCustomerAckText = "✅ Вы отменили заказ, владелец уведомлён."
	DeclineSellerAckText   = "‼️ Заказ отклонен, гость уведомлен."
)

// ExpiredCustomerText tells the customer an abandoned draft was cancelled.
func ExpiredCustomerText(createdAt time.Time) string {
	created := createdAt.In(shopZone).Truncate(time.Minute).Format("2006-01-02 15:04")
	return fmt.Sprintf("⏰ Ваш заказ от %s просрочен и был отменён.\nНачните новый заказ.", created)
}

// ExpiredCustomerMarkup offers a restart button.
func ExpiredCustomerMarkup() telegram.Markup {
	return telegram.Markup{telegram.Row(
		telegram.Button{Label: "🆕 Новый заказ", Data: "new_order"},
	)}
}
