package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/internal/orders"
	"github.com/medovik-lab/honeybot-backend/internal/sessions"
	"github.com/medovik-lab/honeybot-backend/internal/stats"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

// Coordinator is the life-cycle surface the dispatcher drives.
type Coordinator interface {
	CreateDraft(ctx context.Context, in orders.CreateDraftInput) (*models.Order, error)
	AdjustQuantity(ctx context.Context, orderID int64, delta int) (*models.Order, error)
	SetCustomerComment(ctx context.Context, orderID int64, comment string) (*models.Order, error)
	Finalize(ctx context.Context, orderID int64) (*models.Order, error)
	Confirm(ctx context.Context, in orders.ConfirmInput) (*models.Order, error)
	Ready(ctx context.Context, orderID int64, cardRef *telegram.MessageRef) (*models.Order, error)
	ConfirmPickup(ctx context.Context, orderID int64, bucket enums.PickupBucket) (*models.Order, error)
	Complete(ctx context.Context, orderID int64) (*models.Order, error)
	Decline(ctx context.Context, in orders.DeclineInput) (*orders.DeclineResult, error)
}

// apiRequester is the slice of the Telegram client used for callback acks and
// keyboard removal.
type apiRequester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Menu tokens produced outside the order token grammar.
const (
	newOrderToken      = "new_order"
	restartMenuToken   = "honey_buy"
	productTypePrefix  = "product_type_"
	selectSizePrefix   = "select_size_"
	sellerOrdersPrefix = "honey_orders_"
)

// pagerState remembers where a seller is in the "my orders" card view.
type pagerState struct {
	index  int
	filter *enums.OrderStatus
}

// pendingComment correlates the next plain message with the draft card the
// comment button was pressed on.
type pendingComment struct {
	orderID int64
	card    *telegram.MessageRef
}

// HandlerParams wire the dispatcher's collaborators.
type HandlerParams struct {
	API         apiRequester
	Gateway     telegram.Gateway
	Coordinator Coordinator
	Catalog     catalog.Repository
	Sessions    sessions.Repository
	Stats       *stats.Service
	Pager       *stats.CardPager
	Logger      *logger.Logger
	OwnerID     int64
}

// Handler routes incoming Telegram updates to the order coordinator. It keeps
// three pieces of per-chat state: the pending decline-reason prompt, the
// pending draft-comment prompt, and the card pager position.
type Handler struct {
	api         apiRequester
	gateway     telegram.Gateway
	coordinator Coordinator
	catalog     catalog.Repository
	sessions    sessions.Repository
	stats       *stats.Service
	pager       *stats.CardPager
	logg        *logger.Logger
	ownerID     int64

	mu              sync.Mutex
	pendingDecline  map[int64]int64
	pendingComments map[int64]pendingComment
	pagerStates     map[int64]*pagerState
}

// NewHandler builds the update dispatcher.
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		api:             params.API,
		gateway:         params.Gateway,
		coordinator:     params.Coordinator,
		catalog:         params.Catalog,
		sessions:        params.Sessions,
		stats:           params.Stats,
		pager:           params.Pager,
		logg:            params.Logger,
		ownerID:         params.OwnerID,
		pendingDecline:  make(map[int64]int64),
		pendingComments: make(map[int64]pendingComment),
		pagerStates:     make(map[int64]*pagerState),
	}
}

// HandleUpdate dispatches one update. Errors are reported to the chat and
// logged; the poller keeps running regardless.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID
	fromID := query.From.ID
	ctx = h.logg.WithChatID(ctx, chatID)
	cardRef := &telegram.MessageRef{ChatID: chatID, MessageID: query.Message.MessageID}

	switch query.Data {
	case "noop":
		h.answer(query.ID, "")
		return
	case "back_menu":
		h.answer(query.ID, "")
		h.removeKeyboard(cardRef)
		return
	case newOrderToken, restartMenuToken:
		h.answer(query.ID, "")
		h.startOrderMenu(ctx, chatID)
		return
	}

	// Customer draft building: sort selection, then variant selection.
	if typeID, ok := parseSuffixID(query.Data, productTypePrefix); ok {
		h.answer(query.ID, "")
		h.removeKeyboard(cardRef)
		h.showProductsOfType(ctx, chatID, typeID)
		return
	}
	if productSizeID, ok := parseSuffixID(query.Data, selectSizePrefix); ok {
		h.answer(query.ID, "")
		h.startDraft(ctx, chatID, fromID, productSizeID)
		return
	}

	// Pager navigation and filters next; they are not order transitions.
	if index, ok := stats.ParseNavIndex(query.Data); ok {
		h.answer(query.ID, "")
		h.showCards(ctx, chatID, fromID, cardRef, func(state *pagerState) { state.index = index })
		return
	}
	if filter, ok := stats.ParseFilter(query.Data); ok {
		h.answer(query.ID, "")
		h.showCards(ctx, chatID, fromID, cardRef, func(state *pagerState) {
			state.filter = filter
			state.index = 0
		})
		return
	}
	if strings.HasPrefix(query.Data, sellerOrdersPrefix) {
		h.answer(query.ID, "")
		created := enums.OrderStatusCreated
		h.showCards(ctx, chatID, fromID, cardRef, func(state *pagerState) {
			state.filter = &created
			state.index = 0
		})
		return
	}

	callback, err := orders.ParseCallback(query.Data)
	if err != nil {
		h.answer(query.ID, "⚠️ Неизвестное действие.")
		return
	}
	ctx = h.logg.WithOrderID(ctx, callback.OrderID)

	switch callback.Action {
	case orders.ActionIncrement:
		h.answer(query.ID, "")
		h.adjustDraft(ctx, chatID, callback.OrderID, +1, cardRef)

	case orders.ActionDecrement:
		h.answer(query.ID, "")
		h.adjustDraft(ctx, chatID, callback.OrderID, -1, cardRef)

	case orders.ActionComment:
		h.answer(query.ID, "")
		h.startCommentConversation(ctx, chatID, callback.OrderID, cardRef)

	case orders.ActionFinalize:
		h.removeKeyboard(cardRef)
		_, err = h.coordinator.Finalize(ctx, callback.OrderID)
		h.finishCallback(ctx, query.ID, chatID, err, "")

	case orders.ActionConfirm:
		_, err = h.coordinator.Confirm(ctx, orders.ConfirmInput{
			OrderID:     callback.OrderID,
			ManagerTgID: fromID,
			CardRef:     cardRef,
		})
		h.finishCallback(ctx, query.ID, chatID, err, "Заказ подтвержден 🤝")

	case orders.ActionDecline:
		h.answer(query.ID, "")
		h.startDeclineConversation(ctx, chatID, callback.OrderID, cardRef)

	case orders.ActionReady:
		_, err = h.coordinator.Ready(ctx, callback.OrderID, cardRef)
		h.finishCallback(ctx, query.ID, chatID, err, "Заказ готов к выдаче 🤝")

	case orders.ActionPickup:
		_, err = h.coordinator.ConfirmPickup(ctx, callback.OrderID, callback.Bucket)
		h.finishCallback(ctx, query.ID, chatID, err, "")
		if err == nil {
			h.removeKeyboard(cardRef)
		}

	case orders.ActionComplete:
		h.removeKeyboard(cardRef)
		_, err = h.coordinator.Complete(ctx, callback.OrderID)
		h.finishCallback(ctx, query.ID, chatID, err, "")

	default:
		h.answer(query.ID, "⚠️ Неизвестное действие.")
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	ctx = h.logg.WithChatID(ctx, chatID)

	if orderID, ok := h.takePendingDecline(chatID); ok {
		result, err := h.coordinator.Decline(ctx, orders.DeclineInput{
			OrderID:       orderID,
			InitiatorTgID: message.From.ID,
			Reason:        message.Text,
		})
		if err != nil {
			h.reportError(ctx, chatID, err)
			return
		}
		h.send(ctx, chatID, result.AckText, nil)
		return
	}

	if pending, ok := h.takePendingComment(chatID); ok {
		order, err := h.coordinator.SetCustomerComment(ctx, pending.orderID, message.Text)
		if err != nil {
			h.reportError(ctx, chatID, err)
			return
		}
		h.edit(ctx, pending.card, orders.DraftCardText(order), orders.DraftCardMarkup(order))
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "stats":
			report, err := h.stats.BuildReport(ctx, message.From.ID)
			if err != nil {
				h.reportError(ctx, chatID, err)
				return
			}
			h.send(ctx, chatID, stats.RenderReport(report), nil)
		case "honey_buy":
			h.startOrderMenu(ctx, chatID)
		}
	}
}

// startOrderMenu opens the customer conversation: one button per honey sort.
func (h *Handler) startOrderMenu(ctx context.Context, chatID int64) {
	types, err := h.catalog.ListProductTypes(ctx)
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}
	if len(types) == 0 {
		h.send(ctx, chatID, "❌ В данный момент нет доступных сортов меда.", nil)
		return
	}

	var markup telegram.Markup
	for _, productType := range types {
		markup = append(markup, telegram.Row(telegram.Button{
			Label: productType.Name,
			Data:  productTypePrefix + strconv.FormatInt(productType.ID, 10),
		}))
	}
	h.send(ctx, chatID, "Какого мёда желаете сегодня? Выберите сорт:", markup)
}

// showProductsOfType sends one card per product of the chosen sort, each with
// its sellable variants as size buttons.
func (h *Handler) showProductsOfType(ctx context.Context, chatID, typeID int64) {
	products, err := h.catalog.ListProductsByType(ctx, typeID)
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}
	if len(products) == 0 {
		h.send(ctx, chatID, "❌ Похоже, мед этого сорта закончился.", nil)
		return
	}

	for i := range products {
		product := &products[i]
		variants, err := h.catalog.ListProductSizes(ctx, product.ID)
		if err != nil {
			h.reportError(ctx, chatID, err)
			return
		}

		var sizeRow []telegram.Button
		for _, variant := range variants {
			sizeName := "?"
			if variant.Size != nil {
				sizeName = variant.Size.Name
			}
			sizeRow = append(sizeRow, telegram.Button{
				Label: fmt.Sprintf("%sкг – %s₽", sizeName, variant.Price.Round(0)),
				Data:  selectSizePrefix + strconv.FormatInt(variant.ID, 10),
			})
		}

		var markup telegram.Markup
		if len(sizeRow) > 0 {
			markup = append(markup, sizeRow)
		}
		markup = append(markup, telegram.Row(
			telegram.Button{Label: "🔙 Начать сначала", Data: restartMenuToken},
		))

		description := "Без описания"
		if product.Description != nil && *product.Description != "" {
			description = *product.Description
		}
		h.send(ctx, chatID, fmt.Sprintf("<b>%s</b>\n%s", product.Name, description), markup)
	}
}

// startDraft opens a session and a one-unit draft for the chosen variant,
// then sends the interactive card. The card's message id is remembered on the
// session so the expiry sweep can delete a stale card.
func (h *Handler) startDraft(ctx context.Context, chatID, fromID, productSizeID int64) {
	session, err := h.sessions.Create(ctx, fromID, enums.RoleCustomer,
		&models.LastAction{Event: "order_started"})
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}

	order, err := h.coordinator.CreateDraft(ctx, orders.CreateDraftInput{
		TgUserID:      fromID,
		ProductSizeID: productSizeID,
		SessionID:     session.ID,
	})
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}

	ref, err := h.gateway.Send(ctx, chatID, orders.DraftCardText(order), orders.DraftCardMarkup(order))
	if err != nil {
		h.logg.Error(ctx, "draft card send failed", err)
		return
	}
	if err := h.sessions.UpdateLastAction(ctx, session.ID, &models.LastAction{
		Event:             "order_started",
		LastMessageChatID: ref.ChatID,
		LastMessageID:     ref.MessageID,
	}); err != nil {
		h.logg.Warn(ctx, "recording draft card message failed")
	}
}

// adjustDraft applies one quantity step and re-renders the card in place.
func (h *Handler) adjustDraft(ctx context.Context, chatID, orderID int64, delta int, cardRef *telegram.MessageRef) {
	order, err := h.coordinator.AdjustQuantity(ctx, orderID, delta)
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}
	h.edit(ctx, cardRef, orders.DraftCardText(order), orders.DraftCardMarkup(order))
}

// startDeclineConversation removes the card keyboard and prompts for a
// reason; the next plain message from this chat completes the decline.
func (h *Handler) startDeclineConversation(ctx context.Context, chatID, orderID int64, cardRef *telegram.MessageRef) {
	h.mu.Lock()
	h.pendingDecline[chatID] = orderID
	h.mu.Unlock()

	h.removeKeyboard(cardRef)
	h.send(ctx, chatID, "❌ Укажите причину отклонения заявки (макс. 255 символов):", nil)
}

// startCommentConversation prompts for the draft comment; the next plain
// message from this chat lands on the remembered card.
func (h *Handler) startCommentConversation(ctx context.Context, chatID, orderID int64, cardRef *telegram.MessageRef) {
	h.mu.Lock()
	h.pendingComments[chatID] = pendingComment{orderID: orderID, card: cardRef}
	h.mu.Unlock()

	h.send(ctx, chatID, "✍️ Введите комментарий к заказу:", nil)
}

func (h *Handler) takePendingDecline(chatID int64) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	orderID, ok := h.pendingDecline[chatID]
	if ok {
		delete(h.pendingDecline, chatID)
	}
	return orderID, ok
}

func (h *Handler) takePendingComment(chatID int64) (pendingComment, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pending, ok := h.pendingComments[chatID]
	if ok {
		delete(h.pendingComments, chatID)
	}
	return pending, ok
}

func (h *Handler) showCards(ctx context.Context, chatID, requesterID int64, cardRef *telegram.MessageRef, mutate func(*pagerState)) {
	h.mu.Lock()
	state, ok := h.pagerStates[chatID]
	if !ok {
		state = &pagerState{}
		h.pagerStates[chatID] = state
	}
	mutate(state)
	filter := state.filter
	index := state.index
	h.mu.Unlock()

	list, err := h.pager.List(ctx, requesterID, filter)
	if err != nil {
		h.reportError(ctx, chatID, err)
		return
	}
	if len(list) == 0 {
		h.edit(ctx, cardRef, stats.NoOrdersText, nil)
		return
	}
	if index >= len(list) {
		index = len(list) - 1
	}
	text, markup := stats.RenderCard(&list[index], index, len(list))
	h.edit(ctx, cardRef, text, markup)
}

func (h *Handler) finishCallback(ctx context.Context, queryID string, chatID int64, err error, ack string) {
	if err != nil {
		h.answer(queryID, "")
		h.reportError(ctx, chatID, err)
		return
	}
	h.answer(queryID, ack)
}

// reportError surfaces a classified failure to the chat. Guard violations
// name the blocking status, everything else gets a generic apology.
func (h *Handler) reportError(ctx context.Context, chatID int64, err error) {
	h.logg.Error(ctx, "update handling failed", err)
	text := "❌ Что-то пошло не так. Попробуйте снова."
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeStateConflict:
			text = "⛔ Заказ уже в другом статусе. Обратитесь к администратору."
			if status := statusDetail(typed); status != "" {
				text = fmt.Sprintf("⛔ Нельзя выполнить действие: заказ в статусе <b>%s</b>.", status)
			}
		case pkgerrors.CodeNotFound:
			text = "❌ Заказ не найден."
		}
	}
	h.send(ctx, chatID, text, nil)
}

// statusDetail extracts the blocking status title attached by the coordinator.
func statusDetail(err *pkgerrors.Error) string {
	details, ok := err.Details().(map[string]any)
	if !ok {
		return ""
	}
	status, _ := details["status"].(string)
	return status
}

func parseSuffixID(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup telegram.Markup) {
	if _, err := h.gateway.Send(ctx, chatID, text, markup); err != nil {
		h.logg.Error(ctx, "send failed", err)
	}
}

func (h *Handler) edit(ctx context.Context, ref *telegram.MessageRef, text string, markup telegram.Markup) {
	if err := h.gateway.Edit(ctx, *ref, text, markup); err != nil {
		h.send(ctx, ref.ChatID, text, markup)
	}
}

func (h *Handler) answer(queryID, text string) {
	callback := tgbotapi.NewCallback(queryID, text)
	if text != "" {
		callback.ShowAlert = true
	}
	if _, err := h.api.Request(callback); err != nil {
		h.logg.Warn(context.Background(), "callback answer failed")
	}
}

// removeKeyboard strips the inline keyboard from a pressed card so stale
// buttons cannot fire twice.
func (h *Handler) removeKeyboard(ref *telegram.MessageRef) {
	edit := tgbotapi.NewEditMessageReplyMarkup(ref.ChatID, ref.MessageID,
		tgbotapi.NewInlineKeyboardMarkup())
	if _, err := h.api.Request(edit); err != nil {
		h.logg.Warn(context.Background(), "keyboard removal failed")
	}
}
