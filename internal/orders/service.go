package orders

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/internal/sessions"
	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/telegram"
)

// TxRunner executes a unit of work inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Deps wires the coordinator's collaborators.
type Deps struct {
	Tx       TxRunner
	Orders   Repository
	Sessions sessions.Repository
	Catalog  catalog.Repository
	Gateway  telegram.Gateway
	Logger   *logger.Logger

	// AdminChatID is the shared seller chat that receives order events.
	AdminChatID int64
	// PickupAddress is rendered verbatim into customer notifications.
	PickupAddress string

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Service is the order life-cycle coordinator. Every transition re-reads the
// order inside a transaction, checks the life-cycle guard, persists, and only
// then fires notifications. A failed notification never rolls back a
// persisted transition.
type Service struct {
	deps Deps
}

// NewService builds the coordinator.
func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

func (s *Service) now() time.Time {
	return s.deps.Now().UTC()
}

// CreateDraftInput seeds a new draft order.
type CreateDraftInput struct {
	TgUserID      int64
	ProductSizeID int64
	SessionID     int64
}

// ConfirmInput identifies the order being confirmed and the seller taking it.
// CardRef, when set, is the seller-chat message to refresh in place.
type ConfirmInput struct {
	OrderID     int64
	ManagerTgID int64
	CardRef     *telegram.MessageRef
}

// DeclineInput identifies the order being declined, who pressed the button,
// and the free-form reason they typed.
type DeclineInput struct {
	OrderID       int64
	InitiatorTgID int64
	Reason        string
}

// DeclineResult reports who was notified so the bot can acknowledge the
// initiator with the right text.
type DeclineResult struct {
	Order               *models.Order
	InitiatorIsCustomer bool
	AckText             string
}

// CreateDraft opens a draft order for one unit of the chosen variant,
// snapshotting the current price.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (*models.Order, error) {
	variant, err := s.deps.Catalog.FindProductSize(ctx, in.ProductSizeID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product variant %d not found", in.ProductSizeID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product variant")
	}

	var created *models.Order
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		order := &models.Order{
			TgUserID:      in.TgUserID,
			ProductSizeID: variant.ID,
			StatusID:      enums.OrderStatusDraft,
			ProductCount:  1,
			TotalPrice:    variant.Price,
			IsActive:      true,
			SessionID:     in.SessionID,
			UpdatedAt:     s.now(),
		}
		var txErr error
		created, txErr = s.deps.Orders.WithTx(tx).Create(ctx, order)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, created.ID)
	s.deps.Logger.Info(ctx, "order draft created")
	return s.deps.Orders.Find(ctx, created.ID)
}

// AdjustQuantity changes the draft's unit count by delta and recomputes the
// total from the variant price. The count never drops below one; an attempt
// to do so is ignored.
func (s *Service) AdjustQuantity(ctx context.Context, orderID int64, delta int) (*models.Order, error) {
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Orders.WithTx(tx)
		order, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.StatusID != enums.OrderStatusDraft {
			return transitionErr(order, enums.OrderStatusDraft)
		}

		count := order.ProductCount + delta
		if count < 1 {
			s.deps.Logger.Debug(s.deps.Logger.WithOrderID(ctx, orderID),
				"quantity decrease below one ignored")
			return nil
		}

		total := order.ProductSize.Price.Mul(decimal.NewFromInt(int64(count)))
		return repo.Update(ctx, orderID, map[string]any{
			"product_count": count,
			"total_price":   total,
			"updated_at":    s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.deps.Orders.Find(ctx, orderID)
}

// SetCustomerComment attaches the customer's free-form note to a draft.
func (s *Service) SetCustomerComment(ctx context.Context, orderID int64, comment string) (*models.Order, error) {
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Orders.WithTx(tx)
		order, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.StatusID != enums.OrderStatusDraft {
			return transitionErr(order, enums.OrderStatusDraft)
		}
		trimmed := NormalizeComment(comment)
		return repo.Update(ctx, orderID, map[string]any{
			"customer_comment": trimmed,
			"updated_at":       s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.deps.Orders.Find(ctx, orderID)
}

// Finalize moves a draft into created and announces it: the seller chat gets
// the order card with confirm/decline buttons, the customer gets an
// acknowledgement.
func (s *Service) Finalize(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.transition(ctx, orderID, enums.OrderStatusCreated, nil)
	if err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"item":   productName(order),
		"size":   sizeName(order),
		"qty":    order.ProductCount,
		"amount": order.TotalPrice,
	}), "new order")

	s.notify(ctx, s.deps.AdminChatID, NewOrderText(order), NewOrderMarkup(order.ID))
	s.notify(ctx, order.TgUserID, OrderCreatedCustomerText, nil)
	return order, nil
}

// Confirm moves a created order into processing on behalf of a seller. The
// manager is stamped exactly once and the acceptance lag is logged.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*models.Order, error) {
	var lagMinutes int
	order, err := s.transition(ctx, in.OrderID, enums.OrderStatusProcessing, func(current *models.Order) map[string]any {
		lagMinutes = int(s.now().Sub(current.UpdatedAt).Minutes())
		return map[string]any{"manager_id": in.ManagerTgID}
	})
	if err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"acception_delay": lagMinutes,
		"seller":          in.ManagerTgID,
	}), "seller accepted order")

	s.notify(ctx, order.TgUserID, ConfirmedCustomerText(order, s.deps.PickupAddress), nil)
	s.refreshCard(ctx, in.CardRef, ConfirmedManagerText(order), ReadyActionMarkup(order.ID))
	return order, nil
}

// Ready moves a processing order into ready, records how long preparation
// took on the session, and asks the customer to choose a pickup day.
func (s *Service) Ready(ctx context.Context, orderID int64, cardRef *telegram.MessageRef) (*models.Order, error) {
	var lagMinutes int
	order, err := s.transition(ctx, orderID, enums.OrderStatusReady, func(current *models.Order) map[string]any {
		lagMinutes = int(s.now().Sub(current.CreatedAt).Minutes())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sessErr := s.updateSessionAction(ctx, order.SessionID, &models.LastAction{
		Event:          "order_ready",
		ReadyInMinutes: &lagMinutes,
	}); sessErr != nil {
		s.deps.Logger.Error(s.deps.Logger.WithOrderID(ctx, orderID),
			"recording readiness lag failed", sessErr)
	}

	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithField(ctx, "ready_delay", lagMinutes),
		"order ready for pickup")

	s.notify(ctx, order.TgUserID, ReadyCustomerText(order, s.deps.PickupAddress), ReadyCustomerMarkup(order.ID))
	s.refreshCard(ctx, cardRef, ReadySellerAckText(order.ID), nil)
	return order, nil
}

// ConfirmPickup moves a ready order into customer_notified after the customer
// picked a pickup day. The seller chat receives the hand-over card and the
// customer gets the manager's phone number.
func (s *Service) ConfirmPickup(ctx context.Context, orderID int64, bucket enums.PickupBucket) (*models.Order, error) {
	if !bucket.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pickup bucket %q", bucket))
	}
	pickupDate := bucket.Date(s.now())

	var reactionMinutes int
	order, err := s.transition(ctx, orderID, enums.OrderStatusCustomerNotified, func(current *models.Order) map[string]any {
		reactionMinutes = int(s.now().Sub(current.UpdatedAt).Minutes())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sessErr := s.updateSessionAction(ctx, order.SessionID, &models.LastAction{
		Event:             "customer_confirm",
		ReactionInMinutes: &reactionMinutes,
		ExpectedReceiving: &pickupDate,
	}); sessErr != nil {
		s.deps.Logger.Error(s.deps.Logger.WithOrderID(ctx, orderID),
			"recording expected pickup date failed", sessErr)
	}

	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"pickup_bucket":  bucket.String(),
		"reaction_delay": reactionMinutes,
	}), "customer confirmed pickup")

	managerPhone := "не указан"
	if order.Manager != nil {
		managerPhone = order.Manager.Phone()
	}
	s.notify(ctx, s.deps.AdminChatID, PickupManagerText(order, pickupDate), CompleteActionMarkup(order.ID))
	s.notify(ctx, order.TgUserID, PickupCustomerText(pickupDate, managerPhone), nil)
	return order, nil
}

// Complete moves a customer_notified order into received after hand-over.
func (s *Service) Complete(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.transition(ctx, orderID, enums.OrderStatusReceived, nil)
	if err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(ctx, "order handed over")

	s.notify(ctx, order.TgUserID, CompleteCustomerText, nil)
	s.notify(ctx, s.deps.AdminChatID, CompleteManagerText(order), nil)
	return order, nil
}

// Decline terminates an order that is still actionable. Either side may
// decline; the counter-party is notified with the normalized reason.
func (s *Service) Decline(ctx context.Context, in DeclineInput) (*DeclineResult, error) {
	reason := NormalizeDeclineReason(in.Reason)

	var order *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Orders.WithTx(tx)
		current, err := s.findForUpdate(ctx, repo, in.OrderID)
		if err != nil {
			return err
		}
		if !enums.DeclineAllowed(current.StatusID) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %d in status %s cannot be declined", current.ID, current.StatusID)).
				WithDetails(map[string]any{"status": current.StatusID.Title()})
		}
		order = current
		return repo.Update(ctx, in.OrderID, map[string]any{
			"status_id":       enums.OrderStatusDeclined,
			"manager_comment": reason,
			"updated_at":      s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	order, err = s.deps.Orders.Find(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	initiatorIsCustomer := in.InitiatorTgID == order.TgUserID
	ctx = s.deps.Logger.WithOrderID(ctx, order.ID)
	s.deps.Logger.Info(s.deps.Logger.WithFields(ctx, map[string]any{
		"initiator":   in.InitiatorTgID,
		"by_customer": initiatorIsCustomer,
	}), "order declined")

	result := &DeclineResult{Order: order, InitiatorIsCustomer: initiatorIsCustomer}
	if initiatorIsCustomer {
		ownerID := order.TgUserID
		if order.ProductSize != nil && order.ProductSize.Product != nil {
			ownerID = order.ProductSize.Product.CreatedBy
		}
		s.notify(ctx, ownerID, DeclinedByCustomerText(order, reason), nil)
		result.AckText = DeclineCustomerAckText
	} else {
		s.notify(ctx, order.TgUserID, DeclinedBySellerText(order, reason), nil)
		result.AckText = DeclineSellerAckText
	}
	return result, nil
}

// Expire moves a stale draft into expired. The sweep calls this per order;
// a draft that progressed since the scan is left alone and reported as such.
func (s *Service) Expire(ctx context.Context, orderID int64) (bool, error) {
	var expired bool
	var order *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Orders.WithTx(tx)
		current, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.StatusID != enums.OrderStatusDraft || !current.IsActive {
			return nil
		}
		order = current
		expired = true
		return repo.Update(ctx, orderID, map[string]any{
			"status_id":  enums.OrderStatusExpired,
			"updated_at": s.now(),
		})
	})
	if err != nil || !expired {
		return false, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, orderID)
	s.deps.Logger.Info(ctx, "draft order expired")

	s.cleanupLastMessage(ctx, order)
	s.notify(ctx, order.TgUserID, ExpiredCustomerText(order.CreatedAt), ExpiredCustomerMarkup())
	return true, nil
}

// transition is the shared guarded status move: re-read fresh inside the
// transaction, verify the edge, apply extra columns, persist, reload.
func (s *Service) transition(
	ctx context.Context,
	orderID int64,
	target enums.OrderStatus,
	extra func(current *models.Order) map[string]any,
) (*models.Order, error) {
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Orders.WithTx(tx)
		current, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !enums.CanTransition(current.StatusID, target) {
			return transitionErr(current, target)
		}

		updates := map[string]any{
			"status_id":  target,
			"updated_at": s.now(),
		}
		if extra != nil {
			for column, value := range extra(current) {
				updates[column] = value
			}
		}
		return repo.Update(ctx, orderID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.deps.Orders.Find(ctx, orderID)
}

func (s *Service) findForUpdate(ctx context.Context, repo Repository, orderID int64) (*models.Order, error) {
	order, err := repo.Find(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %d not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *Service) updateSessionAction(ctx context.Context, sessionID int64, action *models.LastAction) error {
	if sessionID == 0 {
		return nil
	}
	return s.deps.Sessions.UpdateLastAction(ctx, sessionID, action)
}

// notify sends a message after a committed transition. Delivery failures are
// logged with the order context and swallowed.
func (s *Service) notify(ctx context.Context, chatID int64, text string, markup telegram.Markup) {
	if chatID == 0 {
		return
	}
	if _, err := s.deps.Gateway.Send(ctx, chatID, text, markup); err != nil {
		s.deps.Logger.Error(s.deps.Logger.WithChatID(ctx, chatID), "notification delivery failed", err)
	}
}

// refreshCard edits an existing seller-chat card in place, falling back to a
// fresh message in the admin chat when there is nothing to edit.
func (s *Service) refreshCard(ctx context.Context, ref *telegram.MessageRef, text string, markup telegram.Markup) {
	if ref == nil {
		s.notify(ctx, s.deps.AdminChatID, text, markup)
		return
	}
	if err := s.deps.Gateway.Edit(ctx, *ref, text, markup); err != nil {
		s.deps.Logger.Error(s.deps.Logger.WithChatID(ctx, ref.ChatID), "card refresh failed", err)
		s.notify(ctx, ref.ChatID, text, markup)
	}
}

// cleanupLastMessage deletes the customer's stale order card, if the session
// remembered one. Best-effort.
func (s *Service) cleanupLastMessage(ctx context.Context, order *models.Order) {
	if order.Session == nil || order.Session.LastAction == nil {
		return
	}
	action := order.Session.LastAction
	if action.LastMessageID == 0 {
		return
	}
	chatID := action.LastMessageChatID
	if chatID == 0 {
		chatID = order.TgUserID
	}
	if err := s.deps.Gateway.Delete(ctx, chatID, action.LastMessageID); err != nil {
		s.deps.Logger.Warn(s.deps.Logger.WithChatID(ctx, chatID), "stale card deletion failed")
	}
}

func transitionErr(current *models.Order, target enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order %d cannot move from %s to %s", current.ID, current.StatusID, target)).
		WithDetails(map[string]any{
			"status": current.StatusID.Title(),
			"target": target.Title(),
		})
}
