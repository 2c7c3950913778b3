package enums

import "fmt"

// OrderStatus is the closed order life-cycle vocabulary. The numeric values
// are the persisted ids in order_statuses and must not be renumbered.
type OrderStatus int

const (
	OrderStatusCreated          OrderStatus = 1
	OrderStatusCustomerNotified OrderStatus = 2
	OrderStatusProcessing       OrderStatus = 3
	OrderStatusReady            OrderStatus = 4
	OrderStatusReceived         OrderStatus = 5
	OrderStatusDeclined         OrderStatus = 6
	OrderStatusExpired          OrderStatus = 7
	OrderStatusDraft            OrderStatus = 8
)

var orderStatusSlugs = map[OrderStatus]string{
	OrderStatusCreated:          "created",
	OrderStatusCustomerNotified: "customer_notified",
	OrderStatusProcessing:       "processing",
	OrderStatusReady:            "ready",
	OrderStatusReceived:         "received",
	OrderStatusDeclined:         "declined",
	OrderStatusExpired:          "expired",
	OrderStatusDraft:            "draft",
}

var orderStatusTitles = map[OrderStatus]string{
	OrderStatusCreated:          "Создан",
	OrderStatusCustomerNotified: "Покупатель уведомлён",
	OrderStatusProcessing:       "В работе",
	OrderStatusReady:            "Готов к выдаче",
	OrderStatusReceived:         "Выдан",
	OrderStatusDeclined:         "Отклонён",
	OrderStatusExpired:          "Время истекло",
	OrderStatusDraft:            "Черновик",
}

// String implements fmt.Stringer with the stable English slug.
func (s OrderStatus) String() string {
	if slug, ok := orderStatusSlugs[s]; ok {
		return slug
	}
	return fmt.Sprintf("order_status(%d)", int(s))
}

// Title returns the user-facing Russian status name.
func (s OrderStatus) Title() string {
	if title, ok := orderStatusTitles[s]; ok {
		return title
	}
	return s.String()
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusSlugs[s]
	return ok
}

// IsTerminal reports whether no further transition can leave the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusReceived, OrderStatusDeclined, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts a raw id into an OrderStatus.
func ParseOrderStatus(id int) (OrderStatus, error) {
	status := OrderStatus(id)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid order status id %d", id)
	}
	return status, nil
}

// transitions is the single source of truth for the life-cycle graph.
// Guards in handlers must consult CanTransition instead of comparing ids.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:            {OrderStatusCreated, OrderStatusExpired},
	OrderStatusCreated:          {OrderStatusProcessing, OrderStatusDeclined},
	OrderStatusProcessing:       {OrderStatusReady, OrderStatusDeclined},
	OrderStatusReady:            {OrderStatusCustomerNotified},
	OrderStatusCustomerNotified: {OrderStatusReceived},
}

// CanTransition reports whether from→to is an edge of the life-cycle graph.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DeclineAllowed reports whether an order may still be declined. Decline is
// only permitted while the order is in an actionable pre-fulfillment state.
func DeclineAllowed(current OrderStatus) bool {
	switch current {
	case OrderStatusCreated, OrderStatusProcessing:
		return true
	default:
		return false
	}
}

// ActiveStatuses are the "economically live" statuses used by dashboards:
// everything between finalization and hand-off, plus completed sales.
func ActiveStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusReceived,
		OrderStatusProcessing,
		OrderStatusReady,
		OrderStatusCustomerNotified,
		OrderStatusCreated,
	}
}

// ArchiveStatuses are shown under the dashboard "Архив" filter.
func ArchiveStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusReady,
		OrderStatusCustomerNotified,
		OrderStatusDeclined,
		OrderStatusExpired,
		OrderStatusReceived,
	}
}
