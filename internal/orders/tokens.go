package orders

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/enums"
)

// Action is the verb half of a callback token.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionDecline  Action = "decline"
	ActionReady    Action = "ready"
	ActionPickup   Action = "pickup"
	ActionComplete Action = "complete"

	// Draft-building verbs, produced by the customer's order card.
	ActionIncrement Action = "increment"
	ActionDecrement Action = "decrement"
	ActionComment   Action = "comment"
	ActionFinalize  Action = "finalize"
)

// Callback is a parsed inline-button token: verb, order id and, for pickup
// confirmations, the chosen bucket.
type Callback struct {
	Action  Action
	OrderID int64
	Bucket  enums.PickupBucket
}

// Token spellings are the wire format shared with already-deployed keyboards;
// "order_complit" is intentional and must not be fixed.
const (
	confirmPrefix  = "confirm_order_"
	declinePrefix  = "decline_order_"
	readyPrefix    = "order_ready_"
	completePrefix = "order_complit_"
	pickupPrefix   = "pickup_"
	qtyIncPrefix   = "update_qty_+_"
	qtyDecPrefix   = "update_qty_-_"
	commentPrefix  = "customer_comment_"
	finalizePrefix = "pay_"
)

// ConfirmToken encodes the seller-confirms action for an order.
func ConfirmToken(orderID int64) string {
	return confirmPrefix + strconv.FormatInt(orderID, 10)
}

// DeclineToken encodes the decline action for an order.
func DeclineToken(orderID int64) string {
	return declinePrefix + strconv.FormatInt(orderID, 10)
}

// ReadyToken encodes the mark-ready action for an order.
func ReadyToken(orderID int64) string {
	return readyPrefix + strconv.FormatInt(orderID, 10)
}

// CompleteToken encodes the handed-over action for an order.
func CompleteToken(orderID int64) string {
	return completePrefix + strconv.FormatInt(orderID, 10)
}

// PickupToken encodes the customer pickup-bucket choice for an order.
func PickupToken(bucket enums.PickupBucket, orderID int64) string {
	return fmt.Sprintf("%s%s_%d", pickupPrefix, bucket, orderID)
}

// IncrementToken and DecrementToken encode the draft card's quantity steppers.
func IncrementToken(orderID int64) string {
	return qtyIncPrefix + strconv.FormatInt(orderID, 10)
}

func DecrementToken(orderID int64) string {
	return qtyDecPrefix + strconv.FormatInt(orderID, 10)
}

// CommentToken encodes the attach-a-comment action for a draft.
func CommentToken(orderID int64) string {
	return commentPrefix + strconv.FormatInt(orderID, 10)
}

// FinalizeToken encodes the place-the-order action for a draft.
func FinalizeToken(orderID int64) string {
	return finalizePrefix + strconv.FormatInt(orderID, 10)
}

// ParseCallback decodes a callback token produced by the functions above.
func ParseCallback(data string) (Callback, error) {
	switch {
	case strings.HasPrefix(data, confirmPrefix):
		return simpleCallback(ActionConfirm, strings.TrimPrefix(data, confirmPrefix))
	case strings.HasPrefix(data, declinePrefix):
		return simpleCallback(ActionDecline, strings.TrimPrefix(data, declinePrefix))
	case strings.HasPrefix(data, readyPrefix):
		return simpleCallback(ActionReady, strings.TrimPrefix(data, readyPrefix))
	case strings.HasPrefix(data, completePrefix):
		return simpleCallback(ActionComplete, strings.TrimPrefix(data, completePrefix))
	case strings.HasPrefix(data, pickupPrefix):
		return pickupCallback(strings.TrimPrefix(data, pickupPrefix))
	case strings.HasPrefix(data, qtyIncPrefix):
		return simpleCallback(ActionIncrement, strings.TrimPrefix(data, qtyIncPrefix))
	case strings.HasPrefix(data, qtyDecPrefix):
		return simpleCallback(ActionDecrement, strings.TrimPrefix(data, qtyDecPrefix))
	case strings.HasPrefix(data, commentPrefix):
		return simpleCallback(ActionComment, strings.TrimPrefix(data, commentPrefix))
	case strings.HasPrefix(data, finalizePrefix):
		return simpleCallback(ActionFinalize, strings.TrimPrefix(data, finalizePrefix))
	default:
		return Callback{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown callback token %q", data))
	}
}

func simpleCallback(action Action, rawID string) (Callback, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return Callback{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order id in callback token %q", rawID))
	}
	return Callback{Action: action, OrderID: id}, nil
}

func pickupCallback(rest string) (Callback, error) {
	rawBucket, rawID, found := strings.Cut(rest, "_")
	if !found {
		return Callback{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("malformed pickup token %q", rest))
	}
	bucket, err := enums.ParsePickupBucket(rawBucket)
	if err != nil {
		return Callback{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse pickup bucket")
	}
	cb, err := simpleCallback(ActionPickup, rawID)
	if err != nil {
		return Callback{}, err
	}
	cb.Bucket = bucket
	return cb, nil
}
