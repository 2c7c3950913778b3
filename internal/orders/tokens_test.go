package orders

import (
	"testing"

	"github.com/medovik-lab/honeybot-backend/pkg/enums"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
)

func TestParseCallback_roundTrips(t *testing.T) {
	cases := []struct {
		token string
		want  Callback
	}{
		{ConfirmToken(12), Callback{Action: ActionConfirm, OrderID: 12}},
		{DeclineToken(7), Callback{Action: ActionDecline, OrderID: 7}},
		{ReadyToken(3), Callback{Action: ActionReady, OrderID: 3}},
		{CompleteToken(99), Callback{Action: ActionComplete, OrderID: 99}},
		{PickupToken(enums.PickupToday, 5), Callback{Action: ActionPickup, OrderID: 5, Bucket: enums.PickupToday}},
		{PickupToken(enums.PickupTomorrow, 5), Callback{Action: ActionPickup, OrderID: 5, Bucket: enums.PickupTomorrow}},
		{PickupToken(enums.PickupLater, 5), Callback{Action: ActionPickup, OrderID: 5, Bucket: enums.PickupLater}},
		{IncrementToken(8), Callback{Action: ActionIncrement, OrderID: 8}},
		{DecrementToken(8), Callback{Action: ActionDecrement, OrderID: 8}},
		{CommentToken(8), Callback{Action: ActionComment, OrderID: 8}},
		{FinalizeToken(8), Callback{Action: ActionFinalize, OrderID: 8}},
	}
	for _, tc := range cases {
		got, err := ParseCallback(tc.token)
		if err != nil {
			t.Fatalf("ParseCallback(%q): %v", tc.token, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCallback(%q) = %+v, want %+v", tc.token, got, tc.want)
		}
	}
}

// Deployed keyboards still carry the historical "order_complit" spelling.
func TestParseCallback_legacyCompleteSpelling(t *testing.T) {
	got, err := ParseCallback("order_complit_41")
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if got.Action != ActionComplete || got.OrderID != 41 {
		t.Fatalf("unexpected callback: %+v", got)
	}
}

func TestParseCallback_rejectsMalformedTokens(t *testing.T) {
	bad := []string{
		"",
		"noop",
		"confirm_order_",
		"confirm_order_abc",
		"confirm_order_0",
		"confirm_order_-4",
		"pickup_5",
		"pickup_someday_5",
		"pickup_today_x",
		"order_complete_41",
		"update_qty_+_abc",
		"update_qty_*_5",
		"pay_",
		"customer_comment_0",
	}
	for _, token := range bad {
		if _, err := ParseCallback(token); err == nil {
			t.Fatalf("ParseCallback(%q) must fail", token)
		} else if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("ParseCallback(%q): expected validation error, got %v", token, err)
		}
	}
}
