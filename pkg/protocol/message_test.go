package protocol_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

var testOrderID = uuid.MustParse("308e1272-d5f4-47e6-bd97-3504baea9c23")

func newOrderMessage() protocol.Message {
	requestID := uint64(1)
	tradeIndex := int64(2)
	return protocol.NewMessage(
		&testOrderID, &requestID, &tradeIndex, protocol.ActionNewOrder,
		&protocol.Payload{
			Order: &protocol.SmallOrder{
				ID:            &testOrderID,
				Kind:          "sell",
				Status:        "pending",
				Amount:        100,
				FiatCode:      "eur",
				FiatAmount:    100,
				PaymentMethod: "SEPA,Bank transfer",
				Premium:       1,
				CreatedAt:     1627371434,
			},
		},
	)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := newOrderMessage()

	raw, err := protocol.Encode(msg)
	require.NoError(t, err)

	decoded, err := protocol.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, msg, *decoded)
}

func TestEncodeIsCanonical(t *testing.T) {
	msg := newOrderMessage()

	first, err := protocol.Encode(msg)
	require.NoError(t, err)
	second, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.Equal(t, first, second)

	expected := `{"version":1,"id":"308e1272-d5f4-47e6-bd97-3504baea9c23",` +
		`"request_id":1,"trade_index":2,"action":"new-order","payload":` +
		`{"order":{"id":"308e1272-d5f4-47e6-bd97-3504baea9c23","kind":"sell",` +
		`"status":"pending","amount":100,"fiat_code":"eur","fiat_amount":100,` +
		`"payment_method":"SEPA,Bank transfer","premium":1,"created_at":1627371434}}}`
	require.Equal(t, expected, string(first))
}

func TestDecodeRejectsUnknownAction(t *testing.T) {
	raw := []byte(`{"version":1,"id":"308e1272-d5f4-47e6-bd97-3504baea9c23",` +
		`"action":"self-destruct"}`)
	_, err := protocol.Decode(raw)
	require.ErrorIs(t, err, protocol.ErrUnknownAction)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	raw := []byte(`{"version":1,"id":"308e1272-d5f4-47e6-bd97-3504baea9c23",` +
		`"action":"fiat-sent","extra":"field"}`)
	_, err := protocol.Decode(raw)
	require.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	raw := []byte(`{"version":2,"id":"308e1272-d5f4-47e6-bd97-3504baea9c23",` +
		`"action":"fiat-sent"}`)
	_, err := protocol.Decode(raw)
	require.ErrorIs(t, err, protocol.ErrVersionMismatch)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	raw := []byte(`{"version":1,"id":"308e1272-d5f4-47e6-bd97-3504baea9c23",` +
		`"action":"fiat-sent"}{"version":1}`)
	_, err := protocol.Decode(raw)
	require.ErrorIs(t, err, protocol.ErrMalformedPayload)
}

func TestValidate(t *testing.T) {
	rating := uint8(3)
	badRating := uint8(9)
	reason := protocol.ReasonNotAllowedByStatus
	badReason := protocol.CantDoReason("because")

	tests := []struct {
		name string
		msg  protocol.Message
		err  error
	}{
		{
			name: "new_order_without_payload",
			msg:  protocol.NewMessage(nil, nil, nil, protocol.ActionNewOrder, nil),
			err:  protocol.ErrMalformedPayload,
		},
		{
			name: "pay_invoice_without_id",
			msg: protocol.NewMessage(nil, nil, nil, protocol.ActionPayInvoice,
				&protocol.Payload{PaymentRequest: &protocol.PaymentRequest{Invoice: "lnbcrt1"}}),
			err: protocol.ErrMalformedPayload,
		},
		{
			name: "pay_invoice_without_invoice",
			msg: protocol.NewMessage(&testOrderID, nil, nil, protocol.ActionPayInvoice,
				&protocol.Payload{PaymentRequest: &protocol.PaymentRequest{}}),
			err: protocol.ErrMalformedPayload,
		},
		{
			name: "rate_user_out_of_range",
			msg: protocol.NewMessage(&testOrderID, nil, nil, protocol.ActionRateUser,
				&protocol.Payload{RatingUser: &badRating}),
			err: protocol.ErrMalformedPayload,
		},
		{
			name: "rate_user_ok",
			msg: protocol.NewMessage(&testOrderID, nil, nil, protocol.ActionRateUser,
				&protocol.Payload{RatingUser: &rating}),
		},
		{
			name: "cant_do_unknown_reason",
			msg: protocol.NewMessage(nil, nil, nil, protocol.ActionCantDo,
				&protocol.Payload{CantDo: &badReason}),
			err: protocol.ErrMalformedPayload,
		},
		{
			name: "cant_do_ok",
			msg:  protocol.NewCantDo(&testOrderID, nil, reason),
		},
		{
			name: "order_action_without_id",
			msg:  protocol.NewMessage(nil, nil, nil, protocol.ActionFiatSent, nil),
			err:  protocol.ErrMalformedPayload,
		},
		{
			name: "order_action_with_id",
			msg:  protocol.NewMessage(&testOrderID, nil, nil, protocol.ActionRelease, nil),
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := protocol.Validate(tt.msg)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOrderMessageWithUserInfo(t *testing.T) {
	msg := newOrderMessage()
	msg.Payload.UserInfo = &protocol.UserInfo{Rating: 4.5, Reviews: 10, OperatingDays: 30}

	raw, err := protocol.Encode(msg)
	require.NoError(t, err)

	decoded, err := protocol.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, decoded.Payload.UserInfo)
	require.Equal(t, 4.5, decoded.Payload.UserInfo.Rating)
	require.Equal(t, int64(10), decoded.Payload.UserInfo.Reviews)
	require.Equal(t, int64(30), decoded.Payload.UserInfo.OperatingDays)
}

func TestParseAction(t *testing.T) {
	action, err := protocol.ParseAction("take-sell")
	require.NoError(t, err)
	require.Equal(t, protocol.ActionTakeSell, action)

	_, err = protocol.ParseAction("Take-Sell")
	require.ErrorIs(t, err, protocol.ErrUnknownAction)
}
