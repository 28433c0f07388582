package protocol

// Action identifies each message exchanged between the broker and users.
// The set is closed and versioned: decoding an action outside this list
// fails with ErrUnknownAction instead of being silently ignored, so a
// future or forged tag can never be downgraded into a known one.
type Action string

const (
	ActionNewOrder                         Action = "new-order"
	ActionTakeSell                         Action = "take-sell"
	ActionTakeBuy                          Action = "take-buy"
	ActionPayInvoice                       Action = "pay-invoice"
	ActionAddInvoice                       Action = "add-invoice"
	ActionFiatSent                         Action = "fiat-sent"
	ActionFiatSentOk                       Action = "fiat-sent-ok"
	ActionRelease                          Action = "release"
	ActionReleased                         Action = "released"
	ActionCancel                           Action = "cancel"
	ActionCanceled                         Action = "canceled"
	ActionCoopCancelInitiatedByYou         Action = "cooperative-cancel-initiated-by-you"
	ActionCoopCancelInitiatedByPeer        Action = "cooperative-cancel-initiated-by-peer"
	ActionCoopCancelAccepted               Action = "cooperative-cancel-accepted"
	ActionBuyerInvoiceAccepted             Action = "buyer-invoice-accepted"
	ActionBuyerTookOrder                   Action = "buyer-took-order"
	ActionWaitingSellerToPay               Action = "waiting-seller-to-pay"
	ActionWaitingBuyerInvoice              Action = "waiting-buyer-invoice"
	ActionHoldInvoicePaymentAccepted       Action = "hold-invoice-payment-accepted"
	ActionHoldInvoicePaymentSettled        Action = "hold-invoice-payment-settled"
	ActionHoldInvoicePaymentCanceled       Action = "hold-invoice-payment-canceled"
	ActionPurchaseCompleted                Action = "purchase-completed"
	ActionRate                             Action = "rate"
	ActionRateUser                         Action = "rate-user"
	ActionRateReceived                     Action = "rate-received"
	ActionDispute                          Action = "dispute"
	ActionDisputeInitiatedByYou            Action = "dispute-initiated-by-you"
	ActionDisputeInitiatedByPeer           Action = "dispute-initiated-by-peer"
	ActionAdminCancel                      Action = "admin-cancel"
	ActionAdminCanceled                    Action = "admin-canceled"
	ActionAdminSettle                      Action = "admin-settle"
	ActionAdminSettled                     Action = "admin-settled"
	ActionAdminTakeDispute                 Action = "admin-take-dispute"
	ActionAdminTookDispute                 Action = "admin-took-dispute"
	ActionPaymentFailed                    Action = "payment-failed"
	ActionCantDo                           Action = "cant-do"
	ActionSendDm                           Action = "send-dm"
	ActionTradePubkey                      Action = "trade-pubkey"
)

// actions is the closed set used to reject unknown tags at decode time.
var actions = map[Action]struct{}{
	ActionNewOrder:                   {},
	ActionTakeSell:                   {},
	ActionTakeBuy:                    {},
	ActionPayInvoice:                 {},
	ActionAddInvoice:                 {},
	ActionFiatSent:                   {},
	ActionFiatSentOk:                 {},
	ActionRelease:                    {},
	ActionReleased:                   {},
	ActionCancel:                     {},
	ActionCanceled:                   {},
	ActionCoopCancelInitiatedByYou:   {},
	ActionCoopCancelInitiatedByPeer:  {},
	ActionCoopCancelAccepted:         {},
	ActionBuyerInvoiceAccepted:       {},
	ActionBuyerTookOrder:             {},
	ActionWaitingSellerToPay:         {},
	ActionWaitingBuyerInvoice:        {},
	ActionHoldInvoicePaymentAccepted: {},
	ActionHoldInvoicePaymentSettled:  {},
	ActionHoldInvoicePaymentCanceled: {},
	ActionPurchaseCompleted:          {},
	ActionRate:                       {},
	ActionRateUser:                   {},
	ActionRateReceived:               {},
	ActionDispute:                    {},
	ActionDisputeInitiatedByYou:      {},
	ActionDisputeInitiatedByPeer:     {},
	ActionAdminCancel:                {},
	ActionAdminCanceled:              {},
	ActionAdminSettle:                {},
	ActionAdminSettled:               {},
	ActionAdminTakeDispute:           {},
	ActionAdminTookDispute:           {},
	ActionPaymentFailed:              {},
	ActionCantDo:                     {},
	ActionSendDm:                     {},
	ActionTradePubkey:                {},
}

// ParseAction validates a wire tag against the closed action set.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", ErrUnknownAction
	}
	return a, nil
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// IsPublic returns whether the action travels in clear on the relay
// network. Public actions are broadcast without a recipient and are not
// encrypted; everything else is sealed with the conversation key.
func (a Action) IsPublic() bool {
	return a == ActionNewOrder
}
