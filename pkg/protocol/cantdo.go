package protocol

// CantDoReason tells a user why a requested action was refused. Reasons
// travel as the payload of a cant-do message.
type CantDoReason string

const (
	ReasonInvalidSignature      CantDoReason = "invalid_signature"
	ReasonInvalidTradeIndex     CantDoReason = "invalid_trade_index"
	ReasonInvalidAmount         CantDoReason = "invalid_amount"
	ReasonInvalidInvoice        CantDoReason = "invalid_invoice"
	ReasonInvalidPaymentRequest CantDoReason = "invalid_payment_request"
	ReasonInvalidPeer           CantDoReason = "invalid_peer"
	ReasonInvalidRating         CantDoReason = "invalid_rating"
	ReasonInvalidTextMessage    CantDoReason = "invalid_text_message"
	ReasonInvalidOrderKind      CantDoReason = "invalid_order_kind"
	ReasonInvalidOrderStatus    CantDoReason = "invalid_order_status"
	ReasonInvalidPubkey         CantDoReason = "invalid_pubkey"
	ReasonInvalidParameters     CantDoReason = "invalid_parameters"
	ReasonOrderAlreadyCanceled  CantDoReason = "order_already_canceled"
	ReasonCantCreateUser        CantDoReason = "cant_create_user"
	ReasonIsNotYourOrder        CantDoReason = "is_not_your_order"
	ReasonNotAllowedByStatus    CantDoReason = "not_allowed_by_status"
	ReasonOutOfRangeFiatAmount  CantDoReason = "out_of_range_fiat_amount"
	ReasonOutOfRangeSatsAmount  CantDoReason = "out_of_range_sats_amount"
	ReasonIsNotYourDispute      CantDoReason = "is_not_your_dispute"
	ReasonDisputeCreationError  CantDoReason = "dispute_creation_error"
	ReasonInvalidDisputeStatus  CantDoReason = "invalid_dispute_status"
	ReasonNotFound              CantDoReason = "not_found"
	ReasonInvalidFiatCurrency   CantDoReason = "invalid_fiat_currency"
	ReasonTooManyRequests       CantDoReason = "too_many_requests"
)

var cantDoReasons = map[CantDoReason]struct{}{
	ReasonInvalidSignature:      {},
	ReasonInvalidTradeIndex:     {},
	ReasonInvalidAmount:         {},
	ReasonInvalidInvoice:        {},
	ReasonInvalidPaymentRequest: {},
	ReasonInvalidPeer:           {},
	ReasonInvalidRating:         {},
	ReasonInvalidTextMessage:    {},
	ReasonInvalidOrderKind:      {},
	ReasonInvalidOrderStatus:    {},
	ReasonInvalidPubkey:         {},
	ReasonInvalidParameters:     {},
	ReasonOrderAlreadyCanceled:  {},
	ReasonCantCreateUser:        {},
	ReasonIsNotYourOrder:        {},
	ReasonNotAllowedByStatus:    {},
	ReasonOutOfRangeFiatAmount:  {},
	ReasonOutOfRangeSatsAmount:  {},
	ReasonIsNotYourDispute:      {},
	ReasonDisputeCreationError:  {},
	ReasonInvalidDisputeStatus:  {},
	ReasonNotFound:              {},
	ReasonInvalidFiatCurrency:   {},
	ReasonTooManyRequests:       {},
}

// Valid returns whether the reason belongs to the known set.
func (r CantDoReason) Valid() bool {
	_, ok := cantDoReasons[r]
	return ok
}

// String implements fmt.Stringer.
func (r CantDoReason) String() string {
	return string(r)
}
