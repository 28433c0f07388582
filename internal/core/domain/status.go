package domain

// Status represents the different statuses that an order can assume during
// its lifecycle. The string values are wire names: they are persisted and
// exchanged with clients, so they must stay stable across versions.
type Status string

const (
	StatusPending               Status = "pending"
	StatusWaitingPayment        Status = "waiting-payment"
	StatusWaitingBuyerInvoice   Status = "waiting-buyer-invoice"
	StatusActive                Status = "active"
	StatusFiatSent              Status = "fiat-sent"
	StatusSettledHoldInvoice    Status = "settled-hold-invoice"
	StatusCooperativelyCanceled Status = "cooperatively-canceled"
	StatusDispute               Status = "dispute"
	StatusSuccess               Status = "success"
	StatusCanceled              Status = "canceled"
	StatusCanceledByAdmin       Status = "canceled-by-admin"
	StatusSettledByAdmin        Status = "settled-by-admin"
	StatusCompletedByAdmin      Status = "completed-by-admin"
	StatusExpired               Status = "expired"
)

var statuses = map[Status]struct{}{
	StatusPending:               {},
	StatusWaitingPayment:        {},
	StatusWaitingBuyerInvoice:   {},
	StatusActive:                {},
	StatusFiatSent:              {},
	StatusSettledHoldInvoice:    {},
	StatusCooperativelyCanceled: {},
	StatusDispute:               {},
	StatusSuccess:               {},
	StatusCanceled:              {},
	StatusCanceledByAdmin:       {},
	StatusSettledByAdmin:        {},
	StatusCompletedByAdmin:      {},
	StatusExpired:               {},
}

// terminal statuses accept no further transition. The record is retained
// for audit and reputation but is logically destroyed. settled-by-admin is
// not terminal: it still admits the broker's payout bookkeeping that leads
// to completed-by-admin.
var terminalStatuses = map[Status]struct{}{
	StatusCooperativelyCanceled: {},
	StatusSuccess:               {},
	StatusCanceled:              {},
	StatusCanceledByAdmin:       {},
	StatusCompletedByAdmin:      {},
	StatusExpired:               {},
}

// ParseStatus converts a wire name to a status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := statuses[status]; !ok {
		return "", ErrInvalidOrderStatus
	}
	return status, nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns whether the status accepts further transitions.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Kind tells whether the maker buys or sells bitcoin.
type Kind string

const (
	KindBuy  Kind = "buy"
	KindSell Kind = "sell"
)

// ParseKind converts a wire name to an order kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBuy:
		return KindBuy, nil
	case KindSell:
		return KindSell, nil
	default:
		return "", ErrInvalidOrderKind
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Role is the capacity an actor acts in when requesting a transition.
type Role string

const (
	RoleMaker  Role = "maker"
	RoleTaker  Role = "taker"
	RoleBroker Role = "broker"
)

// Actor is the party requesting a transition: its role plus the trade
// pubkey it authenticated with. The broker has no trade pubkey.
type Actor struct {
	Role   Role
	Pubkey string
}
