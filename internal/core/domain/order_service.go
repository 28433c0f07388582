package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

const satsPerBtc = 100_000_000

// Transition is the struct given to Apply. It carries the requested action,
// the authenticated actor and the side inputs some actions need.
type Transition struct {
	Action protocol.Action
	Actor  Actor
	Now    time.Time
	// Invoice is the buyer's Lightning invoice on add-invoice.
	Invoice string
	// Amount is the sats amount resolved at take time for market priced
	// orders.
	Amount int64
	// FiatAmount is the amount chosen by the taker of a range order.
	FiatAmount int64
	// DisputeID links the dispute record opened alongside the dispute
	// action.
	DisputeID *uuid.UUID
	// NextTradePubkey and NextTradeIndex hand over the key material for
	// the child of a range order on release.
	NextTradePubkey string
	NextTradeIndex  uint32
}

func (tr Transition) validate() error {
	if _, err := protocol.ParseAction(string(tr.Action)); err != nil {
		return ErrInvalidTransition
	}
	if tr.Now.IsZero() {
		return ErrInvalidTransition
	}
	switch tr.Actor.Role {
	case RoleMaker, RoleTaker:
		if err := crypter.ValidatePubKey(tr.Actor.Pubkey); err != nil {
			return ErrInvalidPubkey
		}
	case RoleBroker:
	default:
		return ErrUnauthorized
	}
	return nil
}

type transitionRule struct {
	roles map[Role]struct{}
	apply func(o *Order, tr Transition) error
}

func roles(rr ...Role) map[Role]struct{} {
	m := make(map[Role]struct{}, len(rr))
	for _, r := range rr {
		m[r] = struct{}{}
	}
	return m
}

// Apply runs one transition against an order snapshot and returns the next
// snapshot. The input order is never mutated: on any error the caller still
// holds the unchanged state. Legality is checked in a fixed sequence so a
// given rejection always maps to the same error: terminal status first, then
// expiry, then action legality, then actor authorization.
func Apply(order Order, tr Transition) (*Order, error) {
	if err := tr.validate(); err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if order.IsExpired(tr.Now) && !isCancelAction(tr.Action) {
		return nil, ErrOrderExpired
	}

	byAction, ok := transitions[order.Status]
	if !ok {
		return nil, ErrInvalidTransition
	}
	rule, ok := byAction[tr.Action]
	if !ok {
		return nil, ErrInvalidTransition
	}
	if _, ok := rule.roles[tr.Actor.Role]; !ok {
		return nil, ErrUnauthorized
	}

	next := order
	if err := rule.apply(&next, tr); err != nil {
		return nil, err
	}
	return &next, nil
}

func isCancelAction(a protocol.Action) bool {
	return a == protocol.ActionCancel || a == protocol.ActionAdminCancel
}

// transitions is the complete legality table of the order state machine.
// An absent (status, action) pair is an illegal transition, no exceptions.
var transitions = map[Status]map[protocol.Action]transitionRule{
	StatusPending: {
		protocol.ActionTakeSell: {
			roles: roles(RoleTaker),
			apply: func(o *Order, tr Transition) error {
				if o.Kind != KindSell {
					return ErrInvalidOrderKind
				}
				if err := takeOrder(o, tr); err != nil {
					return err
				}
				o.Status = StatusWaitingBuyerInvoice
				return nil
			},
		},
		protocol.ActionTakeBuy: {
			roles: roles(RoleTaker),
			apply: func(o *Order, tr Transition) error {
				if o.Kind != KindBuy {
					return ErrInvalidOrderKind
				}
				if err := takeOrder(o, tr); err != nil {
					return err
				}
				o.Status = StatusWaitingPayment
				return nil
			},
		},
		protocol.ActionCancel: {
			roles: roles(RoleMaker),
			apply: func(o *Order, tr Transition) error {
				if tr.Actor.Pubkey != o.MakerPubkey {
					return ErrUnauthorized
				}
				o.Status = StatusCanceled
				return nil
			},
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusWaitingBuyerInvoice: {
		protocol.ActionAddInvoice: {
			roles: roles(RoleMaker, RoleTaker),
			apply: func(o *Order, tr Transition) error {
				if tr.Actor.Pubkey != o.BuyerPubkey() {
					return ErrUnauthorized
				}
				if tr.Invoice == "" {
					return ErrMissingInvoice
				}
				o.BuyerInvoice = tr.Invoice
				// Once the seller already funded the hold invoice the
				// trade goes straight to active.
				if o.InvoiceHeldAt > 0 {
					o.Status = StatusActive
				} else {
					o.Status = StatusWaitingPayment
				}
				return nil
			},
		},
		protocol.ActionCancel: {
			roles: roles(RoleMaker, RoleTaker),
			apply: unilateralCancel,
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusWaitingPayment: {
		protocol.ActionPayInvoice: {
			roles: roles(RoleBroker),
			apply: holdInvoiceAccepted,
		},
		protocol.ActionHoldInvoicePaymentAccepted: {
			roles: roles(RoleBroker),
			apply: holdInvoiceAccepted,
		},
		protocol.ActionCancel: {
			roles: roles(RoleMaker, RoleTaker),
			apply: unilateralCancel,
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusActive: {
		protocol.ActionFiatSent: {
			roles: roles(RoleMaker, RoleTaker),
			apply: fiatSent,
		},
		protocol.ActionRelease: {
			roles: roles(RoleMaker, RoleTaker, RoleBroker),
			apply: release,
		},
		protocol.ActionHoldInvoicePaymentSettled: {
			roles: roles(RoleBroker),
			apply: holdInvoiceSettled,
		},
		protocol.ActionCancel: {
			roles: roles(RoleMaker, RoleTaker),
			apply: cooperativeCancel,
		},
		protocol.ActionDispute: {
			roles: roles(RoleMaker, RoleTaker),
			apply: openDispute,
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusFiatSent: {
		protocol.ActionRelease: {
			roles: roles(RoleMaker, RoleTaker, RoleBroker),
			apply: release,
		},
		protocol.ActionHoldInvoicePaymentSettled: {
			roles: roles(RoleBroker),
			apply: holdInvoiceSettled,
		},
		protocol.ActionCancel: {
			roles: roles(RoleMaker, RoleTaker),
			apply: cooperativeCancel,
		},
		protocol.ActionDispute: {
			roles: roles(RoleMaker, RoleTaker),
			apply: openDispute,
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusSettledHoldInvoice: {
		protocol.ActionPurchaseCompleted: {
			roles: roles(RoleBroker),
			apply: func(o *Order, tr Transition) error {
				o.Status = StatusSuccess
				return nil
			},
		},
		protocol.ActionPaymentFailed: {
			roles: roles(RoleBroker),
			apply: paymentFailed,
		},
		protocol.ActionDispute: {
			roles: roles(RoleMaker, RoleTaker),
			apply: openDispute,
		},
	},

	StatusDispute: {
		protocol.ActionAdminSettle: {
			roles: roles(RoleBroker),
			apply: func(o *Order, tr Transition) error {
				o.Status = StatusSettledByAdmin
				return nil
			},
		},
		protocol.ActionAdminCancel: {
			roles: roles(RoleBroker),
			apply: adminCancel,
		},
	},

	StatusSettledByAdmin: {
		protocol.ActionPurchaseCompleted: {
			roles: roles(RoleBroker),
			apply: func(o *Order, tr Transition) error {
				o.Status = StatusCompletedByAdmin
				return nil
			},
		},
		protocol.ActionPaymentFailed: {
			roles: roles(RoleBroker),
			apply: paymentFailed,
		},
	},
}

func takeOrder(o *Order, tr Transition) error {
	if tr.Actor.Pubkey == o.MakerPubkey {
		return ErrUnauthorized
	}
	if o.IsRange() {
		if tr.FiatAmount < *o.MinAmount || tr.FiatAmount > *o.MaxAmount {
			return ErrInvalidFiatAmount
		}
		o.FiatAmount = tr.FiatAmount
	}
	if o.Amount == 0 {
		if tr.Amount <= 0 {
			return ErrInvalidAmount
		}
		o.Amount = tr.Amount
	}
	o.TakerPubkey = tr.Actor.Pubkey
	o.TakenAt = tr.Now.Unix()
	return nil
}

func holdInvoiceAccepted(o *Order, tr Transition) error {
	o.InvoiceHeldAt = tr.Now.Unix()
	if o.BuyerInvoice != "" {
		o.Status = StatusActive
	} else {
		o.Status = StatusWaitingBuyerInvoice
	}
	return nil
}

func holdInvoiceSettled(o *Order, tr Transition) error {
	o.Status = StatusSettledHoldInvoice
	return nil
}

func fiatSent(o *Order, tr Transition) error {
	if tr.Actor.Pubkey != o.BuyerPubkey() {
		return ErrUnauthorized
	}
	o.Status = StatusFiatSent
	return nil
}

// release frees the held sats to the buyer. Only the seller, or the broker
// on its behalf, can release.
func release(o *Order, tr Transition) error {
	if tr.Actor.Role != RoleBroker && tr.Actor.Pubkey != o.SellerPubkey() {
		return ErrUnauthorized
	}
	if tr.NextTradePubkey != "" {
		if err := crypter.ValidatePubKey(tr.NextTradePubkey); err != nil {
			return ErrInvalidPubkey
		}
		o.NextTradePubkey = tr.NextTradePubkey
		o.NextTradeIndex = tr.NextTradeIndex
	}
	o.Status = StatusSuccess
	return nil
}

// unilateralCancel tears down a trade that is not active yet. Either party
// can walk away before the hold invoice locks funds.
func unilateralCancel(o *Order, tr Transition) error {
	if !o.IsParty(tr.Actor.Pubkey) {
		return ErrUnauthorized
	}
	o.Status = StatusCanceled
	return nil
}

// cooperativeCancel requires both parties: the first cancel only records
// the intent, the second one from the counterparty completes it.
func cooperativeCancel(o *Order, tr Transition) error {
	if !o.IsParty(tr.Actor.Pubkey) {
		return ErrUnauthorized
	}
	if tr.Actor.Pubkey == o.BuyerPubkey() {
		o.BuyerCoopCancel = true
	} else {
		o.SellerCoopCancel = true
	}
	if o.BuyerCoopCancel && o.SellerCoopCancel {
		o.Status = StatusCooperativelyCanceled
	}
	return nil
}

func openDispute(o *Order, tr Transition) error {
	if !o.IsParty(tr.Actor.Pubkey) {
		return ErrUnauthorized
	}
	if tr.DisputeID == nil {
		return ErrDisputeNotAllowed
	}
	if tr.Actor.Pubkey == o.BuyerPubkey() {
		o.BuyerDispute = true
	} else {
		o.SellerDispute = true
	}
	o.DisputeID = tr.DisputeID
	o.Status = StatusDispute
	return nil
}

func adminCancel(o *Order, tr Transition) error {
	o.Status = StatusCanceledByAdmin
	return nil
}

func paymentFailed(o *Order, tr Transition) error {
	o.FailedPayment = true
	o.PaymentAttempts++
	return nil
}

// Expire moves a pre-active order past its expiry time to the expired
// status. It is driven by the broker's scheduler, not by user messages.
func Expire(order Order, now time.Time) (*Order, error) {
	if order.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	switch order.Status {
	case StatusPending, StatusWaitingPayment, StatusWaitingBuyerInvoice:
	default:
		return nil, ErrInvalidTransition
	}
	if !order.IsExpired(now) {
		return nil, ErrExpiryNotReached
	}
	next := order
	next.Status = StatusExpired
	return &next, nil
}

// RecordRating marks that the given party rated its counterparty. Ratings
// are only admitted once the trade completed.
func (o *Order) RecordRating(pubkey string) error {
	switch o.Status {
	case StatusSuccess, StatusSettledByAdmin, StatusCompletedByAdmin:
	default:
		return ErrInvalidTransition
	}
	if !o.IsParty(pubkey) {
		return ErrUnauthorized
	}
	if pubkey == o.BuyerPubkey() {
		if o.BuyerRated {
			return ErrAlreadyRated
		}
		o.BuyerRated = true
		return nil
	}
	if o.SellerRated {
		return ErrAlreadyRated
	}
	o.SellerRated = true
	return nil
}

// ResolveAmount converts a fiat amount to sats at the given BTC price,
// applying the maker's premium on top of the price. It is used at take
// time for market priced orders.
func ResolveAmount(fiatAmount int64, btcPrice decimal.Decimal, premium int64) (int64, error) {
	if fiatAmount <= 0 || !btcPrice.IsPositive() {
		return 0, ErrInvalidAmount
	}
	price := btcPrice.Mul(decimal.NewFromInt(100 + premium)).Div(decimal.NewFromInt(100))
	if !price.IsPositive() {
		return 0, ErrInvalidAmount
	}
	sats := decimal.NewFromInt(fiatAmount).
		Div(price).
		Mul(decimal.NewFromInt(satsPerBtc)).
		IntPart()
	if sats <= 0 {
		return 0, ErrInvalidAmount
	}
	return sats, nil
}
