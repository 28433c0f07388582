package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

// Order defines the Order entity data structure for holding one trade
// between a maker and a taker, mediated by the broker's hold invoice.
type Order struct {
	ID            uuid.UUID
	Kind          Kind
	Status        Status
	EventID       string
	FiatCode      string
	FiatAmount    int64
	MinAmount     *int64
	MaxAmount     *int64
	Amount        int64
	PaymentMethod string
	Premium       int64

	MakerPubkey string
	TakerPubkey string

	BuyerInvoice    string
	NextTradePubkey string
	NextTradeIndex  uint32
	RangeParentID   *uuid.UUID

	BuyerCoopCancel  bool
	SellerCoopCancel bool
	BuyerDispute     bool
	SellerDispute    bool
	DisputeID        *uuid.UUID

	PaymentAttempts int64
	FailedPayment   bool

	BuyerRated  bool
	SellerRated bool

	CreatedAt     int64
	ExpiresAt     int64
	TakenAt       int64
	InvoiceHeldAt int64
}

// NewOrderOpts is the struct given to NewOrder.
type NewOrderOpts struct {
	Kind          Kind
	FiatCode      string
	FiatAmount    int64
	MinAmount     *int64
	MaxAmount     *int64
	Amount        int64
	PaymentMethod string
	Premium       int64
	MakerPubkey   string
	EventID       string
	RangeParentID *uuid.UUID
	CreatedAt     time.Time
	TTL           time.Duration
}

func (o NewOrderOpts) validate() error {
	if _, err := ParseKind(string(o.Kind)); err != nil {
		return err
	}
	if o.FiatCode == "" || o.PaymentMethod == "" {
		return ErrMissingOrderFields
	}
	if err := crypter.ValidatePubKey(o.MakerPubkey); err != nil {
		return ErrInvalidPubkey
	}
	if o.Amount < 0 {
		return ErrInvalidAmount
	}
	// A fixed sats amount already prices the trade, a premium on top of it
	// is contradictory.
	if o.Amount > 0 && o.Premium != 0 {
		return ErrInvalidPremium
	}
	if o.MinAmount != nil || o.MaxAmount != nil {
		if o.MinAmount == nil || o.MaxAmount == nil ||
			*o.MinAmount <= 0 || *o.MinAmount >= *o.MaxAmount {
			return ErrInvalidRange
		}
		if o.Amount > 0 {
			return ErrInvalidRange
		}
		return nil
	}
	if o.FiatAmount <= 0 {
		return ErrInvalidFiatAmount
	}
	return nil
}

// NewOrder returns a pending order owned by the maker. Range orders carry
// min/max fiat limits and no fiat amount until taken.
func NewOrder(opts NewOrderOpts) (*Order, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	createdAt := opts.CreatedAt.Unix()
	order := &Order{
		ID:            uuid.New(),
		Kind:          opts.Kind,
		Status:        StatusPending,
		EventID:       opts.EventID,
		FiatCode:      opts.FiatCode,
		FiatAmount:    opts.FiatAmount,
		MinAmount:     opts.MinAmount,
		MaxAmount:     opts.MaxAmount,
		Amount:        opts.Amount,
		PaymentMethod: opts.PaymentMethod,
		Premium:       opts.Premium,
		MakerPubkey:   opts.MakerPubkey,
		RangeParentID: opts.RangeParentID,
		CreatedAt:     createdAt,
	}
	if opts.TTL > 0 {
		order.ExpiresAt = opts.CreatedAt.Add(opts.TTL).Unix()
	}
	return order, nil
}

// IsRange returns whether the order quotes a fiat range instead of a fixed
// fiat amount.
func (o *Order) IsRange() bool {
	return o.MinAmount != nil && o.MaxAmount != nil
}

// BuyerPubkey resolves the buying party from the order kind: the maker of
// a buy order buys, the taker of a sell order buys.
func (o *Order) BuyerPubkey() string {
	if o.Kind == KindBuy {
		return o.MakerPubkey
	}
	return o.TakerPubkey
}

// SellerPubkey resolves the selling party from the order kind.
func (o *Order) SellerPubkey() string {
	if o.Kind == KindSell {
		return o.MakerPubkey
	}
	return o.TakerPubkey
}

// IsParty returns whether the given trade pubkey belongs to the order.
func (o *Order) IsParty(pubkey string) bool {
	if pubkey == "" {
		return false
	}
	return pubkey == o.MakerPubkey || pubkey == o.TakerPubkey
}

// CounterpartyPubkey returns the other side of the trade, or the empty
// string if the pubkey is not a party.
func (o *Order) CounterpartyPubkey(pubkey string) string {
	switch pubkey {
	case o.MakerPubkey:
		return o.TakerPubkey
	case o.TakerPubkey:
		return o.MakerPubkey
	default:
		return ""
	}
}

// IsExpired returns whether the order sat unexercised past its expiry.
// Only pre-active orders expire; once the hold invoice is funded the
// timeout machinery of the invoice itself takes over.
func (o *Order) IsExpired(now time.Time) bool {
	switch o.Status {
	case StatusPending, StatusWaitingPayment, StatusWaitingBuyerInvoice:
		return o.ExpiresAt > 0 && now.Unix() >= o.ExpiresAt
	default:
		return false
	}
}

// ToWire returns the wire representation of the order for message
// payloads.
func (o *Order) ToWire() *protocol.SmallOrder {
	id := o.ID
	return &protocol.SmallOrder{
		ID:                &id,
		Kind:              o.Kind.String(),
		Status:            o.Status.String(),
		Amount:            o.Amount,
		FiatCode:          o.FiatCode,
		MinAmount:         o.MinAmount,
		MaxAmount:         o.MaxAmount,
		FiatAmount:        o.FiatAmount,
		PaymentMethod:     o.PaymentMethod,
		Premium:           o.Premium,
		BuyerTradePubkey:  o.BuyerPubkey(),
		SellerTradePubkey: o.SellerPubkey(),
		BuyerInvoice:      o.BuyerInvoice,
		CreatedAt:         o.CreatedAt,
		ExpiresAt:         o.ExpiresAt,
	}
}
