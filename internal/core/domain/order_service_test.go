package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

const testInvoice = "lnbcrt420u1p3unwfusp5..."

func newPubkey(t *testing.T) string {
	t.Helper()

	keyPair, err := crypter.NewKeyPair()
	require.NoError(t, err)
	return keyPair.PubKey()
}

type orderFixture struct {
	maker  string
	taker  string
	order  *domain.Order
	now    time.Time
	broker domain.Actor
}

func newPendingOrder(t *testing.T, kind domain.Kind) orderFixture {
	t.Helper()

	maker := newPubkey(t)
	now := time.Now()
	order, err := domain.NewOrder(domain.NewOrderOpts{
		Kind:          kind,
		FiatCode:      "eur",
		FiatAmount:    100,
		Amount:        200000,
		PaymentMethod: "SEPA",
		MakerPubkey:   maker,
		CreatedAt:     now,
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	return orderFixture{
		maker:  maker,
		taker:  newPubkey(t),
		order:  order,
		now:    now,
		broker: domain.Actor{Role: domain.RoleBroker},
	}
}

func (f orderFixture) asMaker() domain.Actor {
	return domain.Actor{Role: domain.RoleMaker, Pubkey: f.maker}
}

func (f orderFixture) asTaker() domain.Actor {
	return domain.Actor{Role: domain.RoleTaker, Pubkey: f.taker}
}

func TestNewOrder(t *testing.T) {
	maker := newPubkey(t)
	now := time.Now()

	order, err := domain.NewOrder(domain.NewOrderOpts{
		Kind:          domain.KindSell,
		FiatCode:      "ves",
		FiatAmount:    100,
		PaymentMethod: "face to face",
		Premium:       3,
		MakerPubkey:   maker,
		CreatedAt:     now,
		TTL:           24 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
	require.Equal(t, maker, order.SellerPubkey())
	require.Empty(t, order.BuyerPubkey())
	require.Equal(t, now.Add(24*time.Hour).Unix(), order.ExpiresAt)
	require.False(t, order.IsRange())
}

func TestFailingNewOrder(t *testing.T) {
	maker := newPubkey(t)
	now := time.Now()
	min, max := int64(100), int64(50)

	tests := []struct {
		name string
		opts domain.NewOrderOpts
		err  error
	}{
		{
			name: "with_invalid_kind",
			opts: domain.NewOrderOpts{
				Kind: "lend", FiatCode: "eur", FiatAmount: 100,
				PaymentMethod: "SEPA", MakerPubkey: maker, CreatedAt: now,
			},
			err: domain.ErrInvalidOrderKind,
		},
		{
			name: "with_missing_fiat_code",
			opts: domain.NewOrderOpts{
				Kind: domain.KindSell, FiatAmount: 100,
				PaymentMethod: "SEPA", MakerPubkey: maker, CreatedAt: now,
			},
			err: domain.ErrMissingOrderFields,
		},
		{
			name: "with_invalid_maker_pubkey",
			opts: domain.NewOrderOpts{
				Kind: domain.KindSell, FiatCode: "eur", FiatAmount: 100,
				PaymentMethod: "SEPA", MakerPubkey: "deadbeef", CreatedAt: now,
			},
			err: domain.ErrInvalidPubkey,
		},
		{
			name: "with_premium_on_fixed_amount",
			opts: domain.NewOrderOpts{
				Kind: domain.KindSell, FiatCode: "eur", FiatAmount: 100,
				Amount: 200000, Premium: 5,
				PaymentMethod: "SEPA", MakerPubkey: maker, CreatedAt: now,
			},
			err: domain.ErrInvalidPremium,
		},
		{
			name: "with_inverted_range",
			opts: domain.NewOrderOpts{
				Kind: domain.KindSell, FiatCode: "eur",
				MinAmount: &min, MaxAmount: &max,
				PaymentMethod: "SEPA", MakerPubkey: maker, CreatedAt: now,
			},
			err: domain.ErrInvalidRange,
		},
		{
			name: "with_missing_fiat_amount",
			opts: domain.NewOrderOpts{
				Kind: domain.KindSell, FiatCode: "eur",
				PaymentMethod: "SEPA", MakerPubkey: maker, CreatedAt: now,
			},
			err: domain.ErrInvalidFiatAmount,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order, err := domain.NewOrder(tt.opts)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, order)
		})
	}
}

func TestSellOrderHappyPath(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)

	taken, err := domain.Apply(*f.order, domain.Transition{
		Action: protocol.ActionTakeSell, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingBuyerInvoice, taken.Status)
	require.Equal(t, f.taker, taken.BuyerPubkey())
	require.Equal(t, f.maker, taken.SellerPubkey())
	// the input snapshot must never change
	require.Equal(t, domain.StatusPending, f.order.Status)
	require.Empty(t, f.order.TakerPubkey)

	invoiced, err := domain.Apply(*taken, domain.Transition{
		Action: protocol.ActionAddInvoice, Actor: f.asTaker(), Now: f.now,
		Invoice: testInvoice,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingPayment, invoiced.Status)
	require.Equal(t, testInvoice, invoiced.BuyerInvoice)

	active, err := domain.Apply(*invoiced, domain.Transition{
		Action: protocol.ActionPayInvoice, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, active.Status)
	require.Greater(t, active.InvoiceHeldAt, int64(0))

	fiatSent, err := domain.Apply(*active, domain.Transition{
		Action: protocol.ActionFiatSent, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusFiatSent, fiatSent.Status)

	released, err := domain.Apply(*fiatSent, domain.Transition{
		Action: protocol.ActionRelease, Actor: f.asMaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, released.Status)
	require.True(t, released.Status.IsTerminal())

	_, err = domain.Apply(*released, domain.Transition{
		Action: protocol.ActionRelease, Actor: f.asMaker(), Now: f.now,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyTerminal)
}

func TestBuyOrderHappyPath(t *testing.T) {
	f := newPendingOrder(t, domain.KindBuy)

	taken, err := domain.Apply(*f.order, domain.Transition{
		Action: protocol.ActionTakeBuy, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingPayment, taken.Status)
	require.Equal(t, f.maker, taken.BuyerPubkey())
	require.Equal(t, f.taker, taken.SellerPubkey())

	held, err := domain.Apply(*taken, domain.Transition{
		Action: protocol.ActionHoldInvoicePaymentAccepted, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingBuyerInvoice, held.Status)

	active, err := domain.Apply(*held, domain.Transition{
		Action: protocol.ActionAddInvoice, Actor: f.asMaker(), Now: f.now,
		Invoice: testInvoice,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, active.Status)

	settled, err := domain.Apply(*active, domain.Transition{
		Action: protocol.ActionHoldInvoicePaymentSettled, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSettledHoldInvoice, settled.Status)

	completed, err := domain.Apply(*settled, domain.Transition{
		Action: protocol.ActionPurchaseCompleted, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, completed.Status)
}

func TestTakeRangeOrder(t *testing.T) {
	maker := newPubkey(t)
	taker := newPubkey(t)
	now := time.Now()
	min, max := int64(10), int64(500)

	order, err := domain.NewOrder(domain.NewOrderOpts{
		Kind: domain.KindSell, FiatCode: "eur",
		MinAmount: &min, MaxAmount: &max,
		PaymentMethod: "SEPA", MakerPubkey: maker,
		CreatedAt: now, TTL: time.Hour,
	})
	require.NoError(t, err)
	require.True(t, order.IsRange())

	_, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionTakeSell,
		Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
		Now:    now, FiatAmount: 501, Amount: 123456,
	})
	require.ErrorIs(t, err, domain.ErrInvalidFiatAmount)

	_, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionTakeSell,
		Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
		Now:    now, FiatAmount: 100,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	taken, err := domain.Apply(*order, domain.Transition{
		Action: protocol.ActionTakeSell,
		Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
		Now:    now, FiatAmount: 100, Amount: 123456,
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), taken.FiatAmount)
	require.Equal(t, int64(123456), taken.Amount)
}

func TestFailingApply(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)
	stranger := newPubkey(t)

	active, err := domain.Apply(*f.order, domain.Transition{
		Action: protocol.ActionTakeSell, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	active, err = domain.Apply(*active, domain.Transition{
		Action: protocol.ActionAddInvoice, Actor: f.asTaker(), Now: f.now,
		Invoice: testInvoice,
	})
	require.NoError(t, err)
	active, err = domain.Apply(*active, domain.Transition{
		Action: protocol.ActionPayInvoice, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		order domain.Order
		tr    domain.Transition
		err   error
	}{
		{
			name:  "release_from_pending",
			order: *f.order,
			tr:    domain.Transition{Action: protocol.ActionRelease, Actor: f.asMaker(), Now: f.now},
			err:   domain.ErrInvalidTransition,
		},
		{
			name:  "unknown_action",
			order: *f.order,
			tr:    domain.Transition{Action: "self-destruct", Actor: f.asMaker(), Now: f.now},
			err:   domain.ErrInvalidTransition,
		},
		{
			name:  "take_own_order",
			order: *f.order,
			tr: domain.Transition{
				Action: protocol.ActionTakeSell,
				Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: f.maker},
				Now:    f.now,
			},
			err: domain.ErrUnauthorized,
		},
		{
			name:  "take_buy_on_sell_order",
			order: *f.order,
			tr:    domain.Transition{Action: protocol.ActionTakeBuy, Actor: f.asTaker(), Now: f.now},
			err:   domain.ErrInvalidOrderKind,
		},
		{
			name:  "cancel_pending_by_stranger",
			order: *f.order,
			tr: domain.Transition{
				Action: protocol.ActionCancel,
				Actor:  domain.Actor{Role: domain.RoleMaker, Pubkey: stranger},
				Now:    f.now,
			},
			err: domain.ErrUnauthorized,
		},
		{
			name:  "release_by_buyer",
			order: *active,
			tr:    domain.Transition{Action: protocol.ActionRelease, Actor: f.asTaker(), Now: f.now},
			err:   domain.ErrUnauthorized,
		},
		{
			name:  "fiat_sent_by_seller",
			order: *active,
			tr:    domain.Transition{Action: protocol.ActionFiatSent, Actor: f.asMaker(), Now: f.now},
			err:   domain.ErrUnauthorized,
		},
		{
			name:  "settle_hold_invoice_by_party",
			order: *active,
			tr:    domain.Transition{Action: protocol.ActionHoldInvoicePaymentSettled, Actor: f.asMaker(), Now: f.now},
			err:   domain.ErrUnauthorized,
		},
		{
			name:  "take_expired_order",
			order: *f.order,
			tr: domain.Transition{
				Action: protocol.ActionTakeSell, Actor: f.asTaker(),
				Now: f.now.Add(2 * time.Hour),
			},
			err: domain.ErrOrderExpired,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			before := tt.order
			next, err := domain.Apply(tt.order, tt.tr)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, next)
			require.Equal(t, before, tt.order)
		})
	}
}

func TestCancelExpiredOrder(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)
	late := f.now.Add(2 * time.Hour)

	// cancellation stays available past expiry
	canceled, err := domain.Apply(*f.order, domain.Transition{
		Action: protocol.ActionCancel, Actor: f.asMaker(), Now: late,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, canceled.Status)
}

func TestCooperativeCancel(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)

	order, err := domain.Apply(*f.order, domain.Transition{
		Action: protocol.ActionTakeSell, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	order, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionAddInvoice, Actor: f.asTaker(), Now: f.now,
		Invoice: testInvoice,
	})
	require.NoError(t, err)
	order, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionPayInvoice, Actor: f.broker, Now: f.now,
	})
	require.NoError(t, err)

	// the first cancel only records the intent
	order, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionCancel, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, order.Status)
	require.True(t, order.BuyerCoopCancel)
	require.False(t, order.SellerCoopCancel)

	// the same party asking again changes nothing
	order, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionCancel, Actor: f.asTaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, order.Status)

	// the counterparty completes it
	order, err = domain.Apply(*order, domain.Transition{
		Action: protocol.ActionCancel, Actor: f.asMaker(), Now: f.now,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCooperativelyCanceled, order.Status)
	require.True(t, order.Status.IsTerminal())
}

func TestExpire(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)

	_, err := domain.Expire(*f.order, f.now.Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrExpiryNotReached)

	expired, err := domain.Expire(*f.order, f.now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, expired.Status)
	require.True(t, expired.Status.IsTerminal())

	_, err = domain.Expire(*expired, f.now.Add(3*time.Hour))
	require.ErrorIs(t, err, domain.ErrAlreadyTerminal)
}

func TestRecordRating(t *testing.T) {
	f := newPendingOrder(t, domain.KindSell)
	f.order.TakerPubkey = f.taker
	f.order.Status = domain.StatusActive

	require.ErrorIs(t, f.order.RecordRating(f.taker), domain.ErrInvalidTransition)

	f.order.Status = domain.StatusSuccess
	require.NoError(t, f.order.RecordRating(f.taker))
	require.ErrorIs(t, f.order.RecordRating(f.taker), domain.ErrAlreadyRated)
	require.NoError(t, f.order.RecordRating(f.maker))
	require.ErrorIs(t, f.order.RecordRating(newPubkey(t)), domain.ErrUnauthorized)
}

func TestResolveAmount(t *testing.T) {
	price := decimal.NewFromInt(50000)

	sats, err := domain.ResolveAmount(100, price, 0)
	require.NoError(t, err)
	require.Equal(t, int64(200000), sats)

	sats, err = domain.ResolveAmount(100, price, 25)
	require.NoError(t, err)
	require.Equal(t, int64(160000), sats)

	_, err = domain.ResolveAmount(0, price, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.ResolveAmount(100, decimal.Zero, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}
