package dbbadger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

func newTestDb(t *testing.T) *DbManager {
	t.Helper()

	db, err := NewDbManager(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestPubkey(t *testing.T) string {
	t.Helper()

	keyPair, err := crypter.NewKeyPair()
	require.NoError(t, err)
	return keyPair.PubKey()
}

func newTestOrder(t *testing.T, maker string) *domain.Order {
	t.Helper()

	order, err := domain.NewOrder(domain.NewOrderOpts{
		Kind:          domain.KindSell,
		FiatCode:      "eur",
		FiatAmount:    100,
		Amount:        200000,
		PaymentMethod: "SEPA",
		MakerPubkey:   maker,
		EventID:       randstr.Hex(32),
		CreatedAt:     time.Now(),
		TTL:           time.Hour,
	})
	require.NoError(t, err)
	return order
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepositoryImpl(newTestDb(t))
	maker := newTestPubkey(t)
	order := newTestOrder(t, maker)

	require.NoError(t, repo.AddOrder(ctx, order))
	require.ErrorIs(t, repo.AddOrder(ctx, order), domain.ErrOrderAlreadyExists)

	found, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)
	require.Equal(t, domain.StatusPending, found.Status)
	require.Equal(t, maker, found.MakerPubkey)

	_, err = repo.GetOrder(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrdersByStatusAndParty(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepositoryImpl(newTestDb(t))
	maker := newTestPubkey(t)
	taker := newTestPubkey(t)

	pending := newTestOrder(t, maker)
	require.NoError(t, repo.AddOrder(ctx, pending))

	taken := newTestOrder(t, maker)
	next, err := domain.Apply(*taken, domain.Transition{
		Action: protocol.ActionTakeSell,
		Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
		Now:    time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.AddOrder(ctx, next))

	other := newTestOrder(t, newTestPubkey(t))
	require.NoError(t, repo.AddOrder(ctx, other))

	pendings, err := repo.GetOrdersByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, pendings, 2)

	waiting, err := repo.GetOrdersByStatus(ctx, domain.StatusWaitingBuyerInvoice)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	require.Equal(t, next.ID, waiting[0].ID)

	byMaker, err := repo.GetOrdersByParty(ctx, maker)
	require.NoError(t, err)
	require.Len(t, byMaker, 2)

	byTaker, err := repo.GetOrdersByParty(ctx, taker)
	require.NoError(t, err)
	require.Len(t, byTaker, 1)
	require.Equal(t, next.ID, byTaker[0].ID)
}

func TestGetExpirableOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepositoryImpl(newTestDb(t))

	order := newTestOrder(t, newTestPubkey(t))
	require.NoError(t, repo.AddOrder(ctx, order))

	expirable, err := repo.GetExpirableOrders(ctx, time.Now().Unix())
	require.NoError(t, err)
	require.Empty(t, expirable)

	expirable, err = repo.GetExpirableOrders(
		ctx, time.Now().Add(2*time.Hour).Unix(),
	)
	require.NoError(t, err)
	require.Len(t, expirable, 1)
	require.Equal(t, order.ID, expirable[0].ID)
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepositoryImpl(newTestDb(t))
	maker := newTestPubkey(t)
	taker := newTestPubkey(t)

	order := newTestOrder(t, maker)
	require.NoError(t, repo.AddOrder(ctx, order))

	err := repo.UpdateOrder(ctx, order.ID,
		func(o *domain.Order) (*domain.Order, error) {
			return domain.Apply(*o, domain.Transition{
				Action: protocol.ActionTakeSell,
				Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
				Now:    time.Now(),
			})
		},
	)
	require.NoError(t, err)

	found, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingBuyerInvoice, found.Status)
	require.Equal(t, taker, found.TakerPubkey)

	// a failing updateFn leaves the stored order untouched
	err = repo.UpdateOrder(ctx, order.ID,
		func(o *domain.Order) (*domain.Order, error) {
			return domain.Apply(*o, domain.Transition{
				Action: protocol.ActionRelease,
				Actor:  domain.Actor{Role: domain.RoleTaker, Pubkey: taker},
				Now:    time.Now(),
			})
		},
	)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	found, err = repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingBuyerInvoice, found.Status)

	err = repo.UpdateOrder(ctx, uuid.New(),
		func(o *domain.Order) (*domain.Order, error) { return o, nil },
	)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
