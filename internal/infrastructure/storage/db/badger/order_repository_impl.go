package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
)

type orderRepositoryImpl struct {
	db *DbManager
}

// NewOrderRepositoryImpl returns a badger implementation of the domain
// OrderRepository.
func NewOrderRepositoryImpl(db *DbManager) domain.OrderRepository {
	return orderRepositoryImpl{
		db: db,
	}
}

func (r orderRepositoryImpl) AddOrder(
	ctx context.Context, order *domain.Order,
) error {
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = r.db.OrderStore.TxInsert(tx, order.ID, order)
	} else {
		err = r.db.OrderStore.Insert(order.ID, order)
	}
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrOrderAlreadyExists
	}
	return err
}

func (r orderRepositoryImpl) GetOrder(
	ctx context.Context, orderID uuid.UUID,
) (*domain.Order, error) {
	var order domain.Order
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = r.db.OrderStore.TxGet(tx, orderID, &order)
	} else {
		err = r.db.OrderStore.Get(orderID, &order)
	}
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r orderRepositoryImpl) GetOrdersByStatus(
	ctx context.Context, status domain.Status,
) ([]*domain.Order, error) {
	query := badgerhold.Where("Status").Eq(status)
	return r.findOrders(ctx, query)
}

func (r orderRepositoryImpl) GetOrdersByParty(
	ctx context.Context, pubkey string,
) ([]*domain.Order, error) {
	query := badgerhold.Where("MakerPubkey").Eq(pubkey).
		Or(badgerhold.Where("TakerPubkey").Eq(pubkey))
	return r.findOrders(ctx, query)
}

func (r orderRepositoryImpl) GetExpirableOrders(
	ctx context.Context, now int64,
) ([]*domain.Order, error) {
	query := badgerhold.Where("ExpiresAt").Gt(int64(0)).
		And("ExpiresAt").Le(now).
		And("Status").In(
		domain.StatusPending,
		domain.StatusWaitingPayment,
		domain.StatusWaitingBuyerInvoice,
	)
	return r.findOrders(ctx, query)
}

// UpdateOrder runs updateFn against the current order inside a read-write
// transaction. A commit conflict with a concurrent update surfaces as
// domain.ErrStaleSnapshot so the caller can reload and retry.
func (r orderRepositoryImpl) UpdateOrder(
	ctx context.Context,
	orderID uuid.UUID,
	updateFn func(o *domain.Order) (*domain.Order, error),
) error {
	update := func(tx *badger.Txn) error {
		var order domain.Order
		if err := r.db.OrderStore.TxGet(tx, orderID, &order); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		updatedOrder, err := updateFn(&order)
		if err != nil {
			return err
		}
		return r.db.OrderStore.TxUpdate(tx, orderID, *updatedOrder)
	}

	if tx := txFromContext(ctx); tx != nil {
		return update(tx)
	}

	err := r.db.OrderStore.Badger().Update(update)
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrStaleSnapshot
	}
	return err
}

func (r orderRepositoryImpl) findOrders(
	ctx context.Context, query *badgerhold.Query,
) ([]*domain.Order, error) {
	var list []domain.Order
	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = r.db.OrderStore.TxFind(tx, &list, query)
	} else {
		err = r.db.OrderStore.Find(&list, query)
	}
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(list))
	for i := range list {
		orders = append(orders, &list[i])
	}
	return orders, nil
}
