package domain

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository is the abstraction for any kind of database intended to
// persist Orders.
type OrderRepository interface {
	// AddOrder persists a new order.
	AddOrder(ctx context.Context, order *Order) error
	// GetOrder returns the order with the given id, or ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	// GetOrdersByStatus returns all the orders in the given status.
	GetOrdersByStatus(ctx context.Context, status Status) ([]*Order, error)
	// GetOrdersByParty returns all the orders the given trade pubkey takes
	// part in, as maker or taker.
	GetOrdersByParty(ctx context.Context, pubkey string) ([]*Order, error)
	// GetExpirableOrders returns the pre-active orders whose expiry time
	// elapsed at the given unix timestamp.
	GetExpirableOrders(ctx context.Context, now int64) ([]*Order, error)
	// UpdateOrder allows to commit multiple changes to the same order in a
	// transactional way.
	UpdateOrder(
		ctx context.Context,
		orderID uuid.UUID,
		updateFn func(o *Order) (*Order, error),
	) error
}
