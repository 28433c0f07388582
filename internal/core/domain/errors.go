package domain

import "errors"

var (
	// ErrInvalidOrderKind ...
	ErrInvalidOrderKind = errors.New("order kind must be either buy or sell")
	// ErrInvalidOrderStatus ...
	ErrInvalidOrderStatus = errors.New("unknown order status")
	// ErrInvalidTransition is thrown when the requested action is not legal
	// from the order's current status.
	ErrInvalidTransition = errors.New("action not allowed from current order status")
	// ErrUnauthorized is thrown when the actor's role or pubkey does not
	// match the party entitled to the action.
	ErrUnauthorized = errors.New("actor not entitled to perform action on order")
	// ErrAlreadyTerminal is thrown when attempting any transition on an
	// order that reached a terminal status.
	ErrAlreadyTerminal = errors.New("order reached a terminal status")
	// ErrOrderExpired is thrown when a pre-active order is acted upon past
	// its expiry time.
	ErrOrderExpired = errors.New("order expired")
	// ErrExpiryNotReached is thrown when trying to expire an order whose
	// expiry time has not elapsed yet.
	ErrExpiryNotReached = errors.New("order expiry time not reached")
	// ErrStaleSnapshot is thrown when an update is attempted against an
	// order snapshot that no longer matches the stored one.
	ErrStaleSnapshot = errors.New("order snapshot is stale")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrInvalidFiatAmount ...
	ErrInvalidFiatAmount = errors.New("fiat amount out of order range")
	// ErrMissingOrderFields ...
	ErrMissingOrderFields = errors.New("fiat code and payment method must not be empty")
	// ErrInvalidPubkey ...
	ErrInvalidPubkey = errors.New("invalid trade pubkey")
	// ErrMissingInvoice ...
	ErrMissingInvoice = errors.New("missing buyer invoice")
	// ErrInvalidPremium is thrown when a fixed sats amount and a premium
	// are both set on a new order.
	ErrInvalidPremium = errors.New("premium not allowed on fixed sats amount")
	// ErrInvalidRange is thrown when range order limits are inconsistent.
	ErrInvalidRange = errors.New("range limits must satisfy 0 < min < max")
	// ErrInvalidRating ...
	ErrInvalidRating = errors.New("rating out of range")
	// ErrInvalidTradeIndex is thrown when a trade index does not advance
	// the last one seen for the user.
	ErrInvalidTradeIndex = errors.New("trade index must be greater than the last one")
	// ErrAlreadyRated ...
	ErrAlreadyRated = errors.New("party already rated the counterparty")
	// ErrInvalidDisputeStatus ...
	ErrInvalidDisputeStatus = errors.New("action not allowed from current dispute status")
	// ErrDisputeNotAllowed is thrown when a dispute is opened for an order
	// whose status does not admit one.
	ErrDisputeNotAllowed = errors.New("order status does not admit a dispute")
	// ErrUserBanned ...
	ErrUserBanned = errors.New("user is banned")
	// ErrOrderNotFound ...
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists ...
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrDisputeNotFound ...
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrDisputeAlreadyExists ...
	ErrDisputeAlreadyExists = errors.New("dispute already exists")
	// ErrUserNotFound ...
	ErrUserNotFound = errors.New("user not found")
)
