package application

import (
	"errors"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

// reasonFor maps a domain error to the cant-do reason sent back to the
// user. Unknown errors collapse to a generic refusal so internals never
// leak on the wire.
func reasonFor(err error) protocol.CantDoReason {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrDisputeNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return protocol.ReasonNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return protocol.ReasonIsNotYourOrder
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrOrderExpired),
		errors.Is(err, domain.ErrStaleSnapshot):
		return protocol.ReasonNotAllowedByStatus
	case errors.Is(err, domain.ErrInvalidOrderKind):
		return protocol.ReasonInvalidOrderKind
	case errors.Is(err, domain.ErrInvalidOrderStatus):
		return protocol.ReasonInvalidOrderStatus
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPremium),
		errors.Is(err, domain.ErrInvalidRange):
		return protocol.ReasonInvalidAmount
	case errors.Is(err, domain.ErrInvalidFiatAmount):
		return protocol.ReasonOutOfRangeFiatAmount
	case errors.Is(err, domain.ErrInvalidPubkey):
		return protocol.ReasonInvalidPubkey
	case errors.Is(err, domain.ErrMissingInvoice):
		return protocol.ReasonInvalidInvoice
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrAlreadyRated):
		return protocol.ReasonInvalidRating
	case errors.Is(err, domain.ErrInvalidTradeIndex):
		return protocol.ReasonInvalidTradeIndex
	case errors.Is(err, domain.ErrDisputeNotAllowed),
		errors.Is(err, domain.ErrInvalidDisputeStatus):
		return protocol.ReasonInvalidDisputeStatus
	case errors.Is(err, domain.ErrUserBanned):
		return protocol.ReasonCantCreateUser
	case errors.Is(err, domain.ErrMissingOrderFields):
		return protocol.ReasonInvalidParameters
	default:
		return protocol.ReasonInvalidParameters
	}
}
