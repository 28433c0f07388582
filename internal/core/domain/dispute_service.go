package domain

import (
	"time"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

// Take assigns the dispute to a solver. Only an initiated dispute can be
// taken, and only once.
func (d *Dispute) Take(solverPubkey string, now time.Time) error {
	if d.Status != DisputeInitiated {
		return ErrInvalidDisputeStatus
	}
	if err := crypter.ValidatePubKey(solverPubkey); err != nil {
		return ErrInvalidPubkey
	}
	d.SolverPubkey = solverPubkey
	d.Status = DisputeInProgress
	d.TakenAt = now.Unix()
	return nil
}

// TokenFor returns the security token belonging to the given party of the
// parent order.
func (d *Dispute) TokenFor(order *Order, pubkey string) (uint16, error) {
	if order.ID != d.OrderID || !order.IsParty(pubkey) {
		return 0, ErrUnauthorized
	}
	if pubkey == order.BuyerPubkey() {
		return d.BuyerToken, nil
	}
	return d.SellerToken, nil
}

// ResolveDispute closes an in-progress dispute and atomically drives the
// parent order to the matching terminal outcome: settled-to-buyer settles
// the hold invoice in the buyer's favor, everything else cancels the order.
// Resolution is a broker prerogative. Both returned snapshots are fresh,
// the inputs are left untouched on error.
func ResolveDispute(
	order Order, dispute Dispute,
	outcome DisputeStatus, actor Actor, now time.Time,
) (*Order, *Dispute, error) {
	if actor.Role != RoleBroker {
		return nil, nil, ErrUnauthorized
	}
	if dispute.Status != DisputeInProgress {
		return nil, nil, ErrInvalidDisputeStatus
	}
	if !outcome.IsResolved() {
		return nil, nil, ErrInvalidDisputeStatus
	}
	if order.ID != dispute.OrderID {
		return nil, nil, ErrUnauthorized
	}

	action := protocol.ActionAdminCancel
	if outcome == DisputeSettledToBuyer {
		action = protocol.ActionAdminSettle
	}
	nextOrder, err := Apply(order, Transition{
		Action: action,
		Actor:  actor,
		Now:    now,
	})
	if err != nil {
		return nil, nil, err
	}

	nextDispute := dispute
	nextDispute.Status = outcome
	nextDispute.ResolvedAt = now.Unix()
	return nextOrder, &nextDispute, nil
}
