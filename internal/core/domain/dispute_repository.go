package domain

import (
	"context"

	"github.com/google/uuid"
)

// DisputeRepository is the abstraction for any kind of database intended
// to persist Disputes.
type DisputeRepository interface {
	// AddDispute persists a new dispute.
	AddDispute(ctx context.Context, dispute *Dispute) error
	// GetDispute returns the dispute with the given id.
	GetDispute(ctx context.Context, disputeID uuid.UUID) (*Dispute, error)
	// GetDisputeByOrderID returns the dispute opened for the given order,
	// if any.
	GetDisputeByOrderID(ctx context.Context, orderID uuid.UUID) (*Dispute, error)
	// GetDisputesByStatus returns all the disputes in the given status.
	GetDisputesByStatus(ctx context.Context, status DisputeStatus) ([]*Dispute, error)
	// UpdateDispute allows to commit multiple changes to the same dispute
	// in a transactional way.
	UpdateDispute(
		ctx context.Context,
		disputeID uuid.UUID,
		updateFn func(d *Dispute) (*Dispute, error),
	) error
}
