package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
)

type disputeRepositoryImpl struct {
	db *DbManager
}

// NewDisputeRepositoryImpl returns a badger implementation of the domain
// DisputeRepository.
func NewDisputeRepositoryImpl(db *DbManager) domain.DisputeRepository {
	return disputeRepositoryImpl{
		db: db,
	}
}

func (r disputeRepositoryImpl) AddDispute(
	ctx context.Context, dispute *domain.Dispute,
) error {
	err := r.db.DisputeStore.Insert(dispute.ID, dispute)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrDisputeAlreadyExists
	}
	return err
}

func (r disputeRepositoryImpl) GetDispute(
	ctx context.Context, disputeID uuid.UUID,
) (*domain.Dispute, error) {
	var dispute domain.Dispute
	if err := r.db.DisputeStore.Get(disputeID, &dispute); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrDisputeNotFound
		}
		return nil, err
	}
	return &dispute, nil
}

func (r disputeRepositoryImpl) GetDisputeByOrderID(
	ctx context.Context, orderID uuid.UUID,
) (*domain.Dispute, error) {
	var list []domain.Dispute
	query := badgerhold.Where("OrderID").Eq(orderID)
	if err := r.db.DisputeStore.Find(&list, query); err != nil {
		return nil, err
	}
	if len(list) <= 0 {
		return nil, domain.ErrDisputeNotFound
	}
	return &list[0], nil
}

func (r disputeRepositoryImpl) GetDisputesByStatus(
	ctx context.Context, status domain.DisputeStatus,
) ([]*domain.Dispute, error) {
	var list []domain.Dispute
	query := badgerhold.Where("Status").Eq(status)
	if err := r.db.DisputeStore.Find(&list, query); err != nil {
		return nil, err
	}

	disputes := make([]*domain.Dispute, 0, len(list))
	for i := range list {
		disputes = append(disputes, &list[i])
	}
	return disputes, nil
}

func (r disputeRepositoryImpl) UpdateDispute(
	ctx context.Context,
	disputeID uuid.UUID,
	updateFn func(d *domain.Dispute) (*domain.Dispute, error),
) error {
	update := func(tx *badger.Txn) error {
		var dispute domain.Dispute
		if err := r.db.DisputeStore.TxGet(tx, disputeID, &dispute); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrDisputeNotFound
			}
			return err
		}
		updatedDispute, err := updateFn(&dispute)
		if err != nil {
			return err
		}
		return r.db.DisputeStore.TxUpdate(tx, disputeID, *updatedDispute)
	}

	err := r.db.DisputeStore.Badger().Update(update)
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrStaleSnapshot
	}
	return err
}
