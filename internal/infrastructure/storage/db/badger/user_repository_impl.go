package dbbadger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
)

type userRepositoryImpl struct {
	db *DbManager
}

// NewUserRepositoryImpl returns a badger implementation of the domain
// UserRepository.
func NewUserRepositoryImpl(db *DbManager) domain.UserRepository {
	return userRepositoryImpl{
		db: db,
	}
}

func (r userRepositoryImpl) GetOrCreateUser(
	ctx context.Context, pubkey string,
) (*domain.User, error) {
	user, err := r.GetUser(ctx, pubkey)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err = domain.NewUser(pubkey, time.Now())
	if err != nil {
		return nil, err
	}
	if err := r.db.UserStore.Insert(user.Pubkey, user); err != nil {
		// a concurrent writer may have created it in the meantime
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return r.GetUser(ctx, pubkey)
		}
		return nil, err
	}
	return user, nil
}

func (r userRepositoryImpl) GetUser(
	ctx context.Context, pubkey string,
) (*domain.User, error) {
	var user domain.User
	if err := r.db.UserStore.Get(pubkey, &user); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r userRepositoryImpl) UpdateUser(
	ctx context.Context,
	pubkey string,
	updateFn func(u *domain.User) (*domain.User, error),
) error {
	update := func(tx *badger.Txn) error {
		var user domain.User
		if err := r.db.UserStore.TxGet(tx, pubkey, &user); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		updatedUser, err := updateFn(&user)
		if err != nil {
			return err
		}
		return r.db.UserStore.TxUpdate(tx, pubkey, *updatedUser)
	}

	err := r.db.UserStore.Badger().Update(update)
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrStaleSnapshot
	}
	return err
}
