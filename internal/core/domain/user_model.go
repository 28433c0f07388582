package domain

import (
	"time"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
)

// User defines the User entity data structure, keyed by the identity
// pubkey. The broker stores no personal data: the record is the pubkey
// plus reputation counters and the replay guard for trade keys.
type User struct {
	Pubkey         string
	IsAdmin        bool
	IsSolver       bool
	IsBanned       bool
	LastTradeIndex int64
	TotalReviews   int64
	TotalRating    float64
	LastRating     uint8
	CreatedAt      int64
}

// NewUser returns a fresh user record for the given identity pubkey.
func NewUser(pubkey string, now time.Time) (*User, error) {
	if err := crypter.ValidatePubKey(pubkey); err != nil {
		return nil, ErrInvalidPubkey
	}
	return &User{
		Pubkey:    pubkey,
		CreatedAt: now.Unix(),
	}, nil
}
