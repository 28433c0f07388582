package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

const secondsPerDay = 24 * 60 * 60

// UpdateRating folds one review into the running average. The average is
// computed incrementally with exact decimal arithmetic so repeated updates
// never drift.
func (u *User) UpdateRating(rating uint8) error {
	if u.IsBanned {
		return ErrUserBanned
	}
	if rating < protocol.MinRating || rating > protocol.MaxRating {
		return ErrInvalidRating
	}

	reviews := u.TotalReviews + 1
	current := decimal.NewFromFloat(u.TotalRating)
	next := current.Add(
		decimal.NewFromInt(int64(rating)).
			Sub(current).
			Div(decimal.NewFromInt(reviews)),
	)

	u.TotalReviews = reviews
	u.TotalRating, _ = next.Float64()
	u.LastRating = rating
	return nil
}

// UpdateTradeIndex advances the per-user trade key counter. Indexes must
// strictly increase, a stale or replayed index is rejected.
func (u *User) UpdateTradeIndex(index int64) error {
	if u.IsBanned {
		return ErrUserBanned
	}
	if index <= u.LastTradeIndex {
		return ErrInvalidTradeIndex
	}
	u.LastTradeIndex = index
	return nil
}

// Info returns the reputation snapshot attached to order payloads.
func (u *User) Info(now time.Time) protocol.UserInfo {
	days := (now.Unix() - u.CreatedAt) / secondsPerDay
	if days < 0 {
		days = 0
	}
	return protocol.UserInfo{
		Rating:        u.TotalRating,
		Reviews:       u.TotalReviews,
		OperatingDays: days,
	}
}
