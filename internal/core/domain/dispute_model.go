package domain

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// DisputeStatus represents the different statuses a dispute can assume.
type DisputeStatus string

const (
	DisputeInitiated       DisputeStatus = "initiated"
	DisputeInProgress      DisputeStatus = "in-progress"
	DisputeSettledToBuyer  DisputeStatus = "settled-to-buyer"
	DisputeSettledToSeller DisputeStatus = "settled-to-seller"
	DisputeCanceled        DisputeStatus = "canceled"
)

const (
	minDisputeToken = 100
	maxDisputeToken = 999
)

// ParseDisputeStatus converts a wire name to a dispute status.
func ParseDisputeStatus(s string) (DisputeStatus, error) {
	switch DisputeStatus(s) {
	case DisputeInitiated, DisputeInProgress, DisputeSettledToBuyer,
		DisputeSettledToSeller, DisputeCanceled:
		return DisputeStatus(s), nil
	default:
		return "", ErrInvalidDisputeStatus
	}
}

// String implements fmt.Stringer.
func (s DisputeStatus) String() string {
	return string(s)
}

// IsResolved returns whether the dispute reached a final status.
func (s DisputeStatus) IsResolved() bool {
	switch s {
	case DisputeSettledToBuyer, DisputeSettledToSeller, DisputeCanceled:
		return true
	default:
		return false
	}
}

// Dispute defines the Dispute entity data structure, a sub-entity of the
// order it contests. Each party receives a distinct security token to
// authenticate against the solver out of band.
type Dispute struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Status          DisputeStatus
	InitiatorPubkey string
	SolverPubkey    string
	BuyerToken      uint16
	SellerToken     uint16
	CreatedAt       int64
	TakenAt         int64
	ResolvedAt      int64
}

// NewDispute opens a dispute for an active trade. The initiator must be a
// party of the order and the order must be in a status that admits one.
func NewDispute(order *Order, initiatorPubkey string, now time.Time) (*Dispute, error) {
	switch order.Status {
	case StatusActive, StatusFiatSent, StatusSettledHoldInvoice:
	default:
		return nil, ErrDisputeNotAllowed
	}
	if !order.IsParty(initiatorPubkey) {
		return nil, ErrUnauthorized
	}

	buyerToken, sellerToken, err := disputeTokens()
	if err != nil {
		return nil, err
	}
	return &Dispute{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Status:          DisputeInitiated,
		InitiatorPubkey: initiatorPubkey,
		BuyerToken:      buyerToken,
		SellerToken:     sellerToken,
		CreatedAt:       now.Unix(),
	}, nil
}

// disputeTokens draws two distinct random tokens in [100, 999].
func disputeTokens() (uint16, uint16, error) {
	buyer, err := disputeToken()
	if err != nil {
		return 0, 0, err
	}
	seller := buyer
	for seller == buyer {
		if seller, err = disputeToken(); err != nil {
			return 0, 0, err
		}
	}
	return buyer, seller, nil
}

func disputeToken() (uint16, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	span := uint64(maxDisputeToken - minDisputeToken + 1)
	return uint16(minDisputeToken + binary.BigEndian.Uint64(buf[:])%span), nil
}
