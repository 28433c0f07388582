package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Version is the protocol version this implementation speaks. Messages
// carrying any other version are rejected with ErrVersionMismatch.
const Version = 1

const (
	// MinRating is the lowest admissible user rating.
	MinRating = 1
	// MaxRating is the highest admissible user rating.
	MaxRating = 5
)

// SmallOrder is the wire representation of an order, used to create new
// orders and to echo the current order state back to the parties. Kind and
// status travel as their kebab-case wire names; the domain layer owns the
// parsing.
type SmallOrder struct {
	ID                *uuid.UUID `json:"id,omitempty"`
	Kind              string     `json:"kind,omitempty"`
	Status            string     `json:"status,omitempty"`
	Amount            int64      `json:"amount"`
	FiatCode          string     `json:"fiat_code"`
	MinAmount         *int64     `json:"min_amount,omitempty"`
	MaxAmount         *int64     `json:"max_amount,omitempty"`
	FiatAmount        int64      `json:"fiat_amount"`
	PaymentMethod     string     `json:"payment_method"`
	Premium           int64      `json:"premium"`
	BuyerTradePubkey  string     `json:"buyer_trade_pubkey,omitempty"`
	SellerTradePubkey string     `json:"seller_trade_pubkey,omitempty"`
	BuyerInvoice      string     `json:"buyer_invoice,omitempty"`
	CreatedAt         int64      `json:"created_at,omitempty"`
	ExpiresAt         int64      `json:"expires_at,omitempty"`
}

// UserInfo is the reputation snapshot attached to order payloads so a
// counterparty can judge who they are trading with.
type UserInfo struct {
	Rating        float64 `json:"rating"`
	Reviews       int64   `json:"reviews"`
	OperatingDays int64   `json:"operating_days"`
}

// Peer identifies one party of a trade, optionally with its reputation.
type Peer struct {
	Pubkey     string    `json:"pubkey"`
	Reputation *UserInfo `json:"reputation,omitempty"`
}

// PaymentRequest carries a Lightning invoice, optionally together with the
// order it refers to and the amount to pay.
type PaymentRequest struct {
	Order   *SmallOrder `json:"order,omitempty"`
	Invoice string      `json:"invoice"`
	Amount  *int64      `json:"amount,omitempty"`
}

// DisputeInfo references a dispute and the security token handed to each
// party so they can authenticate against the solver out of band.
type DisputeInfo struct {
	ID    uuid.UUID `json:"id"`
	Token *uint16   `json:"token,omitempty"`
}

// NextTrade is sent by the maker of a range order on release/fiat-sent to
// hand over the key material for the child order.
type NextTrade struct {
	Pubkey string `json:"pubkey"`
	Index  uint32 `json:"index"`
}

// Payload is the action-specific body of a message. Exactly one variant is
// set; Validate enforces the variant each action requires.
type Payload struct {
	Order          *SmallOrder     `json:"order,omitempty"`
	UserInfo       *UserInfo       `json:"user_info,omitempty"`
	PaymentRequest *PaymentRequest `json:"payment_request,omitempty"`
	TextMessage    string          `json:"text_message,omitempty"`
	Peer           *Peer           `json:"peer,omitempty"`
	RatingUser     *uint8          `json:"rating_user,omitempty"`
	Amount         *int64          `json:"amount,omitempty"`
	Dispute        *DisputeInfo    `json:"dispute,omitempty"`
	CantDo         *CantDoReason   `json:"cant_do,omitempty"`
	NextTrade      *NextTrade      `json:"next_trade,omitempty"`
}

// Message is one protocol action plus its payload and routing metadata.
// Field order is the canonical serialization order: two semantically equal
// messages always encode to identical bytes.
type Message struct {
	Version    int        `json:"version"`
	ID         *uuid.UUID `json:"id,omitempty"`
	RequestID  *uint64    `json:"request_id,omitempty"`
	TradeIndex *int64     `json:"trade_index,omitempty"`
	Action     Action     `json:"action"`
	Payload    *Payload   `json:"payload,omitempty"`
}

// NewMessage assembles a message at the current protocol version.
func NewMessage(id *uuid.UUID, requestID *uint64, tradeIndex *int64, action Action, payload *Payload) Message {
	return Message{
		Version:    Version,
		ID:         id,
		RequestID:  requestID,
		TradeIndex: tradeIndex,
		Action:     action,
		Payload:    payload,
	}
}

// NewCantDo builds the refusal message sent back when an action cannot be
// performed.
func NewCantDo(id *uuid.UUID, requestID *uint64, reason CantDoReason) Message {
	return NewMessage(id, requestID, nil, ActionCantDo, &Payload{CantDo: &reason})
}

// Encode returns the canonical byte encoding of the message. The encoding
// is deterministic and injective for distinct (action, payload) pairs; it
// is the exact byte string signatures are computed over.
func Encode(m Message) ([]byte, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses canonical bytes back into a message. Unknown fields at any
// nesting level, unknown action tags and version mismatches are rejected
// outright rather than best-effort parsed.
func Decode(data []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Message
	if err := dec.Decode(&m); err != nil {
		return nil, ErrMalformedPayload
	}
	if dec.More() {
		return nil, ErrMalformedPayload
	}
	if m.Version != Version {
		return nil, ErrVersionMismatch
	}
	if _, err := ParseAction(string(m.Action)); err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the payload matches the shape the action requires
// and that an order id is present where one is mandatory.
func Validate(m Message) error {
	if _, err := ParseAction(string(m.Action)); err != nil {
		return err
	}

	switch m.Action {
	case ActionNewOrder:
		if m.Payload == nil || m.Payload.Order == nil {
			return ErrMalformedPayload
		}
	case ActionPayInvoice, ActionAddInvoice:
		if m.ID == nil {
			return ErrMalformedPayload
		}
		if m.Payload == nil || m.Payload.PaymentRequest == nil ||
			m.Payload.PaymentRequest.Invoice == "" {
			return ErrMalformedPayload
		}
	case ActionRateUser:
		if m.Payload == nil || m.Payload.RatingUser == nil {
			return ErrMalformedPayload
		}
		if *m.Payload.RatingUser < MinRating || *m.Payload.RatingUser > MaxRating {
			return ErrMalformedPayload
		}
	case ActionCantDo:
		if m.Payload == nil || m.Payload.CantDo == nil || !m.Payload.CantDo.Valid() {
			return ErrMalformedPayload
		}
	default:
		// Every remaining action operates on an existing order.
		if m.ID == nil {
			return ErrMalformedPayload
		}
	}
	return nil
}
