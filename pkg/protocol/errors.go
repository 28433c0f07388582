package protocol

import "errors"

var (
	// ErrUnknownAction is returned when decoding a message whose action tag
	// is not part of the closed action set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrMalformedPayload is returned when a payload does not match the
	// shape its action requires, or cannot be parsed at all.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrVersionMismatch is returned when a message carries a protocol
	// version this implementation does not speak.
	ErrVersionMismatch = errors.New("protocol version mismatch")
	// ErrRecipientMismatch is returned when opening an envelope addressed
	// to somebody else.
	ErrRecipientMismatch = errors.New("envelope recipient mismatch")
	// ErrMissingConversationKey is returned when building or opening an
	// encrypted envelope without the conversation key.
	ErrMissingConversationKey = errors.New("missing conversation key")
)
