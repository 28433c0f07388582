package protocol

import (
	"encoding/binary"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
)

// Envelope is the signed, optionally encrypted container one protocol
// message travels in on the relay network. Public actions are broadcast
// without a recipient and carry the canonical message in clear; private
// actions are sealed with the conversation key of the two parties.
//
// The signature covers the canonical encoding of (sender, recipient,
// nonce, payload) exactly as transported, so it can be verified before any
// decryption is attempted.
type Envelope struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	Nonce     uint64 `json:"nonce"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// Encrypted returns whether the envelope payload is sealed. Broadcast
// envelopes have no recipient and travel in clear.
func (e Envelope) Encrypted() bool {
	return e.Recipient != ""
}

// BuildEnvelopeOpts is the struct given to BuildEnvelope.
type BuildEnvelopeOpts struct {
	// SenderKey signs the envelope; its public key becomes the sender.
	SenderKey *crypter.KeyPair
	// Recipient is the counterparty's x-only pubkey, empty for broadcast.
	Recipient string
	// Nonce must increase monotonically per (sender, recipient) pair;
	// receivers drop envelopes whose nonce does not advance.
	Nonce uint64
	// Message is the action payload to transport.
	Message Message
	// ConversationKey seals the payload. Required when Recipient is set.
	ConversationKey *crypter.Secret
}

func (o BuildEnvelopeOpts) validate() error {
	if o.SenderKey == nil {
		return crypter.ErrInvalidPrivKey
	}
	if o.Recipient != "" {
		if err := crypter.ValidatePubKey(o.Recipient); err != nil {
			return err
		}
		if o.ConversationKey == nil {
			return ErrMissingConversationKey
		}
	}
	return Validate(o.Message)
}

// BuildEnvelope encodes the message canonically, seals it for the
// recipient when the action is a private one and signs the result.
func BuildEnvelope(opts BuildEnvelopeOpts) (*Envelope, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	raw, err := Encode(opts.Message)
	if err != nil {
		return nil, err
	}

	sender := opts.SenderKey.PubKey()
	payload := string(raw)
	if opts.Recipient != "" {
		aad := crypter.BuildAAD(sender, opts.Recipient, opts.Nonce)
		payload, err = crypter.Encrypt(opts.ConversationKey, raw, aad)
		if err != nil {
			return nil, err
		}
	}

	env := &Envelope{
		Sender:    sender,
		Recipient: opts.Recipient,
		Nonce:     opts.Nonce,
		Payload:   payload,
	}
	sig, err := crypter.SignMessage(opts.SenderKey, signingBytes(*env))
	if err != nil {
		return nil, err
	}
	env.Signature = sig
	return env, nil
}

// OpenEnvelope verifies and unpacks a received envelope. The signature is
// checked against the claimed sender before anything else; only then is the
// recipient matched, the payload unsealed and the message decoded. Any
// failure rejects the envelope without partial disclosure.
func OpenEnvelope(env Envelope, expectedRecipient string, key *crypter.Secret) (*Message, error) {
	if err := crypter.ValidatePubKey(env.Sender); err != nil {
		return nil, crypter.ErrInvalidSignature
	}
	if err := crypter.VerifyMessage(env.Sender, signingBytes(env), env.Signature); err != nil {
		return nil, err
	}

	raw := []byte(env.Payload)
	if env.Encrypted() {
		if env.Recipient != expectedRecipient {
			return nil, ErrRecipientMismatch
		}
		if key == nil {
			return nil, ErrMissingConversationKey
		}
		aad := crypter.BuildAAD(env.Sender, env.Recipient, env.Nonce)
		plaintext, err := crypter.Decrypt(key, env.Payload, aad)
		if err != nil {
			return nil, err
		}
		raw = plaintext
	}

	return Decode(raw)
}

// signingBytes is the canonical encoding the envelope signature covers:
// the AAD binding (sender, recipient, nonce) followed by the length
// prefixed payload as transported.
func signingBytes(env Envelope) []byte {
	aad := crypter.BuildAAD(env.Sender, env.Recipient, env.Nonce)
	buf := make([]byte, 0, len(aad)+4+len(env.Payload))
	buf = append(buf, aad...)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(env.Payload)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, env.Payload...)
	return buf
}
