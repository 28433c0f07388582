package crypter

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"golang.org/x/crypto/hkdf"
)

// conversationInfo is the HKDF domain separation label for conversation
// keys. Bump it together with the protocol version.
var conversationInfo = []byte("satdesk/conversation/v1")

// ConversationKey derives the symmetric key both counterparties of a
// conversation use to encrypt private messages to each other. It combines
// an ECDH shared secret with the conversation context (the order id) via
// HKDF-SHA256, so session keys are scoped to a single order and never
// reused across unrelated trades.
//
// The two parties' public keys are sorted before being mixed in, so both
// sides derive the same key regardless of who initiates.
func ConversationKey(local *KeyPair, remotePub string, context []byte) (*Secret, error) {
	remote, err := parsePubKey(remotePub)
	if err != nil {
		return nil, ErrKeyDerivation
	}

	shared := btcec.GenerateSharedSecret(local.priv, remote)
	defer wipe(shared)

	lo := schnorr.SerializePubKey(local.priv.PubKey())
	hi := schnorr.SerializePubKey(remote)
	if bytes.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}

	info := make([]byte, 0, len(conversationInfo)+len(lo)+len(hi))
	info = append(info, conversationInfo...)
	info = append(info, lo...)
	info = append(info, hi...)

	key := make([]byte, KeyLen)
	r := hkdf.New(sha256.New, shared, context, info)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, ErrKeyDerivation
	}
	return NewSecret(key), nil
}
