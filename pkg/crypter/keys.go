package crypter

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// PubKeyLen is the length in bytes of an x-only serialized public key.
const PubKeyLen = 32

// KeyPair wraps a long-lived secp256k1 key pair. The private scalar never
// leaves the wrapper; the only operations are signing, conversation-key
// derivation and destruction.
type KeyPair struct {
	priv *btcec.PrivateKey
}

// NewKeyPair generates a fresh random key pair.
func NewKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv}, nil
}

// KeyPairFromHex restores a key pair from a 32-byte hex encoded secret.
func KeyPairFromHex(secret string) (*KeyPair, error) {
	buf, err := hex.DecodeString(secret)
	if err != nil || len(buf) != 32 {
		return nil, ErrInvalidPrivKey
	}
	priv, _ := btcec.PrivKeyFromBytes(buf)
	wipe(buf)
	return &KeyPair{priv: priv}, nil
}

// PubKey returns the x-only hex serialization of the public key, the form
// every pubkey takes on the wire.
func (k *KeyPair) PubKey() string {
	return hex.EncodeToString(schnorr.SerializePubKey(k.priv.PubKey()))
}

// Zero destroys the private scalar. The key pair is unusable afterwards.
func (k *KeyPair) Zero() {
	k.priv.Zero()
}

// String implements fmt.Stringer so a KeyPair prints only its public half.
func (k *KeyPair) String() string {
	return "keypair(" + k.PubKey() + ")"
}

// parsePubKey decodes an x-only hex public key.
func parsePubKey(pubkey string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeString(pubkey)
	if err != nil || len(buf) != PubKeyLen {
		return nil, ErrInvalidPubKey
	}
	pk, err := schnorr.ParsePubKey(buf)
	if err != nil {
		return nil, ErrInvalidPubKey
	}
	return pk, nil
}

// ValidatePubKey returns whether the given string is a well formed x-only
// public key.
func ValidatePubKey(pubkey string) error {
	_, err := parsePubKey(pubkey)
	return err
}
