package crypter

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// SignMessage produces a BIP340 schnorr signature over the SHA-256 digest
// of the given canonical message bytes, hex encoded.
func SignMessage(key *KeyPair, message []byte) (string, error) {
	hash := sha256.Sum256(message)
	sig, err := schnorr.Sign(key.priv, hash[:])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifyMessage checks a hex encoded schnorr signature over the SHA-256
// digest of the message against the claimed x-only public key.
func VerifyMessage(pubkey string, message []byte, signature string) error {
	pk, err := parsePubKey(pubkey)
	if err != nil {
		return ErrInvalidSignature
	}
	raw, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	sig, err := schnorr.ParseSignature(raw)
	if err != nil {
		return ErrInvalidSignature
	}
	hash := sha256.Sum256(message)
	if !sig.Verify(hash[:], pk) {
		return ErrInvalidSignature
	}
	return nil
}
