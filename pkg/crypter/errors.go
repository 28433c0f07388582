package crypter

import "errors"

var (
	// ErrInvalidPubKey is returned when parsing a public key that is not a
	// valid 32-byte x-only secp256k1 point.
	ErrInvalidPubKey = errors.New("invalid public key")
	// ErrInvalidPrivKey ...
	ErrInvalidPrivKey = errors.New("invalid private key")
	// ErrKeyDerivation is returned when the conversation key cannot be
	// derived from the given key material.
	ErrKeyDerivation = errors.New("key derivation failure")
	// ErrDecryption is the single failure returned for any decryption
	// problem. Wrong key and tampered ciphertext are indistinguishable on
	// purpose.
	ErrDecryption = errors.New("decryption failure")
	// ErrEncryption ...
	ErrEncryption = errors.New("encryption failure")
	// ErrInvalidSignature is returned when a signature does not verify
	// against the claimed public key.
	ErrInvalidSignature = errors.New("invalid signature")
)
