package crypter

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeyLen is the length in bytes of a symmetric conversation key.
	KeyLen = chacha20poly1305.KeySize
	// nonceLen is the AEAD nonce length.
	nonceLen = chacha20poly1305.NonceSize
)

// BuildAAD returns the associated data binding a ciphertext to its envelope
// metadata: sender pubkey, recipient pubkey and sequence number. Fields are
// length prefixed so the encoding is injective.
func BuildAAD(sender, recipient string, seq uint64) []byte {
	sb, rb := []byte(sender), []byte(recipient)
	buf := make([]byte, 0, 2+len(sb)+2+len(rb)+8)
	var tmp [8]byte
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(sb)))
	buf = append(buf, tmp[:2]...)
	buf = append(buf, sb...)
	binary.BigEndian.PutUint16(tmp[:2], uint16(len(rb)))
	buf = append(buf, tmp[:2]...)
	buf = append(buf, rb...)
	binary.BigEndian.PutUint64(tmp[:], seq)
	buf = append(buf, tmp[:]...)
	return buf
}

// Encrypt seals the plaintext with ChaCha20-Poly1305 under the given
// conversation key, binding it to the associated data. The result is
// base64(nonce || ciphertext).
func Encrypt(key *Secret, plaintext, aad []byte) (string, error) {
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return "", ErrEncryption
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", ErrEncryption
	}
	ct := aead.Seal(nonce, nonce, plaintext, aad)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a base64(nonce || ciphertext) payload. Every failure mode
// maps to ErrDecryption: callers, and attackers, cannot tell a wrong key
// from a tampered ciphertext.
func Decrypt(key *Secret, cyphertext string, aad []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(cyphertext)
	if err != nil {
		return nil, ErrDecryption
	}
	if len(data) < nonceLen {
		return nil, ErrDecryption
	}
	aead, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return nil, ErrDecryption
	}
	nonce, ct := data[:nonceLen], data[nonceLen:]
	plaintext, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
