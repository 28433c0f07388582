package crypter

import "runtime"

// Secret is an owned wrapper around symmetric key material. It is meant to
// be handed to exactly one keyed operation and destroyed afterwards, so that
// derived keys never linger in memory or end up in logs.
type Secret struct {
	b []byte
}

// NewSecret takes ownership of the given bytes. The caller must not retain
// its own reference to the slice.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// Bytes exposes the raw key material for a single keyed operation.
func (s *Secret) Bytes() []byte {
	return s.b
}

// Zero wipes the key material. The secret is unusable afterwards.
func (s *Secret) Zero() {
	wipe(s.b)
	s.b = nil
}

// String implements fmt.Stringer so that a Secret cannot leak through
// logging by accident.
func (s *Secret) String() string {
	return "secret(redacted)"
}

// wipe zeroes the buffer. Best effort: the noinline pragma reduces the
// chance of the compiler eliding the writes.
//
//go:noinline
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
