package crypter_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/satdesk/satdesk-daemon/pkg/crypter"
)

func TestKeyPair(t *testing.T) {
	key, err := crypter.NewKeyPair()
	require.NoError(t, err)
	require.Len(t, key.PubKey(), 2*crypter.PubKeyLen)
	require.NoError(t, crypter.ValidatePubKey(key.PubKey()))

	t.Run("from_hex", func(t *testing.T) {
		restored, err := crypter.KeyPairFromHex(
			"110e43647eae221ab1da33ddc17fd6ff423f2b2f49d809b9ffa40794a2ab996c",
		)
		require.NoError(t, err)
		require.NotEmpty(t, restored.PubKey())
	})

	t.Run("invalid_hex", func(t *testing.T) {
		_, err := crypter.KeyPairFromHex("not hex")
		require.ErrorIs(t, err, crypter.ErrInvalidPrivKey)
	})

	t.Run("no_secret_in_string", func(t *testing.T) {
		require.Contains(t, key.String(), key.PubKey())
	})
}

func TestValidatePubKey(t *testing.T) {
	tests := []struct {
		name   string
		pubkey string
	}{
		{name: "empty", pubkey: ""},
		{name: "not_hex", pubkey: strings.Repeat("zz", 32)},
		{name: "short", pubkey: "aabb"},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, crypter.ValidatePubKey(tt.pubkey), crypter.ErrInvalidPubKey)
		})
	}
}

func TestConversationKeySymmetry(t *testing.T) {
	alice, err := crypter.NewKeyPair()
	require.NoError(t, err)
	bob, err := crypter.NewKeyPair()
	require.NoError(t, err)
	orderID := uuid.New()

	aliceKey, err := crypter.ConversationKey(alice, bob.PubKey(), orderID[:])
	require.NoError(t, err)
	bobKey, err := crypter.ConversationKey(bob, alice.PubKey(), orderID[:])
	require.NoError(t, err)

	require.Equal(t, aliceKey.Bytes(), bobKey.Bytes())
	require.Len(t, aliceKey.Bytes(), crypter.KeyLen)

	t.Run("scoped_to_conversation", func(t *testing.T) {
		otherID := uuid.New()
		otherKey, err := crypter.ConversationKey(alice, bob.PubKey(), otherID[:])
		require.NoError(t, err)
		require.NotEqual(t, aliceKey.Bytes(), otherKey.Bytes())
	})

	t.Run("invalid_remote", func(t *testing.T) {
		_, err := crypter.ConversationKey(alice, "deadbeef", orderID[:])
		require.ErrorIs(t, err, crypter.ErrKeyDerivation)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	alice, err := crypter.NewKeyPair()
	require.NoError(t, err)
	bob, err := crypter.NewKeyPair()
	require.NoError(t, err)
	orderID := uuid.New()

	key, err := crypter.ConversationKey(alice, bob.PubKey(), orderID[:])
	require.NoError(t, err)

	aad := crypter.BuildAAD(alice.PubKey(), bob.PubKey(), 7)
	plaintext := []byte(`{"version":1,"action":"fiat-sent"}`)

	cyphertext, err := crypter.Encrypt(key, plaintext, aad)
	require.NoError(t, err)

	decrypted, err := crypter.Decrypt(key, cyphertext, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)

	t.Run("tampered_cyphertext", func(t *testing.T) {
		tampered := []byte(cyphertext)
		tampered[len(tampered)/2] ^= 'x'
		_, err := crypter.Decrypt(key, string(tampered), aad)
		require.ErrorIs(t, err, crypter.ErrDecryption)
	})

	t.Run("wrong_aad", func(t *testing.T) {
		wrongAAD := crypter.BuildAAD(alice.PubKey(), bob.PubKey(), 8)
		_, err := crypter.Decrypt(key, cyphertext, wrongAAD)
		require.ErrorIs(t, err, crypter.ErrDecryption)
	})

	t.Run("wrong_key", func(t *testing.T) {
		mallory, err := crypter.NewKeyPair()
		require.NoError(t, err)
		wrongKey, err := crypter.ConversationKey(mallory, bob.PubKey(), orderID[:])
		require.NoError(t, err)
		_, err = crypter.Decrypt(wrongKey, cyphertext, aad)
		require.ErrorIs(t, err, crypter.ErrDecryption)
	})
}

func TestSignVerify(t *testing.T) {
	key, err := crypter.NewKeyPair()
	require.NoError(t, err)
	message := []byte(`{"version":1,"action":"new-order"}`)

	sig, err := crypter.SignMessage(key, message)
	require.NoError(t, err)
	require.NoError(t, crypter.VerifyMessage(key.PubKey(), message, sig))

	t.Run("wrong_message", func(t *testing.T) {
		err := crypter.VerifyMessage(key.PubKey(), []byte("other"), sig)
		require.ErrorIs(t, err, crypter.ErrInvalidSignature)
	})

	t.Run("wrong_key", func(t *testing.T) {
		other, err := crypter.NewKeyPair()
		require.NoError(t, err)
		require.ErrorIs(
			t,
			crypter.VerifyMessage(other.PubKey(), message, sig),
			crypter.ErrInvalidSignature,
		)
	})

	t.Run("malformed_signature", func(t *testing.T) {
		err := crypter.VerifyMessage(key.PubKey(), message, "zz")
		require.ErrorIs(t, err, crypter.ErrInvalidSignature)
	})
}

func TestSecretZero(t *testing.T) {
	secret := crypter.NewSecret([]byte{1, 2, 3, 4})
	require.Equal(t, "secret(redacted)", secret.String())

	secret.Zero()
	require.Nil(t, secret.Bytes())
}
