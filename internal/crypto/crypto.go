// Package crypto implements the envelope encryption and ServiceConfig
// box-wrapping: a pre-shared 32-byte symmetric key with a 24-byte random
// nonce for the envelope, and an optional NaCl-box wrap (user keypair +
// service keypair) for ServiceConfig bodies.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/wire"
)

// RingKeySize and NonceSize match secretbox's requirements.
const (
	RingKeySize = 32
	NonceSize   = 24
)

// RingKey is the pre-shared symmetric key used to encrypt every envelope on
// a ring. Any key passed to NewRing is used as-is, an all-zero one
// included; it is a zero-value Ring (Ring{}) that runs unencrypted.
type RingKey [RingKeySize]byte

// Ring seals and opens SWIM/gossip envelopes for one cluster's shared
// symmetric key. A nil *Ring (or one built with NewUnencryptedRing) leaves
// envelopes unencrypted: encrypted=false and the payload verbatim.
type Ring struct {
	key     RingKey
	enabled bool
}

// NewRing builds a Ring from a 32-byte pre-shared key.
func NewRing(key RingKey) *Ring {
	return &Ring{key: key, enabled: true}
}

// NewUnencryptedRing builds a Ring that never encrypts.
func NewUnencryptedRing() *Ring {
	return &Ring{}
}

// Seal wraps a protobuf payload in an Envelope, encrypting it under the
// ring key if one is configured.
func (r *Ring) Seal(payload []byte) wire.Envelope {
	if r == nil || !r.enabled {
		return wire.Envelope{Encrypted: false, Payload: payload}
	}
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		// crypto/rand failing is a fatal local condition, not a peer error.
		panic(fmt.Sprintf("crypto: rand.Read failed: %v", err))
	}
	sealed := secretbox.Seal(nil, payload, &nonce, (*[RingKeySize]byte)(&r.key))
	return wire.Envelope{Encrypted: true, Nonce: nonce[:], Payload: sealed}
}

// Open reverses Seal. An Envelope with Encrypted=false is returned as-is
// regardless of whether the local ring is configured — a node transitioning
// keys must still read plaintext stragglers.
func (r *Ring) Open(env wire.Envelope) ([]byte, error) {
	if !env.Encrypted {
		return env.Payload, nil
	}
	if r == nil || !r.enabled {
		return nil, domain.ErrCrypto
	}
	if len(env.Nonce) != NonceSize {
		return nil, domain.ErrCrypto
	}
	var nonce [NonceSize]byte
	copy(nonce[:], env.Nonce)
	opened, ok := secretbox.Open(nil, env.Payload, &nonce, (*[RingKeySize]byte)(&r.key))
	if !ok {
		return nil, domain.ErrCrypto
	}
	return opened, nil
}

// BoxKeyPair is a NaCl box keypair, used to wrap ServiceConfig bodies for a
// specific (user, service) pair — transparent to the rumor layer, opened on
// demand by consumers of the config.
type BoxKeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateBoxKeyPair creates a fresh NaCl box keypair.
func GenerateBoxKeyPair() (BoxKeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return BoxKeyPair{}, err
	}
	return BoxKeyPair{Public: *pub, Private: *priv}, nil
}

// EncryptConfig seals a ServiceConfig TOML body so that only the holder of
// servicePair's private key (given userPair's public key) can open it.
func EncryptConfig(body []byte, userPair, servicePair BoxKeyPair) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	sealed := box.Seal(nonce[:], body, &nonce, &servicePair.Public, &userPair.Private)
	return sealed, nil
}

// DecryptConfig reverses EncryptConfig.
func DecryptConfig(sealed []byte, userPair, servicePair BoxKeyPair) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, domain.ErrCrypto
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	opened, ok := box.Open(nil, sealed[24:], &nonce, &userPair.Public, &servicePair.Private)
	if !ok {
		return nil, domain.ErrCrypto
	}
	return opened, nil
}
