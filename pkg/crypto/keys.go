package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"
)

const (
	// DjbType is the type tag prefixed to encoded Curve25519 public keys
	DjbType byte = 0x05

	// KeyLen is the raw Curve25519 key length
	KeyLen = 32
)

var ErrInvalidKey = errors.New("invalid key")

// PublicKey is a raw Curve25519 public key
type PublicKey [KeyLen]byte

// Encode returns the type-tagged wire form: DjbType followed by the raw key
func (k PublicKey) Encode() []byte {
	out := make([]byte, 1+KeyLen)
	out[0] = DjbType
	copy(out[1:], k[:])
	return out
}

// DecodePublicKey parses a type-tagged public key, rejecting a wrong length
// or an unknown type tag
func DecodePublicKey(buf []byte) (PublicKey, error) {
	var key PublicKey
	if len(buf) != 1+KeyLen {
		return key, ErrInvalidKey
	}
	if buf[0] != DjbType {
		return key, ErrInvalidKey
	}
	copy(key[:], buf[1:])
	return key, nil
}

// PrivateKey is a raw Curve25519 private key
type PrivateKey [KeyLen]byte

// Encode returns the raw private key bytes
func (k PrivateKey) Encode() []byte {
	out := make([]byte, KeyLen)
	copy(out, k[:])
	return out
}

// DecodePrivateKey parses raw private key bytes
func DecodePrivateKey(buf []byte) (PrivateKey, error) {
	var key PrivateKey
	if len(buf) != KeyLen {
		return key, ErrInvalidKey
	}
	copy(key[:], buf)
	return key, nil
}

// KeyPair holds a Curve25519 key pair
type KeyPair struct {
	PublicKey  PublicKey
	PrivateKey PrivateKey
}

// GenerateKeyPair generates a new Curve25519 key pair
func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.PrivateKey[:]); err != nil {
		return nil, err
	}
	curve25519.ScalarBaseMult((*[32]byte)(&kp.PublicKey), (*[32]byte)(&kp.PrivateKey))
	return kp, nil
}
