package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
)

// SignatureLen is the Ed25519 signature length
const SignatureLen = 64

// IdentityKeyPair is a long-term identity: an X25519 key pair for
// Diffie-Hellman and an Ed25519 key pair for signing pre-keys
type IdentityKeyPair struct {
	KeyPair
	SigningPublic  [32]byte
	SigningPrivate [64]byte
}

// GenerateIdentityKeyPair generates a new long-term identity
func GenerateIdentityKeyPair() (*IdentityKeyPair, error) {
	edPublic, edPrivate, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	dh, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	ik := &IdentityKeyPair{KeyPair: *dh}
	copy(ik.SigningPublic[:], edPublic)
	copy(ik.SigningPrivate[:], edPrivate)

	return ik, nil
}

// Sign signs data with the identity's Ed25519 key
func (ik *IdentityKeyPair) Sign(data []byte) [SignatureLen]byte {
	var sig [SignatureLen]byte
	copy(sig[:], ed25519.Sign(ik.SigningPrivate[:], data))
	return sig
}

// VerifySignature checks an Ed25519 signature made by an identity key
func VerifySignature(signingPublic [32]byte, data []byte, sig [SignatureLen]byte) bool {
	return ed25519.Verify(signingPublic[:], data, sig[:])
}
