package storage

import (
	"errors"
	"fmt"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

const (
	configIdentityDHPublic       = "identity_dh_public"
	configIdentityDHPrivate      = "identity_dh_private"
	configIdentitySigningPublic  = "identity_signing_public"
	configIdentitySigningPrivate = "identity_signing_private"
)

// EnsureIdentity loads the node's long-term identity, generating and
// persisting a new one on first run
func (s *KeyStore) EnsureIdentity() (*crypto.IdentityKeyPair, error) {
	ik, err := s.loadIdentity()
	if err == nil {
		return ik, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ik, err = crypto.GenerateIdentityKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity: %v", err)
	}

	if err := s.setConfig(configIdentityDHPublic, ik.PublicKey.Encode()); err != nil {
		return nil, err
	}
	if err := s.setConfig(configIdentityDHPrivate, ik.PrivateKey.Encode()); err != nil {
		return nil, err
	}
	if err := s.setConfig(configIdentitySigningPublic, ik.SigningPublic[:]); err != nil {
		return nil, err
	}
	if err := s.setConfig(configIdentitySigningPrivate, ik.SigningPrivate[:]); err != nil {
		return nil, err
	}

	return ik, nil
}

func (s *KeyStore) loadIdentity() (*crypto.IdentityKeyPair, error) {
	dhPublic, err := s.getConfig(configIdentityDHPublic)
	if err != nil {
		return nil, err
	}
	dhPrivate, err := s.getConfig(configIdentityDHPrivate)
	if err != nil {
		return nil, err
	}
	signingPublic, err := s.getConfig(configIdentitySigningPublic)
	if err != nil {
		return nil, err
	}
	signingPrivate, err := s.getConfig(configIdentitySigningPrivate)
	if err != nil {
		return nil, err
	}

	publicKey, err := crypto.DecodePublicKey(dhPublic)
	if err != nil {
		return nil, fmt.Errorf("stored identity public key: %w", err)
	}
	privateKey, err := crypto.DecodePrivateKey(dhPrivate)
	if err != nil {
		return nil, fmt.Errorf("stored identity private key: %w", err)
	}
	if len(signingPublic) != 32 || len(signingPrivate) != 64 {
		return nil, fmt.Errorf("stored identity signing keys: %w", crypto.ErrInvalidKey)
	}

	ik := &crypto.IdentityKeyPair{
		KeyPair: crypto.KeyPair{PublicKey: publicKey, PrivateKey: privateKey},
	}
	copy(ik.SigningPublic[:], signingPublic)
	copy(ik.SigningPrivate[:], signingPrivate)

	return ik, nil
}
