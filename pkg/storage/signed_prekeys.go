package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

// SignedPreKey is the node's medium-term pre-key. Its public half is signed
// by the identity key and published alongside the one-time pre-keys.
type SignedPreKey struct {
	ID        uint32
	KeyPair   crypto.KeyPair
	Signature [crypto.SignatureLen]byte
	CreatedAt int64 // Unix timestamp (ms)
}

// EnsureSignedPreKey loads the signed pre-key with the given id, generating
// one signed by the identity key on first run
func (s *KeyStore) EnsureSignedPreKey(id uint32, identity *crypto.IdentityKeyPair) (*SignedPreKey, error) {
	spk, err := s.LoadSignedPreKey(id)
	if err == nil {
		return spk, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signed prekey pair: %v", err)
	}

	spk = &SignedPreKey{
		ID:        id,
		KeyPair:   *kp,
		Signature: identity.Sign(kp.PublicKey.Encode()),
		CreatedAt: time.Now().UnixMilli(),
	}

	if _, err := s.db.Exec(
		"INSERT INTO signed_prekeys (id, public, private, signature, created_at) VALUES (?, ?, ?, ?, ?)",
		spk.ID, spk.KeyPair.PublicKey.Encode(), spk.KeyPair.PrivateKey.Encode(), spk.Signature[:], spk.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to store signed prekey %d: %v", id, err)
	}

	return spk, nil
}

// LoadSignedPreKey loads the signed pre-key with the given id
func (s *KeyStore) LoadSignedPreKey(id uint32) (*SignedPreKey, error) {
	var (
		public    []byte
		private   []byte
		signature []byte
		createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT public, private, signature, created_at FROM signed_prekeys WHERE id = ?", id).
		Scan(&public, &private, &signature, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	publicKey, err := crypto.DecodePublicKey(public)
	if err != nil {
		return nil, fmt.Errorf("stored signed prekey public key: %w", err)
	}
	privateKey, err := crypto.DecodePrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("stored signed prekey private key: %w", err)
	}
	if len(signature) != crypto.SignatureLen {
		return nil, fmt.Errorf("stored signed prekey signature: %w", crypto.ErrInvalidKey)
	}

	spk := &SignedPreKey{
		ID:        id,
		KeyPair:   crypto.KeyPair{PublicKey: publicKey, PrivateKey: privateKey},
		CreatedAt: createdAt,
	}
	copy(spk.Signature[:], signature)

	return spk, nil
}
