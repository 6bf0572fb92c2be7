package storage

import (
	"testing"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

func TestEnsureSignedPreKey(t *testing.T) {
	store, _ := newTestStore(t)

	identity, err := store.EnsureIdentity()
	if err != nil {
		t.Fatalf("EnsureIdentity() error = %v", err)
	}

	spk, err := store.EnsureSignedPreKey(1, identity)
	if err != nil {
		t.Fatalf("EnsureSignedPreKey() error = %v", err)
	}
	if spk.ID != 1 {
		t.Errorf("ID = %d, want 1", spk.ID)
	}

	if !crypto.VerifySignature(identity.SigningPublic, spk.KeyPair.PublicKey.Encode(), spk.Signature) {
		t.Errorf("signed prekey signature does not verify against identity")
	}

	// Second call must return the stored key, not a fresh one
	again, err := store.EnsureSignedPreKey(1, identity)
	if err != nil {
		t.Fatalf("EnsureSignedPreKey() (second) error = %v", err)
	}
	if again.KeyPair.PublicKey != spk.KeyPair.PublicKey {
		t.Errorf("signed prekey regenerated on second call")
	}
	if again.Signature != spk.Signature {
		t.Errorf("signed prekey signature changed on second call")
	}
}
