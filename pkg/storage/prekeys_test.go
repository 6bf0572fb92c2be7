package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ratchetwire/ratchetwire-node/pkg/protocol"
)

func newTestStore(t *testing.T) (*KeyStore, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "keys.db")
	store, err := NewKeyStore(dbPath)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

func TestGeneratePreKeysSequentialIDs(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.GeneratePreKeys(5)
	if err != nil {
		t.Fatalf("GeneratePreKeys() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("GeneratePreKeys() returned %d records, want 5", len(records))
	}

	for i, rec := range records {
		want := protocol.NextPreKeyID(uint32(i + 1))
		if rec.ID != want {
			t.Errorf("record %d: ID = %d, want %d", i, rec.ID, want)
		}
	}

	count, err := store.CountPreKeys()
	if err != nil {
		t.Fatalf("CountPreKeys() error = %v", err)
	}
	if count != 5 {
		t.Errorf("CountPreKeys() = %d, want 5", count)
	}
}

func TestPreKeyIndexSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keys.db")

	store, err := NewKeyStore(dbPath)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	if _, err := store.GeneratePreKeys(3); err != nil {
		t.Fatalf("GeneratePreKeys() error = %v", err)
	}
	store.Close()

	store, err = NewKeyStore(dbPath)
	if err != nil {
		t.Fatalf("NewKeyStore() (reopen) error = %v", err)
	}
	defer store.Close()

	records, err := store.GeneratePreKeys(2)
	if err != nil {
		t.Fatalf("GeneratePreKeys() (after reopen) error = %v", err)
	}
	if records[0].ID != 4 || records[1].ID != 5 {
		t.Errorf("ids after reopen = %d, %d, want 4, 5", records[0].ID, records[1].ID)
	}
}

func TestLoadContainsRemovePreKey(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.GeneratePreKeys(1)
	if err != nil {
		t.Fatalf("GeneratePreKeys() error = %v", err)
	}
	rec := records[0]

	loaded, err := store.LoadPreKey(rec.ID)
	if err != nil {
		t.Fatalf("LoadPreKey() error = %v", err)
	}
	if loaded.ID != rec.ID || loaded.PublicKey != rec.PublicKey || loaded.PrivateKey != rec.PrivateKey {
		t.Errorf("loaded record does not match generated record")
	}

	ok, err := store.ContainsPreKey(rec.ID)
	if err != nil {
		t.Fatalf("ContainsPreKey() error = %v", err)
	}
	if !ok {
		t.Errorf("ContainsPreKey(%d) = false, want true", rec.ID)
	}

	if err := store.RemovePreKey(rec.ID); err != nil {
		t.Fatalf("RemovePreKey() error = %v", err)
	}

	ok, err = store.ContainsPreKey(rec.ID)
	if err != nil {
		t.Fatalf("ContainsPreKey() error = %v", err)
	}
	if ok {
		t.Errorf("ContainsPreKey(%d) = true after removal", rec.ID)
	}

	if _, err := store.LoadPreKey(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPreKey() error = %v, want %v", err, ErrNotFound)
	}
	if err := store.RemovePreKey(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemovePreKey() (second) error = %v, want %v", err, ErrNotFound)
	}
}

func TestBundlePreKeys(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.GeneratePreKeys(10)
	if err != nil {
		t.Fatalf("GeneratePreKeys() error = %v", err)
	}

	bundle, err := store.BundlePreKeys(5)
	if err != nil {
		t.Fatalf("BundlePreKeys() error = %v", err)
	}
	if len(bundle) != 5 {
		t.Fatalf("BundlePreKeys() returned %d entries, want 5", len(bundle))
	}

	for i, pub := range bundle {
		if pub.ID != records[i].ID {
			t.Errorf("entry %d: ID = %d, want %d", i, pub.ID, records[i].ID)
		}
		if pub.PublicKey != records[i].PublicKey {
			t.Errorf("entry %d: public key mismatch", i)
		}
	}
}

func TestEnsureIdentityStable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keys.db")

	store, err := NewKeyStore(dbPath)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	first, err := store.EnsureIdentity()
	if err != nil {
		t.Fatalf("EnsureIdentity() error = %v", err)
	}
	store.Close()

	store, err = NewKeyStore(dbPath)
	if err != nil {
		t.Fatalf("NewKeyStore() (reopen) error = %v", err)
	}
	defer store.Close()

	second, err := store.EnsureIdentity()
	if err != nil {
		t.Fatalf("EnsureIdentity() (reopen) error = %v", err)
	}

	if first.PublicKey != second.PublicKey || first.PrivateKey != second.PrivateKey {
		t.Errorf("identity DH keys changed across reopen")
	}
	if first.SigningPublic != second.SigningPublic || first.SigningPrivate != second.SigningPrivate {
		t.Errorf("identity signing keys changed across reopen")
	}
}
