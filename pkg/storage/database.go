package storage

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

// KeyStore persists the node's key material: one-time pre-key records, the
// signed pre-key, the long-term identity and the monotonically increasing
// index that drives pre-key id allocation.
type KeyStore struct {
	db *sql.DB
}

// NewKeyStore opens (or creates) the key database at dbPath
func NewKeyStore(dbPath string) (*KeyStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %v", err)
	}

	s := &KeyStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *KeyStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prekeys (
		id INTEGER PRIMARY KEY,
		record BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS signed_prekeys (
		id INTEGER PRIMARY KEY,
		public BLOB NOT NULL,
		private BLOB NOT NULL,
		signature BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS node_config (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}

	return nil
}

// Close closes the underlying database
func (s *KeyStore) Close() error {
	return s.db.Close()
}

func (s *KeyStore) getConfig(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM node_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *KeyStore) setConfig(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO node_config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func encodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func decodeUint32(buf []byte) (uint32, error) {
	if len(buf) != 4 {
		return 0, fmt.Errorf("invalid counter value length %d", len(buf))
	}
	return binary.BigEndian.Uint32(buf), nil
}
