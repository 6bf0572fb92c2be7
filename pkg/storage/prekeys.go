package storage

import (
	"database/sql"
	"fmt"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
	"github.com/ratchetwire/ratchetwire-node/pkg/protocol"
)

const configPreKeyIndex = "prekey_index"

// GeneratePreKeys creates count new one-time pre-key records, allocating ids
// from the store's monotonic index, and persists them. The index update and
// the record inserts share one transaction, so concurrent callers never
// observe the same index.
func (s *KeyStore) GeneratePreKeys(count int) ([]*protocol.SessionPreKey, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	index, err := preKeyIndexTx(tx)
	if err != nil {
		return nil, err
	}

	records := make([]*protocol.SessionPreKey, 0, count)
	for i := 0; i < count; i++ {
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("failed to generate prekey pair: %v", err)
		}

		rec := &protocol.SessionPreKey{
			ID:         protocol.NextPreKeyID(index),
			PublicKey:  kp.PublicKey,
			PrivateKey: kp.PrivateKey,
		}

		if _, err := tx.Exec("INSERT INTO prekeys (id, record) VALUES (?, ?)", rec.ID, rec.Serialize()); err != nil {
			return nil, fmt.Errorf("failed to store prekey %d: %v", rec.ID, err)
		}

		records = append(records, rec)
		index++
	}

	if _, err := tx.Exec(
		"INSERT INTO node_config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		configPreKeyIndex, encodeUint32(index)); err != nil {
		return nil, fmt.Errorf("failed to advance prekey index: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return records, nil
}

func preKeyIndexTx(tx *sql.Tx) (uint32, error) {
	var value []byte
	err := tx.QueryRow("SELECT value FROM node_config WHERE key = ?", configPreKeyIndex).Scan(&value)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeUint32(value)
}

// LoadPreKey loads the pre-key record with the given id
func (s *KeyStore) LoadPreKey(id uint32) (*protocol.SessionPreKey, error) {
	var record []byte
	err := s.db.QueryRow("SELECT record FROM prekeys WHERE id = ?", id).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return protocol.ParseSessionPreKey(record)
}

// ContainsPreKey reports whether a pre-key record with the given id exists
func (s *KeyStore) ContainsPreKey(id uint32) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM prekeys WHERE id = ?", id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemovePreKey deletes a consumed pre-key record
func (s *KeyStore) RemovePreKey(id uint32) error {
	res, err := s.db.Exec("DELETE FROM prekeys WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPreKeys returns the number of stored pre-key records
func (s *KeyStore) CountPreKeys() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM prekeys").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// BundlePreKeys returns up to limit published projections, ascending by id.
// Private halves never leave the store through this path.
func (s *KeyStore) BundlePreKeys(limit int) ([]*protocol.PreKeyPublic, error) {
	rows, err := s.db.Query("SELECT record FROM prekeys ORDER BY id ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundle []*protocol.PreKeyPublic
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		rec, err := protocol.ParseSessionPreKey(record)
		if err != nil {
			return nil, err
		}
		bundle = append(bundle, rec.Public())
	}

	return bundle, rows.Err()
}
