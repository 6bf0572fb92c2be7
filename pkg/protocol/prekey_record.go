package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

// Field numbers for the stored pre-key record payload
const (
	recFieldPublicKey  protowire.Number = 1
	recFieldPrivateKey protowire.Number = 2

	pubFieldID  protowire.Number = 1
	pubFieldKey protowire.Number = 2
)

// PreKeyPublic is the published projection of a pre-key record: the id and
// the public key, never any private material
type PreKeyPublic struct {
	ID        uint32
	PublicKey crypto.PublicKey
}

// Encode encodes the projection as a tag/value payload
func (p *PreKeyPublic) Encode() []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, pubFieldID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(p.ID))
	buf = protowire.AppendTag(buf, pubFieldKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, p.PublicKey.Encode())
	return buf
}

// DecodePreKeyPublic decodes a published pre-key projection
func DecodePreKeyPublic(buf []byte) (*PreKeyPublic, error) {
	var (
		pub    PreKeyPublic
		hasID  bool
		hasKey bool
	)

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, ErrMalformedEncoding
		}
		buf = buf[n:]

		switch {
		case num == pubFieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
			pub.ID = uint32(v)
			hasID = true

		case num == pubFieldKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
			key, err := crypto.DecodePublicKey(raw)
			if err != nil {
				return nil, err
			}
			pub.PublicKey = key
			hasKey = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
		}
	}

	if !hasID {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if !hasKey {
		return nil, fmt.Errorf("%w: key", ErrMissingField)
	}

	return &pub, nil
}

// SessionPreKey is a locally generated one-time pre-key record. The private
// half never leaves the local store; only the PreKeyPublic projection is
// published.
type SessionPreKey struct {
	ID         uint32
	PublicKey  crypto.PublicKey
	PrivateKey crypto.PrivateKey
}

// Public returns the published projection of the record
func (p *SessionPreKey) Public() *PreKeyPublic {
	return &PreKeyPublic{ID: p.ID, PublicKey: p.PublicKey}
}

// Serialize encodes the record for storage. There is no version byte at this
// layer: pre-key records are a storage format, not a wire handshake.
func (p *SessionPreKey) Serialize() []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, recFieldPublicKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, p.Public().Encode())
	buf = protowire.AppendTag(buf, recFieldPrivateKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, p.PrivateKey.Encode())
	return buf
}

// ParseSessionPreKey decodes a stored pre-key record
func ParseSessionPreKey(buf []byte) (*SessionPreKey, error) {
	var (
		rec     SessionPreKey
		hasPub  bool
		hasPriv bool
	)

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, ErrMalformedEncoding
		}
		buf = buf[n:]

		switch {
		case num == recFieldPublicKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
			pub, err := DecodePreKeyPublic(raw)
			if err != nil {
				return nil, err
			}
			rec.ID = pub.ID
			rec.PublicKey = pub.PublicKey
			hasPub = true

		case num == recFieldPrivateKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
			priv, err := crypto.DecodePrivateKey(raw)
			if err != nil {
				return nil, err
			}
			rec.PrivateKey = priv
			hasPriv = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			buf = buf[n:]
		}
	}

	if !hasPub {
		return nil, fmt.Errorf("%w: publicKey", ErrMissingField)
	}
	if !hasPriv {
		return nil, fmt.Errorf("%w: privateKey", ErrMissingField)
	}

	return &rec, nil
}
