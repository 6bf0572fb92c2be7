package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

// Field numbers for the handshake message payload
const (
	pkmFieldPreKeyID       protowire.Number = 1
	pkmFieldBaseKey        protowire.Number = 2
	pkmFieldIdentityKey    protowire.Number = 3
	pkmFieldMessage        protowire.Number = 4
	pkmFieldSignedPreKeyID protowire.Number = 6
)

// PreKeySignalMessage bundles everything a recipient needs to establish a
// session asynchronously: the sender's identity key, the ephemeral base key,
// references to the recipient's signed and (optionally) one-time pre-keys,
// and the first ratchet ciphertext.
//
// The value is immutable once constructed and consumed exactly once by the
// session-establishment layer.
type PreKeySignalMessage struct {
	Version        uint8
	PreKeyID       *uint32 // nil when no one-time pre-key was consumed
	SignedPreKeyID uint32
	BaseKey        crypto.PublicKey
	IdentityKey    crypto.PublicKey
	Message        *SignalMessage
}

// Serialize encodes the handshake message as version byte + tag/value payload
func (m *PreKeySignalMessage) Serialize() ([]byte, error) {
	version, err := PackVersion(m.Version, CurrentVersion)
	if err != nil {
		return nil, err
	}

	if m.Message == nil {
		return nil, fmt.Errorf("%w: message", ErrEncodingFailed)
	}

	inner, err := m.Message.Serialize()
	if err != nil {
		return nil, err
	}

	buf := []byte{version}
	if m.PreKeyID != nil {
		buf = protowire.AppendTag(buf, pkmFieldPreKeyID, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(*m.PreKeyID))
	}
	buf = protowire.AppendTag(buf, pkmFieldBaseKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.BaseKey.Encode())
	buf = protowire.AppendTag(buf, pkmFieldIdentityKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.IdentityKey.Encode())
	buf = protowire.AppendTag(buf, pkmFieldMessage, protowire.BytesType)
	buf = protowire.AppendBytes(buf, inner)
	buf = protowire.AppendTag(buf, pkmFieldSignedPreKeyID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(m.SignedPreKeyID))

	return buf, nil
}

// ParsePreKeySignalMessage decodes and validates a received handshake
// message. Every step either advances or terminates with a classified
// error; there is no partial-success state.
func ParsePreKeySignalMessage(buf []byte) (*PreKeySignalMessage, error) {
	if len(buf) < 2 {
		return nil, ErrMessageTooShort
	}

	// The minor nibble is only relevant to the supported-version check and
	// is discarded afterwards.
	major, _ := UnpackVersion(buf[0])
	if !ValidVersion(major) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, major)
	}

	var (
		preKeyID       uint64
		hasPreKeyID    bool
		baseKeyRaw     []byte
		hasBaseKey     bool
		identityKeyRaw []byte
		hasIdentityKey bool
		messageRaw     []byte
		hasMessage     bool
		signedPreKeyID uint64
		hasSignedID    bool
	)

	payload := buf[1:]
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, ErrMalformedEncoding
		}
		payload = payload[n:]

		switch {
		case num == pkmFieldPreKeyID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			preKeyID = v
			hasPreKeyID = true

		case num == pkmFieldBaseKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			baseKeyRaw = raw
			hasBaseKey = true

		case num == pkmFieldIdentityKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			identityKeyRaw = raw
			hasIdentityKey = true

		case num == pkmFieldMessage && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			messageRaw = raw
			hasMessage = true

		case num == pkmFieldSignedPreKeyID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			signedPreKeyID = v
			hasSignedID = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
		}
	}

	// Fixed check order for deterministic error reporting
	switch {
	case !hasBaseKey:
		return nil, fmt.Errorf("%w: baseKey", ErrMissingField)
	case !hasIdentityKey:
		return nil, fmt.Errorf("%w: identityKey", ErrMissingField)
	case !hasMessage:
		return nil, fmt.Errorf("%w: message", ErrMissingField)
	case !hasSignedID:
		return nil, fmt.Errorf("%w: signedPreKeyId", ErrMissingField)
	}

	baseKey, err := crypto.DecodePublicKey(baseKeyRaw)
	if err != nil {
		return nil, err
	}

	identityKey, err := crypto.DecodePublicKey(identityKeyRaw)
	if err != nil {
		return nil, err
	}

	inner, err := ParseSignalMessage(messageRaw)
	if err != nil {
		return nil, err
	}

	msg := &PreKeySignalMessage{
		Version:        major,
		SignedPreKeyID: uint32(signedPreKeyID),
		BaseKey:        baseKey,
		IdentityKey:    identityKey,
		Message:        inner,
	}
	if hasPreKeyID {
		id := uint32(preKeyID)
		msg.PreKeyID = &id
	}

	return msg, nil
}
