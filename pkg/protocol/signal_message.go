package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
)

// MACLen is the length of the truncated MAC trailer on a ratchet message
const MACLen = 8

// Field numbers for the ratchet message payload
const (
	sigFieldRatchetKey      protowire.Number = 1
	sigFieldCounter         protowire.Number = 2
	sigFieldPreviousCounter protowire.Number = 3
	sigFieldCiphertext      protowire.Number = 4
)

// SignalMessage is one ciphertext of the symmetric-key ratchet. The codec
// carries the MAC trailer opaquely; computing and verifying it belongs to
// the session layer.
type SignalMessage struct {
	Version         uint8
	RatchetKey      crypto.PublicKey
	Counter         uint32
	PreviousCounter uint32
	Ciphertext      []byte
	MAC             [MACLen]byte
}

// Serialize encodes the message as version byte + tag/value payload + MAC
func (m *SignalMessage) Serialize() ([]byte, error) {
	version, err := PackVersion(m.Version, CurrentVersion)
	if err != nil {
		return nil, err
	}

	buf := []byte{version}
	buf = protowire.AppendTag(buf, sigFieldRatchetKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.RatchetKey.Encode())
	buf = protowire.AppendTag(buf, sigFieldCounter, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(m.Counter))
	buf = protowire.AppendTag(buf, sigFieldPreviousCounter, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(m.PreviousCounter))
	buf = protowire.AppendTag(buf, sigFieldCiphertext, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.Ciphertext)

	return append(buf, m.MAC[:]...), nil
}

// ParseSignalMessage decodes a ratchet message
func ParseSignalMessage(buf []byte) (*SignalMessage, error) {
	if len(buf) < 2+MACLen {
		return nil, ErrMessageTooShort
	}

	major, _ := UnpackVersion(buf[0])
	if !ValidVersion(major) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, major)
	}

	msg := &SignalMessage{Version: major}
	copy(msg.MAC[:], buf[len(buf)-MACLen:])
	payload := buf[1 : len(buf)-MACLen]

	var (
		ratchetKeyRaw []byte
		hasRatchetKey bool
		hasCounter    bool
		hasCiphertext bool
	)

	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, ErrMalformedEncoding
		}
		payload = payload[n:]

		switch {
		case num == sigFieldRatchetKey && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			ratchetKeyRaw = raw
			hasRatchetKey = true

		case num == sigFieldCounter && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			msg.Counter = uint32(v)
			hasCounter = true

		case num == sigFieldPreviousCounter && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			msg.PreviousCounter = uint32(v)

		case num == sigFieldCiphertext && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
			msg.Ciphertext = append([]byte(nil), raw...)
			hasCiphertext = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, payload)
			if n < 0 {
				return nil, ErrMalformedEncoding
			}
			payload = payload[n:]
		}
	}

	switch {
	case !hasRatchetKey:
		return nil, fmt.Errorf("%w: ratchetKey", ErrMissingField)
	case !hasCounter:
		return nil, fmt.Errorf("%w: counter", ErrMissingField)
	case !hasCiphertext:
		return nil, fmt.Errorf("%w: ciphertext", ErrMissingField)
	}

	ratchetKey, err := crypto.DecodePublicKey(ratchetKeyRaw)
	if err != nil {
		return nil, err
	}
	msg.RatchetKey = ratchetKey

	return msg, nil
}
