package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func testSignalMessage() *SignalMessage {
	return &SignalMessage{
		Version:         CurrentVersion,
		RatchetKey:      fixedPublicKey(0xC1),
		Counter:         5,
		PreviousCounter: 2,
		Ciphertext:      []byte("first ratchet ciphertext"),
		MAC:             [MACLen]byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
}

func TestSignalMessageRoundTrip(t *testing.T) {
	msg := testSignalMessage()

	encoded, err := msg.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	decoded, err := ParseSignalMessage(encoded)
	if err != nil {
		t.Fatalf("ParseSignalMessage() error = %v", err)
	}

	if decoded.Version != msg.Version {
		t.Errorf("Version = %d, want %d", decoded.Version, msg.Version)
	}
	if decoded.RatchetKey != msg.RatchetKey {
		t.Errorf("RatchetKey mismatch")
	}
	if decoded.Counter != msg.Counter {
		t.Errorf("Counter = %d, want %d", decoded.Counter, msg.Counter)
	}
	if decoded.PreviousCounter != msg.PreviousCounter {
		t.Errorf("PreviousCounter = %d, want %d", decoded.PreviousCounter, msg.PreviousCounter)
	}
	if !bytes.Equal(decoded.Ciphertext, msg.Ciphertext) {
		t.Errorf("Ciphertext mismatch")
	}
	if decoded.MAC != msg.MAC {
		t.Errorf("MAC mismatch")
	}
}

func TestParseSignalMessageTooShort(t *testing.T) {
	inputs := [][]byte{nil, {}, {0x33}, make([]byte, MACLen+1)}

	for _, input := range inputs {
		if _, err := ParseSignalMessage(input); !errors.Is(err, ErrMessageTooShort) {
			t.Errorf("ParseSignalMessage(%d bytes) error = %v, want %v", len(input), err, ErrMessageTooShort)
		}
	}
}

func TestParseSignalMessageUnsupportedVersion(t *testing.T) {
	msg := testSignalMessage()
	encoded, err := msg.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	for _, major := range []uint8{0, 1, 2, 4, 15} {
		encoded[0] = major<<4 | uint8(CurrentVersion)
		if _, err := ParseSignalMessage(encoded); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("major %d: error = %v, want %v", major, err, ErrUnsupportedVersion)
		}
	}
}

func TestParseSignalMessageMissingField(t *testing.T) {
	key := fixedPublicKey(0xC1)

	var ratchetKeyField []byte
	ratchetKeyField = protowire.AppendTag(ratchetKeyField, sigFieldRatchetKey, protowire.BytesType)
	ratchetKeyField = protowire.AppendBytes(ratchetKeyField, key.Encode())

	var counterField []byte
	counterField = protowire.AppendTag(counterField, sigFieldCounter, protowire.VarintType)
	counterField = protowire.AppendVarint(counterField, 5)

	var ciphertextField []byte
	ciphertextField = protowire.AppendTag(ciphertextField, sigFieldCiphertext, protowire.BytesType)
	ciphertextField = protowire.AppendBytes(ciphertextField, []byte("ct"))

	tests := []struct {
		name    string
		payload []byte
		field   string
	}{
		{name: "missing ratchetKey", payload: append(append([]byte{}, counterField...), ciphertextField...), field: "ratchetKey"},
		{name: "missing counter", payload: append(append([]byte{}, ratchetKeyField...), ciphertextField...), field: "counter"},
		{name: "missing ciphertext", payload: append(append([]byte{}, ratchetKeyField...), counterField...), field: "ciphertext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte{0x33}, tt.payload...)
			buf = append(buf, make([]byte, MACLen)...)

			_, err := ParseSignalMessage(buf)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("ParseSignalMessage() error = %v, want %v", err, ErrMissingField)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err.Error(), tt.field)
			}
		})
	}
}
