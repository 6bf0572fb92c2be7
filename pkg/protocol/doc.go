// Package protocol implements the RatchetWire handshake wire formats.
//
// The package defines the versioned binary framing for the two artifacts a
// node exchanges when a session is established asynchronously:
//
//   - PreKeySignalMessage: the handshake message a sender transmits to open
//     a session. It bundles the sender's identity key, an ephemeral base
//     key, references to the recipient's signed and one-time pre-keys, and
//     the first ratchet ciphertext.
//   - SessionPreKey: a locally generated one-time pre-key record persisted
//     by the key store. Only its PreKeyPublic projection is ever published.
//
// # Wire Format
//
// A handshake message starts with a single version byte holding the major
// protocol version in the high nibble and the minor version in the low
// nibble. The rest of the message is a tag/value payload (protobuf wire
// encoding) with the following fields:
//
//	preKeyId        (1, optional varint)
//	baseKey         (2, required bytes)
//	identityKey     (3, required bytes)
//	message         (4, required bytes)  -- ratchet message
//	signedPreKeyId  (6, required varint)
//
// Public keys are 33 bytes on the wire: a type tag (0x05) followed by the
// raw Curve25519 key. Pre-key records use the same tag/value encoding but
// carry no version byte, since they are a storage format rather than a wire
// handshake.
//
// # Pre-Key Identifiers
//
// Pre-key ids live in a 24-bit space with zero reserved. NextPreKeyID maps
// a strictly increasing counter onto that space, cycling without ever
// producing zero. The counter is owned by the key store.
//
// # Error Handling
//
// Decoding is deterministic and pure. Every parse failure is classified by
// one of the package's sentinel errors (ErrMessageTooShort,
// ErrUnsupportedVersion, ErrMalformedEncoding, ErrMissingField) or by the
// key collaborator's crypto.ErrInvalidKey; all are terminal and
// non-retryable. A malformed handshake is simply refused.
package protocol
