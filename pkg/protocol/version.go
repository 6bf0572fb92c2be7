package protocol

import "fmt"

// Protocol version constants
const (
	// CurrentVersion is the protocol version spoken by this node
	CurrentVersion uint8 = 3

	// UnsupportedVersion is the highest retired protocol version.
	// Handshakes at or below it are rejected.
	UnsupportedVersion uint8 = 2
)

// PackVersion combines a major and minor version into a single byte, with
// the major version in the high nibble and the minor version in the low
// nibble. Both values must fit in 4 bits.
func PackVersion(major, minor uint8) (uint8, error) {
	if major > 0x0F || minor > 0x0F {
		return 0, fmt.Errorf("%w: version %d.%d does not fit in one byte", ErrEncodingFailed, major, minor)
	}
	return major<<4 | minor, nil
}

// UnpackVersion splits a version byte into its major and minor nibbles
func UnpackVersion(b uint8) (major, minor uint8) {
	return b >> 4, b & 0x0F
}

// ValidVersion reports whether a major version is accepted by this node
func ValidVersion(major uint8) bool {
	return major > UnsupportedVersion && major <= CurrentVersion
}
