package protocol

import (
	"errors"
	"testing"
)

func TestPackUnpackVersion(t *testing.T) {
	for major := uint8(0); major <= 0x0F; major++ {
		for minor := uint8(0); minor <= 0x0F; minor++ {
			packed, err := PackVersion(major, minor)
			if err != nil {
				t.Fatalf("PackVersion(%d, %d) error = %v", major, minor, err)
			}

			gotMajor, gotMinor := UnpackVersion(packed)
			if gotMajor != major || gotMinor != minor {
				t.Errorf("UnpackVersion(PackVersion(%d, %d)) = (%d, %d)", major, minor, gotMajor, gotMinor)
			}
		}
	}
}

func TestPackVersionByteLayout(t *testing.T) {
	packed, err := PackVersion(3, 3)
	if err != nil {
		t.Fatalf("PackVersion(3, 3) error = %v", err)
	}
	if packed != 0x33 {
		t.Errorf("PackVersion(3, 3) = %#x, want 0x33", packed)
	}
}

func TestPackVersionRange(t *testing.T) {
	tests := []struct {
		name  string
		major uint8
		minor uint8
	}{
		{name: "major too large", major: 16, minor: 0},
		{name: "minor too large", major: 0, minor: 16},
		{name: "both too large", major: 255, minor: 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PackVersion(tt.major, tt.minor)
			if !errors.Is(err, ErrEncodingFailed) {
				t.Errorf("PackVersion(%d, %d) error = %v, want %v", tt.major, tt.minor, err, ErrEncodingFailed)
			}
		})
	}
}

func TestValidVersion(t *testing.T) {
	tests := []struct {
		major uint8
		valid bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{4, false},
		{15, false},
	}

	for _, tt := range tests {
		if got := ValidVersion(tt.major); got != tt.valid {
			t.Errorf("ValidVersion(%d) = %v, want %v", tt.major, got, tt.valid)
		}
	}
}
