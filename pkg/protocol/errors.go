package protocol

import "errors"

var (
	ErrMessageTooShort    = errors.New("message too short")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrMalformedEncoding  = errors.New("malformed message encoding")
	ErrMissingField       = errors.New("missing required field")
	ErrEncodingFailed     = errors.New("message encoding failed")
)
