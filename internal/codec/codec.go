// Package codec compresses and decompresses cached blobs.
package codec

import "errors"

// ErrCorrupt is returned when a blob cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt blob")

// Codec converts blobs to and from their stored form.
type Codec interface {
	// Encode returns the stored form of data.
	Encode(data []byte) ([]byte, error)
	// Decode reverses Encode.
	Decode(data []byte) ([]byte, error)
	// Name identifies the codec in configuration ("zstd", "gzip", "none").
	Name() string
}
