// Package noopcodec stores blobs uncompressed.
package noopcodec

import "github.com/discochess/insight/internal/codec"

var _ codec.Codec = Codec{}

// Codec passes data through unchanged.
type Codec struct{}

// New returns a pass-through codec.
func New() Codec { return Codec{} }

// Encode returns data.
func (Codec) Encode(data []byte) ([]byte, error) { return data, nil }

// Decode returns data.
func (Codec) Decode(data []byte) ([]byte, error) { return data, nil }

// Name returns "none".
func (Codec) Name() string { return "none" }
