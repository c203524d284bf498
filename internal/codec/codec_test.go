package codec_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/discochess/insight/internal/codec"
	"github.com/discochess/insight/internal/codec/gzipcodec"
	"github.com/discochess/insight/internal/codec/noopcodec"
	"github.com/discochess/insight/internal/codec/zstdcodec"
)

func codecs(t *testing.T) []codec.Codec {
	t.Helper()
	z, err := zstdcodec.New()
	if err != nil {
		t.Fatalf("zstdcodec.New() error = %v", err)
	}
	return []codec.Codec{z, gzipcodec.New(), noopcodec.New()}
}

func TestCodecs_RoundTrip(t *testing.T) {
	blob := []byte(`{"games":[` + strings.Repeat(`{"url":"https://www.chess.com/game/live/1","scores":[12,-30,45]},`, 50) + `{}],"sfDepth":16}`)

	for _, c := range codecs(t) {
		t.Run(c.Name(), func(t *testing.T) {
			enc, err := c.Encode(blob)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if c.Name() != "none" && len(enc) >= len(blob) {
				t.Errorf("Encode() len = %d, want < %d", len(enc), len(blob))
			}
			dec, err := c.Decode(enc)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(dec, blob) {
				t.Error("Decode(Encode(x)) != x")
			}
		})
	}
}

func TestCodecs_Corrupt(t *testing.T) {
	for _, c := range codecs(t) {
		if c.Name() == "none" {
			continue
		}
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Decode([]byte("definitely not compressed"))
			if !errors.Is(err, codec.ErrCorrupt) {
				t.Errorf("Decode() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
