package micro

import (
	"context"
	"fmt"
	"testing"

	"github.com/discochess/insight/internal/classify"
	"github.com/discochess/insight/internal/codec/zstdcodec"
	"github.com/discochess/insight/internal/engine"
	"github.com/discochess/insight/internal/engine/fakeengine"
	"github.com/discochess/insight/internal/evalcache"
	"github.com/discochess/insight/internal/replay"
	"github.com/discochess/insight/internal/schedule"
)

var ruyLopez = []string{
	"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Ba4", "Nf6", "O-O", "Be7",
	"Re1", "b5", "Bb3", "d6", "c3", "O-O", "h3", "Nb8", "d4", "Nbd7",
	"c4", "c6", "cxb5", "axb5", "Nc3", "Bb7", "Bg5", "b4", "Nb1", "h6",
}

// BenchmarkReplay measures replaying a 30 half-move game.
func BenchmarkReplay(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := replay.Replay(ruyLopez); err != nil {
			b.Fatalf("replay error: %v", err)
		}
	}
}

// BenchmarkClassify measures labeling a 200 half-move score series.
func BenchmarkClassify(b *testing.B) {
	raw := make([]int, 200)
	for i := range raw {
		raw[i] = (i * 137) % 900
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scores := classify.FixedPerspective(raw)
		_ = classify.Events(scores, i%2 == 0, classify.Options{})
	}
}

// BenchmarkEvalCache measures hits on a warm evaluation cache.
func BenchmarkEvalCache(b *testing.B) {
	c, err := evalcache.New(1000, nil)
	if err != nil {
		b.Fatalf("creating cache: %v", err)
	}
	fens, err := replay.FENs(ruyLopez)
	if err != nil {
		b.Fatalf("replay error: %v", err)
	}
	for _, f := range fens {
		c.Add(f, 12, engine.Evaluation{Score: 20, Depth: 12})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := c.Get(fens[i%len(fens)], 12); !ok {
			b.Fatal("cache miss")
		}
	}
}

// BenchmarkZstd measures compressing a bucket-sized blob.
func BenchmarkZstd(b *testing.B) {
	c, err := zstdcodec.New()
	if err != nil {
		b.Fatalf("creating codec: %v", err)
	}
	data := []byte(fmt.Sprintf("%v", ruyLopez))
	for len(data) < 64*1024 {
		data = append(data, data...)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc, err := c.Encode(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := c.Decode(enc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPool measures a batch through the scheduler, with and without
// the shared evaluation cache.
func BenchmarkPool(b *testing.B) {
	jobs := make([]schedule.Job, 8)
	for i := range jobs {
		jobs[i] = schedule.Job{Key: fmt.Sprint(i), Moves: ruyLopez}
	}

	for _, workers := range []int{1, 4} {
		for _, cached := range []bool{false, true} {
			b.Run(fmt.Sprintf("workers=%d/cache=%v", workers, cached), func(b *testing.B) {
				var opts []schedule.Option
				if cached {
					c, err := evalcache.New(10_000, nil)
					if err != nil {
						b.Fatal(err)
					}
					opts = append(opts, schedule.WithEvalCache(c))
				}
				pool := schedule.NewPool(fakeengine.Factory(), opts...)
				defer pool.Close()

				ctx := context.Background()
				if err := pool.Grow(ctx, workers); err != nil {
					b.Fatal(err)
				}
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					results, err := pool.Run(ctx, jobs, 12, nil)
					if err != nil {
						b.Fatal(err)
					}
					for _, r := range results {
						if r.Err != nil {
							b.Fatal(r.Err)
						}
					}
				}
			})
		}
	}
}
