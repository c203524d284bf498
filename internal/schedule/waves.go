// Package schedule drives a pool of engines across a batch of games. Games
// are processed in waves of at most one game per worker; a wave finishes when
// every game in it has a complete evaluation series or has failed.
package schedule

// Waves partitions game indexes 0..n-1 into consecutive groups of at most w.
// Waves(5, 2) is [[0 1] [2 3] [4]].
func Waves(n, w int) [][]int {
	if n <= 0 {
		return nil
	}
	if w < 1 {
		w = 1
	}
	out := make([][]int, 0, (n+w-1)/w)
	for start := 0; start < n; start += w {
		end := min(start+w, n)
		wave := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			wave = append(wave, i)
		}
		out = append(out, wave)
	}
	return out
}
