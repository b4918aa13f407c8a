// Package dedupe tracks listing URLs already assigned within one kit.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of URLs kept in memory; the oldest entries
// are evicted first. A size of 0 or less keeps the deduper unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
