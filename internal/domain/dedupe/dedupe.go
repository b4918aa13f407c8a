// Package dedupe tracks listing URLs already assigned within one kit so no
// listing is reused across tiers or categories. The orchestrator consults
// it in category order, which makes the first occurrence of a URL win.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records assigned listing URLs.
type Deduper interface {
	// SeenAndRecord atomically checks whether url was already assigned in
	// this kit and records it if not. Returns true if url was already seen.
	SeenAndRecord(ctx context.Context, url string) bool

	// Size returns the number of recorded URLs.
	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded set. In bounded
// mode the oldest entries are evicted first once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, used only in bounded mode
	maxSize int      // 0 or negative = unbounded
}

// NewInMemoryDeduper creates a deduper with configuration options. The
// default is unbounded, which is the right shape for a per-kit instance
// tracking a handful of URLs.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[url]; exists {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && len(d.order) > 0 {
			oldest := d.order[0]
			d.order = d.order[1:]
			delete(d.seen, oldest)
		}
		d.order = append(d.order, url)
	}
	d.seen[url] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
