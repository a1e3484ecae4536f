package embedding

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports how many tenders have been handled. It is safe for use
// from pool workers. A nil writer discards output.
type Progress struct {
	mu           sync.Mutex
	w            io.Writer
	total        int
	done         int
	every        int
	lastReported int
	start        time.Time
}

// NewProgress creates a tracker for total items that prints every n items.
func NewProgress(w io.Writer, total, every int) *Progress {
	if every < 1 {
		every = 1
	}
	return &Progress{w: w, total: total, every: every, start: time.Now()}
}

// Add records n more items handled.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.lastReported >= p.every {
		p.print()
		p.lastReported = p.done
	}
}

// Done returns the number of items handled so far.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish prints the final line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.print()
	if p.w != nil {
		fmt.Fprintln(p.w)
	}
}

// print writes one progress line. Callers hold mu.
func (p *Progress) print() {
	if p.w == nil {
		return
	}
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	rate := float64(p.done) / max(time.Since(p.start).Seconds(), 1e-9)
	fmt.Fprintf(p.w, "\rEmbedded: %d/%d (%.1f%%) - %.1f tenders/s", p.done, p.total, pct, rate)
}
