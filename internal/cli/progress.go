package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/roach88/dbsearch/internal/search"
)

// progressSink prints one line per database read and per discovered
// component. It satisfies search.Sink.
type progressSink struct {
	mu  sync.Mutex
	w   io.Writer
	pct map[string]int
}

func newProgressSink(w io.Writer) *progressSink {
	return &progressSink{w: w, pct: make(map[string]int)}
}

// Emit implements search.Sink.
func (p *progressSink) Emit(ev search.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case search.EventFileStarted:
		p.pct[ev.File] = 0
		fmt.Fprintf(p.w, "pass %d: reading %s (%s)\n", ev.Pass, ev.File, fileSize(ev.File))
	case search.EventProgress:
		// Quarter steps keep the output short for large databases.
		step := int(ev.Fraction*4) * 25
		if step > p.pct[ev.File] && step < 100 {
			p.pct[ev.File] = step
			fmt.Fprintf(p.w, "pass %d: %s %d%%\n", ev.Pass, ev.File, step)
		}
	case search.EventComponentDiscovered:
		fmt.Fprintf(p.w, "pass %d: discovered %s\n", ev.Pass, ev.Name)
	case search.EventComponentRetracted:
		fmt.Fprintf(p.w, "pass %d: retracted %s\n", ev.Pass, ev.Name)
	case search.EventSolidExcluded:
		fmt.Fprintf(p.w, "pass %d: %s %s\n", ev.Pass, ev.Name, ev.Message)
	}
}

// fileSize returns the humanized size of path, or "size unknown".
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "size unknown"
	}
	return humanize.Bytes(uint64(info.Size()))
}
