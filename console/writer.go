package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// writer hands lines to a single goroutine that owns stdout. Write never
// blocks; lines are dropped when the backlog is full.
type writer struct {
	out     io.Writer
	once    sync.Once
	wc      chan []byte
	dropped atomic.Uint64
}

func newWriter(out io.Writer, backlog int) *writer {
	return &writer{out: out, wc: make(chan []byte, backlog)}
}

func (w *writer) start() {
	go func() {
		for b := range w.wc {
			for m := 0; m < len(b); {
				n, err := w.out.Write(b[m:])
				if n == 0 {
					panic(fmt.Errorf("failed to write to console: %v", err))
				}
				m += n
			}
		}
	}()
}

func (w *writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.once.Do(w.start)

	b := make([]byte, len(p))
	copy(b, p)
	select {
	case w.wc <- b:
	default:
		w.dropped.Add(1)
	}

	return len(p), nil
}

var stdout = newWriter(os.Stdout, 1<<16)

// Writer is the process-wide console writer used by the logging package.
var Writer io.Writer = stdout

// Dropped reports how many writes were discarded because the console could
// not keep up.
func Dropped() uint64 {
	return stdout.dropped.Load()
}
