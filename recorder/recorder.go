// Package recorder journals inbound events and reconciliation passes as JSON
// lines, so a session can be replayed through a fresh engine.
package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/window"
)

var slog = logging.NewLogger("hidstate/recorder")

type EntryType string

const (
	EntrySession EntryType = "session"
	EntryEvent   EntryType = "event"
	EntryPass    EntryType = "pass"
)

type record struct {
	Type    EntryType        `json:"type"`
	Session string           `json:"session,omitempty"`
	Seq     uint64           `json:"seq,omitempty"`
	Tick    uint64           `json:"tick,omitempty"`
	At      time.Time        `json:"at"`
	Kind    string           `json:"kind,omitempty"`
	Event   inputevent.Event `json:"event,omitempty"`
	Windows []window.Context `json:"windows,omitempty"`
}

// Recorder writes the journal on its own goroutine. Record and Mark never
// block; entries are dropped when the backlog is full.
type Recorder struct {
	session uuid.UUID
	out     *bufio.Writer
	closer  io.Closer

	mu      sync.RWMutex
	closed  bool
	records chan record

	seq     atomic.Uint64
	dropped atomic.Uint64

	done chan struct{}
	err  error
}

// New starts a journal on w with a fresh session id.
func New(w io.Writer, backlog int) *Recorder {
	if backlog <= 0 {
		backlog = 4096
	}
	r := &Recorder{
		session: uuid.New(),
		out:     bufio.NewWriter(w),
		records: make(chan record, backlog),
		done:    make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	r.records <- record{Type: EntrySession, Session: r.session.String(), At: time.Now()}
	go r.run()
	return r
}

// Create starts a journal in a new file at path.
func Create(path string, backlog int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	return New(f, backlog), nil
}

func (r *Recorder) Session() uuid.UUID {
	return r.session
}

func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Record journals an inbound event.
func (r *Recorder) Record(ev inputevent.Event) {
	r.enqueue(record{
		Type:  EntryEvent,
		Seq:   r.seq.Add(1),
		At:    time.Now(),
		Kind:  ev.Kind().String(),
		Event: ev,
	})
}

// Mark journals a reconciliation pass together with the windows it ran
// against.
func (r *Recorder) Mark(tick uint64, at time.Time, windows []window.Context) {
	r.enqueue(record{Type: EntryPass, Tick: tick, At: at, Windows: windows})
}

func (r *Recorder) enqueue(rec record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.records <- rec:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.records {
		if r.err != nil {
			continue
		}
		b, err := sonic.Marshal(&rec)
		if err == nil {
			b = append(b, '\n')
			_, err = r.out.Write(b)
		}
		if err != nil {
			slog.Error("failed to write journal", "error", err)
			r.err = err
		}
	}
}

// Close flushes the journal and closes the underlying writer if it is a
// closer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()

	<-r.done
	err := r.err
	if ferr := r.out.Flush(); err == nil {
		err = ferr
	}
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
	}
	if n := r.dropped.Load(); n > 0 {
		slog.Warn("journal entries dropped", "count", n)
	}
	return err
}
