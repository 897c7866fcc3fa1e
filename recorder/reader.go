package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/window"
)

var ErrNoSession = errors.New("journal does not start with a session entry")

type Entry struct {
	Type    EntryType
	Seq     uint64
	Tick    uint64
	At      time.Time
	Event   inputevent.Event
	Windows []window.Context
}

type rawRecord struct {
	Type    EntryType        `json:"type"`
	Session string           `json:"session"`
	Seq     uint64           `json:"seq"`
	Tick    uint64           `json:"tick"`
	At      time.Time        `json:"at"`
	Kind    string           `json:"kind"`
	Event   json.RawMessage  `json:"event"`
	Windows []window.Context `json:"windows"`
}

type Reader struct {
	scanner *bufio.Scanner
	session uuid.UUID
	line    int
}

// NewReader reads the session entry that opens a journal.
func NewReader(r io.Reader) (*Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	rd := &Reader{scanner: scanner}

	rec, err := rd.next()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if rec.Type != EntrySession {
		return nil, ErrNoSession
	}
	rd.session, err = uuid.Parse(rec.Session)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	return rd, nil
}

func (r *Reader) Session() uuid.UUID {
	return r.session
}

func (r *Reader) next() (rawRecord, error) {
	for r.scanner.Scan() {
		r.line++
		b := r.scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec rawRecord
		if err := sonic.Unmarshal(b, &rec); err != nil {
			return rawRecord{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return rawRecord{}, err
	}
	return rawRecord{}, io.EOF
}

// Next returns the next event or pass entry, or io.EOF at the end of the
// journal. Entries of unknown type are skipped.
func (r *Reader) Next() (Entry, error) {
	for {
		rec, err := r.next()
		if err != nil {
			return Entry{}, err
		}

		switch rec.Type {
		case EntryEvent:
			kind, err := inputevent.ParseKind(rec.Kind)
			if err != nil {
				return Entry{}, fmt.Errorf("line %d: %w", r.line, err)
			}
			ev, err := inputevent.Decode(kind, func(v any) error {
				return sonic.Unmarshal(rec.Event, v)
			})
			if err != nil {
				return Entry{}, fmt.Errorf("line %d: %w", r.line, err)
			}
			return Entry{Type: EntryEvent, Seq: rec.Seq, At: rec.At, Event: ev}, nil

		case EntryPass:
			return Entry{Type: EntryPass, Tick: rec.Tick, At: rec.At, Windows: rec.Windows}, nil

		default:
			slog.Debug("skipping journal entry", "line", r.line, "type", rec.Type)
		}
	}
}
