package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// Rewrite copies the journal read by rd to w, passing every entry through
// fn. The session id and entry times are kept.
func Rewrite(rd *Reader, w io.Writer, fn func(Entry) Entry) error {
	out := bufio.NewWriter(w)

	write := func(rec record) error {
		b, err := sonic.Marshal(&rec)
		if err != nil {
			return err
		}
		b = append(b, '\n')
		_, err = out.Write(b)
		return err
	}

	if err := write(record{Type: EntrySession, Session: rd.Session().String()}); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	for {
		e, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		e = fn(e)
		rec := record{Type: e.Type, Seq: e.Seq, Tick: e.Tick, At: e.At, Windows: e.Windows}
		if e.Event != nil {
			rec.Kind = e.Event.Kind().String()
			rec.Event = e.Event
		}
		if err := write(rec); err != nil {
			return fmt.Errorf("failed to write journal: %w", err)
		}
	}

	return out.Flush()
}
