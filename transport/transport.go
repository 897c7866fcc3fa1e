// Package transport carries input events between hosts as TLV frames over
// TLS. Event values are cbor encoded.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/transport")

const (
	ValueMaxLength = 1024 - 2 /* tag */ - 2 /* length */
	// ValueMaxLength can fit in uint16.
	_ uint16 = ValueMaxLength
)

const (
	PingTimeout    = 10 * time.Second
	ConnectTimeout = 5 * time.Second
	ReconnectDelay = 5 * time.Second
	WriteTimeout   = 100 * time.Millisecond
)

var (
	ErrMaxLengthExceeded = errors.New("length is larger than the maximum length")
	ErrPingTimedOut      = errors.New("ping timed out")
	ErrUnexpectedTag     = errors.New("unexpected tag")
)

// Tag identifies a frame's value. Event frames use the event kind as tag.
type Tag uint16

const TagPing Tag = 0x100

func TagFor(ev inputevent.Event) Tag {
	return Tag(ev.Kind())
}

// Kind reports the event kind an event frame carries.
func (t Tag) Kind() (inputevent.Kind, bool) {
	if t < Tag(inputevent.KindKeyboardAdded) || t > Tag(inputevent.KindMouseButtonUp) {
		return 0, false
	}
	return inputevent.Kind(t), true
}

func writeTag(w io.Writer, tag Tag) error {
	return writeUint16(w, uint16(tag))
}

func writeLength(w io.Writer, length uint16) error {
	return writeUint16(w, length)
}

func writeUint16(w io.Writer, v uint16) error {
	_, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return err
}

func readTag(r io.Reader) (Tag, error) {
	tag, err := readUint16(r)
	return Tag(tag), err
}

func readLength(r io.Reader) (uint16, error) {
	return readUint16(r)
}

func readUint16(r io.Reader) (uint16, error) {
	buf := make([]byte, 2)
	_, err := io.ReadFull(r, buf)
	v := uint16(0)
	v |= uint16(buf[0]) << 8
	v |= uint16(buf[1])
	return v, err
}

type Frame struct {
	Tag    Tag
	Length uint16
	Value  []byte
}

// EventFrame encodes ev into a frame.
func EventFrame(ev inputevent.Event) (Frame, error) {
	value, err := cbor.Marshal(ev)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to marshal value: %w", err)
	}
	if len(value) > ValueMaxLength {
		return Frame{}, ErrMaxLengthExceeded
	}
	return Frame{Tag: TagFor(ev), Length: uint16(len(value)), Value: value}, nil
}

// Event decodes the event an event frame carries.
func (f Frame) Event() (inputevent.Event, error) {
	kind, ok := f.Tag.Kind()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedTag, f.Tag)
	}
	return inputevent.Decode(kind, func(v any) error {
		return cbor.Unmarshal(f.Value, v)
	})
}

func writeFrame(w io.Writer, frm Frame) error {
	err := writeTag(w, frm.Tag)
	if err != nil {
		return fmt.Errorf("failed to write tag: %w", err)
	}

	err = writeLength(w, frm.Length)
	if err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}

	_, err = w.Write(frm.Value[:frm.Length])
	if err != nil {
		return fmt.Errorf("failed to write value: %w", err)
	}

	return nil
}

func readFrame(r io.Reader) (Frame, error) {
	tag, err := readTag(r)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read tag: %w", err)
	}

	length, err := readLength(r)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read length: %w", err)
	}

	if length > ValueMaxLength {
		return Frame{}, ErrMaxLengthExceeded
	}

	value := make([]byte, length)
	_, err = io.ReadFull(r, value)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read value: %w", err)
	}

	return Frame{Tag: tag, Length: length, Value: value}, nil
}

// Session is one live connection. Frames read from it are delivered through
// Inbox; pings keep both ends aware of each other.
type Session struct {
	conn net.Conn
	w    *bufio.Writer
	r    *bufio.Reader

	mu     sync.Mutex
	closed bool

	sendPingDeadline <-chan time.Time
	recvPingDeadline <-chan time.Time

	inbox       chan Frame
	inboxErr    error
	cancelInbox context.CancelFunc
}

func EmptySession() *Session {
	return &Session{closed: true, cancelInbox: func() {}}
}

func NewSession(ctx context.Context, conn net.Conn) *Session {
	inboxCtx, cancelInbox := context.WithCancel(ctx)
	s := &Session{
		conn:        conn,
		w:           bufio.NewWriter(conn),
		r:           bufio.NewReader(conn),
		inbox:       make(chan Frame),
		cancelInbox: cancelInbox,
	}
	s.SetSendPingDeadline()
	s.SetRecvPingDeadline()

	go func() {
		defer close(s.inbox)
		err := func() error {
			for {
				frm, err := readFrame(s.r)
				if err != nil {
					return err
				}
				select {
				case <-inboxCtx.Done():
					return inboxCtx.Err()
				case s.inbox <- frm:
				}
			}
		}()
		s.inboxErr = err
	}()

	return s
}

func (s *Session) Inbox() <-chan Frame {
	return s.inbox
}

// InboxErr is valid once Inbox is closed.
func (s *Session) InboxErr() error {
	return s.inboxErr
}

func (s *Session) SetSendPingDeadline() {
	d := PingTimeout/2 + time.Duration(rand.Int63n(int64(PingTimeout/4)))
	s.sendPingDeadline = time.After(d)
}

func (s *Session) SendPingDeadline() <-chan time.Time {
	return s.sendPingDeadline
}

func (s *Session) SetRecvPingDeadline() {
	s.recvPingDeadline = time.After(PingTimeout)
}

func (s *Session) RecvPingDeadline() <-chan time.Time {
	return s.recvPingDeadline
}

func (s *Session) WriteFrame(frm Frame) error {
	t := time.Now().Add(WriteTimeout)
	err := s.conn.SetWriteDeadline(t)
	if err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	err = writeFrame(s.w, frm)
	if err != nil {
		return fmt.Errorf("failed to write to buffer: %w", err)
	}

	err = s.w.Flush()
	if err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

func (s *Session) WriteEvent(ev inputevent.Event) error {
	frm, err := EventFrame(ev)
	if err != nil {
		return err
	}
	return s.WriteFrame(frm)
}

func (s *Session) SendPing() error {
	if err := s.WriteFrame(Frame{Tag: TagPing}); err != nil {
		return err
	}
	s.SetSendPingDeadline()
	return nil
}

func (s *Session) Close() {
	if s == nil {
		return
	}
	defer s.cancelInbox()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	err := s.conn.Close()
	if err != nil {
		slog.Warn(
			"failed to close connection",
			"error", err,
			"local_addr", s.conn.LocalAddr(),
			"remote_addr", s.conn.RemoteAddr(),
		)
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
