// Package client receives input events from a transport server. A Handle
// can be attached to an engine as its global source.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/transport"
)

var slog = logging.NewLogger("hidstate/transport/client")

type Config struct {
	Addr              string
	TLSCertPath       string
	TLSKeyPath        string
	ServerTLSCertPath string

	// Backlog is the capacity of the inputs channel.
	Backlog int
}

type Handle struct {
	inputs chan inputevent.Event
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *Handle) Inputs() <-chan inputevent.Event {
	return h.inputs
}

// Err is valid once Inputs is closed.
func (h *Handle) Err() error {
	return h.err
}

// Stop disconnects and returns once no further event will be delivered.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

func newTLSConfig(cfg *Config) (*tls.Config, error) {
	cert, key, serverCert, err := transport.ReadPEMFiles(cfg.TLSCertPath, cfg.TLSKeyPath, cfg.ServerTLSCertPath)
	if err != nil {
		return nil, err
	}
	return transport.ClientTLSConfig(cert, key, serverCert)
}

// Start connects to the server, reconnecting until ctx is done or Stop is
// called.
func Start(ctx context.Context, cfg *Config) *Handle {
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = 1_000
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		inputs: make(chan inputevent.Event, backlog),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer close(h.inputs)

		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			h.err = err
			return
		}

		dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: transport.ConnectTimeout}, Config: tlsCfg}

		for {
			slog.Info("connecting to server", "address", cfg.Addr)
			conn, err := dialer.DialContext(ctx, "tcp4", cfg.Addr)
			if err != nil {
				slog.Error("failed to connect to server", "address", cfg.Addr, "error", err)
			} else {
				slog.Info("connected to server", "address", conn.RemoteAddr())
				sess := transport.NewSession(ctx, conn)
				err = runSession(ctx, sess, h.inputs)
				sess.Close()
				slog.Error("session terminated", "error", err)
			}

			slog.Info(fmt.Sprintf("reconnecting to server in %d seconds", transport.ReconnectDelay/time.Second))
			select {
			case <-ctx.Done():
				h.err = ctx.Err()
				return
			case <-time.After(transport.ReconnectDelay):
			}
		}
	}()

	return h
}

func runSession(ctx context.Context, sess *transport.Session, inputs chan<- inputevent.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sess.SendPingDeadline():
			slog.Debug("sending ping")
			if err := sess.SendPing(); err != nil {
				return fmt.Errorf("failed to write ping: %w", err)
			}

		case <-sess.RecvPingDeadline():
			return transport.ErrPingTimedOut

		case frm, ok := <-sess.Inbox():
			if !ok {
				return sess.InboxErr()
			}

			if frm.Tag == transport.TagPing {
				slog.Debug("ping received")
				sess.SetRecvPingDeadline()
				continue
			}

			event, err := frm.Event()
			if errors.Is(err, transport.ErrUnexpectedTag) {
				slog.Warn("unexpected tag", "tag", frm.Tag)
				continue
			}
			if err != nil {
				slog.Warn("failed to unmarshal event", "error", err)
				continue
			}
			slog.Debug("event received", "kind", event.Kind())
			select {
			case inputs <- event:
			default:
				slog.Warn("dropping input, channel was blocked", "kind", event.Kind())
			}
		}
	}
}
