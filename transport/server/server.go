// Package server serves captured input events to one transport client at a
// time.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/transport"
)

var slog = logging.NewLogger("hidstate/transport/server")

type Config struct {
	Addr              string
	TLSCertPath       string
	TLSKeyPath        string
	ClientTLSCertPath string
}

func newTLSConfig(cfg *Config) (*tls.Config, error) {
	cert, key, clientCert, err := transport.ReadPEMFiles(cfg.TLSCertPath, cfg.TLSKeyPath, cfg.ClientTLSCertPath)
	if err != nil {
		return nil, err
	}
	return transport.ServerTLSConfig(cert, key, clientCert)
}

// Start serves inputs until ctx is done or inputs is closed. Events arriving
// while no client is connected are dropped. The returned channel receives
// the reason the server stopped.
func Start(ctx context.Context, cfg *Config, inputs <-chan inputevent.Event) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := run(ctx, cfg, inputs)
		done <- err
	}()
	return done
}

func run(ctx context.Context, cfg *Config, inputs <-chan inputevent.Event) error {
	tlsCfg, err := newTLSConfig(cfg)
	if err != nil {
		return err
	}

	slog.Info("listening for connection", "address", cfg.Addr)
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp4", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	listener = tls.NewListener(listener, tlsCfg)
	defer listener.Close()

	receptionist := newReceptionist(listener)

	sess := emptySession()
	defer func() {
		sess.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case conn, ok := <-receptionist.conns:
			if !ok {
				return receptionist.err
			}
			if !sess.Closed() {
				slog.Info("rejecting connection, active session exists", "address", conn.RemoteAddr())
				err := conn.Close()
				if err != nil {
					slog.Warn("failed to close connection", "address", conn.RemoteAddr(), "error", err)
				}
				continue
			}
			sess = newSession(ctx, conn)
			slog.Info("session established", "address", conn.RemoteAddr())
			runSession(ctx, sess)

		case input, ok := <-inputs:
			if !ok {
				return nil
			}
			select {
			case sess.inputs <- input:
			default:
			}

		case err := <-sess.done:
			slog.Error("session terminated", "error", err)
			sess.Close()
		}
	}
}

// receptionist handles incoming connections.
type receptionist struct {
	listener net.Listener
	conns    chan net.Conn
	err      error
}

func newReceptionist(listener net.Listener) *receptionist {
	r := &receptionist{
		listener: listener,
		conns:    make(chan net.Conn),
	}

	go func() {
		defer close(r.conns)

		for {
			conn, err := r.listener.Accept()
			if err != nil {
				r.err = fmt.Errorf("failed to accept connection: %w", err)
				return
			}
			slog.Info("connected to client", "address", conn.RemoteAddr())
			r.conns <- conn
		}
	}()

	return r
}

type session struct {
	*transport.Session
	inputs chan inputevent.Event
	done   chan error
}

func emptySession() *session {
	return &session{Session: transport.EmptySession()}
}

func newSession(ctx context.Context, conn net.Conn) *session {
	return &session{
		Session: transport.NewSession(ctx, conn),
		inputs:  make(chan inputevent.Event, 64),
		done:    make(chan error, 1),
	}
}

func runSession(ctx context.Context, sess *session) {
	go func() {
		err := func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()

				case input := <-sess.inputs:
					slog.Debug("sending input", "kind", input.Kind())
					if err := sess.WriteEvent(input); err != nil {
						return fmt.Errorf("failed to write input: %w", err)
					}

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
					switch frm.Tag {
					case transport.TagPing:
						slog.Debug("ping received")
						sess.SetRecvPingDeadline()
					default:
						slog.Warn("unexpected tag", "tag", frm.Tag)
					}
				}
			}
		}()

		sess.done <- err
	}()
}
