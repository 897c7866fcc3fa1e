// Package forward captures evdev input and relays it to a remote hidstate
// instance while relaying is toggled on.
package forward

import (
	"context"
	"fmt"
	"time"

	"kafji.net/hidstate/config"
	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/inputsource"
	"kafji.net/hidstate/keycode"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/transport/server"
)

var slog = logging.NewLogger("hidstate/forward")

// Start runs the forwarder, restarting it whenever the config file changes.
func Start(ctx context.Context, args config.Args) error {
	cfg, err := config.ReadConfig(args.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	watcher := config.Watch(ctx, args.ConfigFile)

	for {
		logging.SetLogLevel(cfg.LogLevel)

		slog.Info("starting forwarder", "config", cfg.Forward)
		runCtx, cancelRun := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			run(runCtx, cfg)
		}()

		var ok bool
		select {
		case <-ctx.Done():
			cancelRun()
			<-done
			return ctx.Err()

		case cfg, ok = <-watcher.Configs():
			// the old run must release the devices before the next grabs them
			cancelRun()
			<-done
			if !ok {
				return fmt.Errorf("config watcher error: %w", watcher.Err())
			}
			slog.Info("configurations changed")
		}
	}
}

func run(ctx context.Context, cfg *config.Config) {
	toggle, err := keycode.ParseControl(cfg.Forward.ToggleKey)
	if err != nil {
		slog.Error("invalid toggle key", "error", err)
		return
	}

	source, err := inputsource.Start(inputsource.Config{
		Dir:    cfg.Evdev.Dir,
		Grab:   cfg.Evdev.Grab,
		Screen: devstate.Vec2{X: cfg.Global.Width, Y: cfg.Global.Height},
	})
	if err != nil {
		slog.Error("failed to start input source", "error", err)
		return
	}
	defer source.Stop()

	events := make(chan inputevent.Event, 1_000)
	defer close(events)

	transport := server.Start(ctx, &server.Config{
		Addr:              fmt.Sprintf(":%d", cfg.Forward.Port),
		TLSCertPath:       cfg.Forward.TLSCertPath,
		TLSKeyPath:        cfg.Forward.TLSKeyPath,
		ClientTLSCertPath: cfg.Forward.ClientTLSCertPath,
	}, events)

	relay := false
	toggledAt := time.Time{}

	buffer := keyBuffer{toggle: toggle}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("context error", "error", ctx.Err())
			return

		case input, ok := <-source.Inputs():
			if !ok {
				slog.Error("input source stopped", "error", source.Error())
				return
			}
			if relay {
				select {
				case events <- input:
				default:
					slog.Warn("dropping input, channel was blocked", "kind", input.Kind())
				}
			}

			var (
				code uint32
				down bool
			)
			switch input := input.(type) {
			case inputevent.KeyDown:
				code, down = input.Code, true
			case inputevent.KeyUp:
				code, down = input.Code, false
			default:
				continue
			}
			c, err := keycode.Translate(keycode.PlatformEvdev, code)
			if err != nil {
				continue
			}
			buffer.push(c, down, time.Now())
			if yes, at := buffer.toggleKeyStrokeExists(toggledAt); yes {
				relay = !relay
				toggledAt = at
				slog.Info("toggling relay", "relay", relay)
				// while relaying, local input belongs to the remote
				source.SetGrab(relay || cfg.Evdev.Grab)
			}

		case err := <-transport:
			slog.Error("transport error", "error", err)
			return
		}
	}
}
