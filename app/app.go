// Package app runs the hidstate window: an SDL window whose input, plus an
// optional global source, is reconciled into a store once per tick.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/yohamta/donburi"

	"kafji.net/hidstate/config"
	"kafji.net/hidstate/devstate"
	"kafji.net/hidstate/engine"
	"kafji.net/hidstate/entity/donburistore"
	"kafji.net/hidstate/inputsource"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/monitor"
	"kafji.net/hidstate/recorder"
	"kafji.net/hidstate/sdlwindow"
	"kafji.net/hidstate/transport/client"
)

var slog = logging.NewLogger("hidstate/app")

// Run must be called from the main OS thread. It returns when the window is
// closed or ctx is done.
func Run(ctx context.Context, args config.Args) error {
	cfg, err := config.ReadConfig(args.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	logging.SetLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize sdl: %w", err)
	}
	defer sdl.Quit()

	win, err := sdl.CreateWindow(cfg.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		cfg.Window.Width, cfg.Window.Height, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Destroy()

	store := donburistore.New(donburi.NewWorld())

	windows := sdlwindow.NewWindows()
	winID, err := windows.Track(win)
	if err != nil {
		return err
	}

	cursors := sdlwindow.NewCursors()
	defer cursors.Free()

	var rec *recorder.Recorder
	if cfg.Recorder.Path != "" {
		rec, err = recorder.Create(cfg.Recorder.Path, 0)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("failed to close journal", "error", err)
			}
		}()
		slog.Info("recording", "path", cfg.Recorder.Path, "session", rec.Session())
	}

	var hub *monitor.Hub
	if cfg.Monitor.Addr != "" {
		hub = monitor.NewHub()
		defer hub.Close()
		go func() {
			if err := monitor.Serve(ctx, cfg.Monitor.Addr, hub); err != nil {
				slog.Error("monitor stopped", "error", err)
			}
		}()
	}

	engCfg := engine.Config{Cursor: cursors}
	if rec != nil {
		engCfg.Tap = rec.Record
	}
	eng := engine.New(store, engCfg)

	var reg engine.Registrations
	watcher := sdlwindow.Watch(&reg, eng, windows)

	// watch, then engine, then the window entity
	defer func() {
		watcher.Close()
		eng.Close()
		windows.Untrack(winID)
		windows.Sync(store)
	}()

	if err := attachGlobal(ctx, eng, cfg); err != nil {
		return err
	}

	return loop(ctx, args, cfg, eng, windows, store, rec, hub)
}

func attachGlobal(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	screen := devstate.Vec2{X: cfg.Global.Width, Y: cfg.Global.Height}

	var src engine.GlobalSource
	switch cfg.Global.Source {
	case config.GlobalNone:
		return nil

	case config.GlobalEvdev:
		h, err := inputsource.Start(inputsource.Config{Dir: cfg.Evdev.Dir, Grab: cfg.Evdev.Grab, Screen: screen})
		if err != nil {
			return fmt.Errorf("failed to start evdev source: %w", err)
		}
		src = h

	case config.GlobalRemote:
		src = client.Start(ctx, &client.Config{
			Addr:              cfg.Remote.ServerAddr,
			TLSCertPath:       cfg.Remote.TLSCertPath,
			TLSKeyPath:        cfg.Remote.TLSKeyPath,
			ServerTLSCertPath: cfg.Remote.ServerTLSCertPath,
		})

	default:
		return fmt.Errorf("%w: unknown global source %q", config.ErrInvalidConfig, cfg.Global.Source)
	}

	if err := eng.AttachGlobal(ctx, src, screen); err != nil {
		src.Stop()
		return fmt.Errorf("failed to attach global source: %w", err)
	}
	return nil
}

var errWindowClosed = errors.New("window closed")

func loop(
	ctx context.Context,
	args config.Args,
	cfg *config.Config,
	eng *engine.Engine,
	windows *sdlwindow.Windows,
	store *donburistore.Store,
	rec *recorder.Recorder,
	hub *monitor.Hub,
) error {
	cfgWatcher := config.Watch(ctx, args.ConfigFile)
	cfgs := cfgWatcher.Configs()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-cfgs:
			if !ok {
				slog.Warn("config watcher stopped", "error", cfgWatcher.Err())
				cfgs = nil
				continue
			}
			logging.SetLogLevel(c.LogLevel)
			slog.Info("configurations changed, log level applied; restart for other changes")

		case now := <-ticker.C:
			if err := pollEvents(); err != nil {
				if errors.Is(err, errWindowClosed) {
					slog.Info("window closed")
					return nil
				}
				return err
			}

			windows.Sync(store)
			frame := eng.Reconcile(now)
			if rec != nil {
				rec.Mark(frame.Tick, now, eng.Windows())
			}
			if hub != nil {
				hub.Publish(frame)
			}
		}
	}
}

// pollEvents drains the SDL queue. Input reaches the engine through the
// event watch as events are queued; the queue is only checked for quit.
func pollEvents() error {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			return errWindowClosed
		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_CLOSE {
				return errWindowClosed
			}
		}
	}
	return nil
}

var _ engine.GlobalSource = (*inputsource.Handle)(nil)
var _ engine.GlobalSource = (*client.Handle)(nil)
