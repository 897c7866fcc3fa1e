package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = time.Second

type Watcher struct {
	cfgs chan *Config
	err  error
}

func (w *Watcher) Configs() <-chan *Config {
	return w.cfgs
}

// Err is valid once Configs is closed.
func (w *Watcher) Err() error {
	return w.err
}

// Watch delivers the config at path every time the file settles after a
// change. Invalid configs are logged and skipped.
func Watch(ctx context.Context, path string) *Watcher {
	w := &Watcher{cfgs: make(chan *Config)}

	go func() {
		defer close(w.cfgs)

		watcher, err := createWatcher(path)
		if err != nil {
			w.err = err
			return
		}
		defer watcher.Close()

		name := filepath.Clean(path)

		// Where did that bring you? Back to me. - RxJava
		var debounce <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				err := ctx.Err()
				slog.Debug("context error", "error", err)
				w.err = err
				return

			case event, ok := <-watcher.Events:
				if !ok {
					slog.Debug("watcher events closed")
					select {
					case err := <-watcher.Errors:
						w.err = err
					default:
					}
					return
				}
				slog.Debug("watcher event", "event", event)
				if filepath.Clean(event.Name) != name || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				debounce = time.After(debounceDelay)

			case <-debounce:
				debounce = nil
				slog.Debug("reading config")
				cfg, err := ReadConfig(path)
				if err != nil {
					slog.Warn("failed to read config", "error", err)
					continue
				}
				slog.Debug("sending config")
				select {
				case w.cfgs <- cfg:
				case <-ctx.Done():
					w.err = ctx.Err()
					return
				}
			}
		}
	}()

	return w
}

// createWatcher watches the directory, so editors that replace the file
// are still seen.
func createWatcher(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to add path: %w", err)
	}
	return watcher, nil
}
