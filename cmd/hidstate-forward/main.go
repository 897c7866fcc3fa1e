//go:build linux

package main

import (
	"context"
	"os"
	"os/signal"

	"kafji.net/hidstate/config"
	"kafji.net/hidstate/forward"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate-forward/main")

func main() {
	slog.Info("starting", "GOGC", os.Getenv("GOGC"), "GODEBUG", os.Getenv("GODEBUG"), "GOTRACEBACK", os.Getenv("GOTRACEBACK"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := config.ParseArgs()
	err := forward.Start(ctx, args)
	slog.Error("forwarder stopped", "error", err)
}
