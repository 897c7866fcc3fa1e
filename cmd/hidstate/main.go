package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"

	"kafji.net/hidstate/app"
	"kafji.net/hidstate/config"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/main")

func init() {
	// SDL video and cursor calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	slog.Info("starting", "GOGC", os.Getenv("GOGC"), "GODEBUG", os.Getenv("GODEBUG"), "GOTRACEBACK", os.Getenv("GOTRACEBACK"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := config.ParseArgs()
	if err := app.Run(ctx, args); err != nil && ctx.Err() == nil {
		slog.Error("stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
