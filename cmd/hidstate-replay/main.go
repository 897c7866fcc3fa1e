package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/bytedance/sonic"

	"kafji.net/hidstate/engine"
	"kafji.net/hidstate/entity"
	"kafji.net/hidstate/logging"
	"kafji.net/hidstate/monitor"
	"kafji.net/hidstate/recorder"
	"kafji.net/hidstate/replay"
)

var slog = logging.NewLogger("hidstate-replay/main")

func main() {
	journal := flag.String("journal", "./hidstate.journal", "set file path of the journal to replay")
	logLevel := flag.String("log-level", "info", "set log level")
	flag.Parse()

	logging.SetLogLevel(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f, err := os.Open(*journal)
	if err != nil {
		slog.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	rd, err := recorder.NewReader(f)
	if err != nil {
		slog.Error("failed to read journal", "error", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := sonic.ConfigDefault.NewEncoder(out)

	store := entity.NewMemStore()
	stats, err := replay.Run(ctx, rd, store, func(frame engine.Frame) {
		if err := enc.Encode(monitor.NewFrameView(frame)); err != nil {
			slog.Error("failed to write frame", "error", err)
		}
	})
	if err != nil {
		slog.Error("replay stopped", "error", err)
	}
	slog.Info("replay done", "events", stats.Events, "dropped", stats.Dropped, "passes", stats.Passes)
}
