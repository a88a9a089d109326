package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cb-swing-bot/internal/coinbase"
	"cb-swing-bot/internal/config"
	"cb-swing-bot/internal/logging"
	"cb-swing-bot/internal/monitor"

	"go.uber.org/zap"
)

// Standalone price display: streams the ticker channel for a product without
// touching any account or trading state.
func main() {
	product := flag.String("product", "BTC-GBP", "product to watch")
	live := flag.Bool("live", false, "use the live feed instead of sandbox")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logging.New(config.LoggingConfig{Level: *level})

	feedURL := coinbase.SandboxWSURL
	if *live {
		feedURL = coinbase.LiveWSURL
	}
	mon := monitor.New(feedURL, *product, 5*time.Second, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching ticker", zap.String("product", *product), zap.Bool("live", *live))
	if err := mon.Run(ctx); err != nil && err != context.Canceled {
		log.Error("monitor terminated", zap.Error(err))
		os.Exit(1)
	}
}
