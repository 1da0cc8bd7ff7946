package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/dnldd/pulse/service"
	"github.com/dnldd/pulse/shared"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	direction, _ := shared.ParseDirection(cfg.Direction)

	pulseCfg := service.PulseConfig{
		Market:            cfg.Market,
		FeedAppID:         cfg.FeedAppID,
		DatabaseEndpoint:  cfg.DatabaseEndpoint,
		DatabaseUser:      cfg.DatabaseUser,
		DatabasePass:      cfg.DatabasePass,
		RelayListenAddr:   cfg.RelayListenAddr,
		MetricsListenAddr: cfg.MetricsListenAddr,
		TickBufferSize:    cfg.TickBufferSize,
		WarmupThreshold:   cfg.WarmupThreshold,
		AnalyticsInterval: cfg.AnalyticsInterval,
		Barrier:           cfg.Barrier,
		PayoutPercent:     cfg.PayoutPercent,
		Direction:         direction,
	}
	pulse, err := service.NewPulse(&pulseCfg)
	if err != nil {
		log.Printf("creating pulse service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	pulse.Run(ctx)
}
