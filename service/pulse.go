// Package service wires the pulse components into a running process.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/pulse/database"
	"github.com/dnldd/pulse/engine"
	"github.com/dnldd/pulse/fetch"
	"github.com/dnldd/pulse/indicator"
	"github.com/dnldd/pulse/market"
	"github.com/dnldd/pulse/metrics"
	"github.com/dnldd/pulse/probability"
	"github.com/dnldd/pulse/relay"
	"github.com/dnldd/pulse/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// PulseConfig represents the configuration struct for the pulse service.
type PulseConfig struct {
	// Market is the tracked synthetic index.
	Market string
	// FeedAppID is the upstream feed application id.
	FeedAppID string
	// DatabaseEndpoint is the historical sample database endpoint. It may be
	// empty on installs with no downloaded dataset.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string
	// RelayListenAddr is the display relay listen address.
	RelayListenAddr string
	// MetricsListenAddr is the metrics listen address.
	MetricsListenAddr string
	// TickBufferSize is the tick buffer capacity.
	TickBufferSize int
	// WarmupThreshold is the buffered tick count treated as full warm-up.
	WarmupThreshold int
	// AnalyticsInterval is the analytics cadence in seconds.
	AnalyticsInterval int
	// Barrier is the initial barrier distance.
	Barrier float64
	// PayoutPercent is the initial quoted payout percentage.
	PayoutPercent float64
	// Direction is the initial touch direction.
	Direction shared.Direction
}

// Validate asserts the config has sane inputs.
func (cfg *PulseConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("no market provided for pulse service"))
	}
	if cfg.FeedAppID == "" {
		errs = errors.Join(errs, fmt.Errorf("feed app id cannot be an empty string"))
	}
	if cfg.RelayListenAddr == "" {
		errs = errors.Join(errs, fmt.Errorf("relay listen address cannot be an empty string"))
	}
	if cfg.TickBufferSize <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick buffer size must be positive"))
	}
	if cfg.WarmupThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("warmup threshold must be positive"))
	}
	if cfg.AnalyticsInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("analytics interval must be positive"))
	}

	return errs
}

// Pulse represents the touch-probability monitoring service.
type Pulse struct {
	cfg               *PulseConfig
	fetchManager      *fetch.Manager
	marketManager     *market.Manager
	analyticsEngine   *engine.Engine
	probabilityEngine *probability.Engine
	displayRelay      *relay.Relay
	jobScheduler      *gocron.Scheduler
	logger            *zerolog.Logger
	wg                sync.WaitGroup
}

// NewPulse initializes a new pulse service.
func NewPulse(cfg *PulseConfig) (*Pulse, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating pulse config: %w", err)
	}

	var analyticsEngine *engine.Engine

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "pulse").Logger()

	relayLogger := logger.With().Str("component", "relay").Logger()
	displayRelay := relay.NewRelay(&relay.RelayConfig{
		ListenAddr: cfg.RelayListenAddr,
		SendControlUpdate: func(update shared.ControlUpdate) {
			if analyticsEngine != nil {
				analyticsEngine.SendControlUpdate(update)
			}
		},
		Logger: &relayLogger,
	})

	marketMgrLogger := logger.With().Str("component", "marketmanager").Logger()
	marketMgr, err := market.NewManager(&market.ManagerConfig{
		MarketIDs:      []string{cfg.Market},
		TickBufferSize: cfg.TickBufferSize,
		Timeframes:     shared.Timeframes(),
		Broadcast:      displayRelay.Broadcast,
		Logger:         &marketMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating market manager: %w", err)
	}

	// A missing sample database is an expected reduced-capability install;
	// the probability engine then runs theoretical-only.
	var store shared.SampleStore
	if cfg.DatabaseEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(&database.DatabaseConfig{
			Endpoint: cfg.DatabaseEndpoint,
			User:     cfg.DatabaseUser,
			Pass:     cfg.DatabasePass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating sample database: %w", err)
		}

		store = db
	}

	probabilityLogger := logger.With().Str("component", "probability").Logger()
	probabilityEngine, err := probability.NewEngine(&probability.EngineConfig{
		Market:      cfg.Market,
		Horizon:     probability.DefaultHorizon,
		SigmaWindow: indicator.DefaultShortVolWindow,
		Sigma: func(window int) (float64, bool) {
			return marketMgr.Sigma(cfg.Market, window)
		},
		Store:  store,
		Logger: &probabilityLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating probability engine: %w", err)
	}

	engineLogger := logger.With().Str("component", "engine").Logger()
	analyticsEngine, err = engine.NewEngine(&engine.EngineConfig{
		Market:          cfg.Market,
		WarmupThreshold: cfg.WarmupThreshold,
		Barrier:         cfg.Barrier,
		PayoutPercent:   cfg.PayoutPercent,
		Direction:       cfg.Direction,
		RequestSnapshot: marketMgr.SendSnapshotRequest,
		Estimate:        probabilityEngine.Estimate,
		Broadcast:       displayRelay.Broadcast,
		Logger:          &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analytics engine: %w", err)
	}

	streamer, err := fetch.NewDerivClient(&fetch.DerivConfig{AppID: cfg.FeedAppID})
	if err != nil {
		return nil, fmt.Errorf("creating feed client: %w", err)
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Market:            cfg.Market,
		Streamer:          streamer,
		HistoryCount:      cfg.TickBufferSize,
		SendTickSignal:    marketMgr.SendTickSignal,
		SendCatchUpSignal: marketMgr.SendCatchUpSignal,
		SignalStreamReset: marketMgr.SendStreamResetSignal,
		Logger:            &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	jobScheduler := gocron.NewScheduler(time.UTC)
	_, err = jobScheduler.Every(cfg.AnalyticsInterval).Seconds().Do(analyticsEngine.Trigger)
	if err != nil {
		return nil, fmt.Errorf("scheduling analytics job: %w", err)
	}

	service := &Pulse{
		cfg:               cfg,
		fetchManager:      fetchMgr,
		marketManager:     marketMgr,
		analyticsEngine:   analyticsEngine,
		probabilityEngine: probabilityEngine,
		displayRelay:      displayRelay,
		jobScheduler:      jobScheduler,
		logger:            &logger,
	}

	return service, nil
}

// Run handles the lifecycle processes of the pulse service.
func (p *Pulse) Run(ctx context.Context) {
	if p.cfg.MetricsListenAddr != "" {
		metrics.StartServer(p.cfg.MetricsListenAddr)
	}

	p.wg.Add(4)

	go func() {
		p.marketManager.Run(ctx)
		p.wg.Done()
	}()

	go func() {
		p.analyticsEngine.Run(ctx)
		p.wg.Done()
	}()

	go func() {
		p.displayRelay.Run(ctx)
		p.wg.Done()
	}()

	go func() {
		p.fetchManager.Run(ctx)
		p.wg.Done()
	}()

	p.jobScheduler.StartAsync()

	<-ctx.Done()
	p.jobScheduler.Stop()
	p.wg.Wait()
}
