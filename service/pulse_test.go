package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestPulseConfigValidate(t *testing.T) {
	cfg := &PulseConfig{
		Market:            "R_100",
		FeedAppID:         "1089",
		RelayListenAddr:   ":0",
		TickBufferSize:    600,
		WarmupThreshold:   300,
		AnalyticsInterval: 5,
		Barrier:           1,
		PayoutPercent:     85,
	}

	// Ensure a valid config passes.
	assert.NoError(t, cfg.Validate())

	// Ensure missing required fields are all reported together.
	err := (&PulseConfig{}).Validate()
	assert.Error(t, err)
	assert.Equal(t, strings.Contains(err.Error(), "no market provided"), true)
	assert.Equal(t, strings.Contains(err.Error(), "feed app id"), true)
	assert.Equal(t, strings.Contains(err.Error(), "tick buffer size"), true)
}

func TestPulseGracefulShutdown(t *testing.T) {
	cfg := &PulseConfig{
		Market:            "R_100",
		FeedAppID:         "1089",
		RelayListenAddr:   ":0",
		TickBufferSize:    600,
		WarmupThreshold:   300,
		AnalyticsInterval: 5,
		Barrier:           1,
		PayoutPercent:     85,
	}

	pulse, err := NewPulse(cfg)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the pulse service can be run and gracefully terminated.
	time.AfterFunc(time.Second*2, func() {
		cancel()
	})
	done := make(chan struct{})
	go func() {
		pulse.Run(ctx)
		close(done)
	}()

	<-done
}
