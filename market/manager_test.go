package market

import (
	"context"
	"testing"

	"github.com/dnldd/pulse/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func setupManager(t *testing.T, market string) (*Manager, chan shared.Message) {
	broadcasts := make(chan shared.Message, 16)
	broadcast := func(msg shared.Message) {
		broadcasts <- msg
	}

	cfg := &ManagerConfig{
		MarketIDs:      []string{market},
		TickBufferSize: 32,
		Timeframes:     []shared.Timeframe{shared.FiveSecond, shared.TenSecond},
		Broadcast:      broadcast,
		Logger:         &log.Logger,
	}

	mgr, err := NewManager(cfg)
	assert.NoError(t, err)

	return mgr, broadcasts
}

func TestManager(t *testing.T) {
	// Ensure the market manager can be started.
	market := "R_100"
	mgr, broadcasts := setupManager(t, market)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		mgr.Run(ctx)
		close(done)
	}()

	// Ensure the manager can process a catch up signal.
	catchUp := shared.NewCatchUpSignal(market, []shared.Tick{
		{Epoch: 10001, Price: 100},
		{Epoch: 10003, Price: 105},
		{Epoch: 10006, Price: 102},
	})
	mgr.SendCatchUpSignal(catchUp)
	<-catchUp.Status

	msg := <-broadcasts
	history, ok := msg.(shared.HistoryUpdate)
	assert.Equal(t, ok, true)
	assert.Equal(t, history.Market, market)
	assert.Equal(t, len(history.Candles["5s"]), 2)

	// Ensure the manager can process a tick signal.
	tick := shared.NewTickSignal(market, shared.Tick{Epoch: 10010, Price: 104})
	mgr.SendTickSignal(tick)
	<-tick.Status

	msg = <-broadcasts
	update, ok := msg.(shared.TickUpdate)
	assert.Equal(t, ok, true)
	assert.Equal(t, update.Market, market)
	assert.Equal(t, len(update.ClosedCandles), 2)
	assert.Equal(t, update.ClosedCandles["5s"].Close, float64(102))
	assert.Equal(t, update.Countdowns["10s"].Remaining, int64(10))

	// Ensure a stale tick is rejected without a broadcast.
	stale := shared.NewTickSignal(market, shared.Tick{Epoch: 10010, Price: 999})
	mgr.SendTickSignal(stale)
	<-stale.Status
	assert.Equal(t, len(broadcasts), 0)

	// Ensure the manager can process a snapshot request.
	req := shared.NewSnapshotRequest(market)
	mgr.SendSnapshotRequest(req)
	snapshot := <-req.Response
	assert.Equal(t, snapshot.Market, market)
	assert.Equal(t, snapshot.HasTick, true)
	assert.Equal(t, snapshot.LastTick, shared.Tick{Epoch: 10010, Price: 104})
	assert.Equal(t, snapshot.TickCount, 4)

	// Ensure a snapshot request for an unknown market yields an empty snapshot.
	unknownReq := shared.NewSnapshotRequest("R_50")
	mgr.SendSnapshotRequest(unknownReq)
	unknownSnapshot := <-unknownReq.Response
	assert.Equal(t, unknownSnapshot.HasTick, false)

	// Ensure the manager can process a stream reset signal.
	reset := shared.NewStreamResetSignal(market)
	mgr.SendStreamResetSignal(reset)
	<-reset.Status

	req = shared.NewSnapshotRequest(market)
	mgr.SendSnapshotRequest(req)
	snapshot = <-req.Response
	assert.Equal(t, snapshot.HasTick, false)
	assert.Equal(t, snapshot.TickCount, 0)

	// Ensure tick signals for unknown markets are discarded.
	unknownTick := shared.NewTickSignal("R_50", shared.Tick{Epoch: 10020, Price: 101})
	mgr.SendTickSignal(unknownTick)
	<-unknownTick.Status

	// Ensure the manager can be gracefully shutdown.
	cancel()
	<-done
}

func TestFillManagerChannels(t *testing.T) {
	// Ensure sends on full channels do not block the caller.
	market := "R_100"
	mgr, _ := setupManager(t, market)

	for range bufferSize + 1 {
		mgr.SendTickSignal(shared.NewTickSignal(market, shared.Tick{Epoch: 1, Price: 1}))
		mgr.SendCatchUpSignal(shared.NewCatchUpSignal(market, nil))
		mgr.SendStreamResetSignal(shared.NewStreamResetSignal(market))
		mgr.SendSnapshotRequest(shared.NewSnapshotRequest(market))
	}

	assert.Equal(t, len(mgr.tickSignals), bufferSize)
	assert.Equal(t, len(mgr.catchUpSignals), bufferSize)
	assert.Equal(t, len(mgr.resetSignals), bufferSize)
	assert.Equal(t, len(mgr.snapshotRequests), bufferSize)
}
