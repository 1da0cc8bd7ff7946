package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dnldd/pulse/shared"
	"github.com/gorilla/websocket"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

func setupRelay(t *testing.T) (*Relay, chan shared.ControlUpdate) {
	controlUpdates := make(chan shared.ControlUpdate, 16)

	relay := NewRelay(&RelayConfig{
		ListenAddr: ":0",
		SendControlUpdate: func(update shared.ControlUpdate) {
			controlUpdates <- update
		},
		Logger: &log.Logger,
	})

	return relay, controlUpdates
}

func TestParseControlUpdate(t *testing.T) {
	// Ensure a complete control message parses field-by-field.
	update := ParseControlUpdate([]byte(`{
		"type": "control",
		"barrier": 2.5,
		"payoutPercent": 92,
		"direction": "down"
	}`))
	assert.Equal(t, update.HasBarrier, true)
	assert.Equal(t, update.Barrier, 2.5)
	assert.Equal(t, update.HasPayout, true)
	assert.Equal(t, update.PayoutPercent, float64(92))
	assert.Equal(t, update.HasDirection, true)
	assert.Equal(t, update.Direction, shared.Down)

	// Ensure a malformed field does not block valid sibling fields.
	update = ParseControlUpdate([]byte(`{
		"type": "control",
		"barrier": "not a number",
		"payoutPercent": 92
	}`))
	assert.Equal(t, update.HasBarrier, false)
	assert.Equal(t, update.HasPayout, true)
	assert.Equal(t, update.PayoutPercent, float64(92))

	// Ensure an unknown direction is skipped.
	update = ParseControlUpdate([]byte(`{"type": "control", "direction": "sideways"}`))
	assert.Equal(t, update.HasDirection, false)

	// Ensure an empty message yields no updates.
	update = ParseControlUpdate([]byte(`{"type": "control"}`))
	assert.Equal(t, update.HasBarrier, false)
	assert.Equal(t, update.HasPayout, false)
	assert.Equal(t, update.HasDirection, false)
}

func TestRelayRoundTrip(t *testing.T) {
	relay, controlUpdates := setupRelay(t)

	server := httptest.NewServer(http.HandlerFunc(relay.handleWS))
	defer server.Close()

	endpoint := strings.Replace(server.URL, "http", "ws", 1)
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	assert.NoError(t, err)
	defer conn.Close()

	// Wait for the server side to finish registering the client.
	for range 200 {
		relay.clientsMtx.RLock()
		registered := len(relay.clients)
		relay.clientsMtx.RUnlock()
		if registered == 1 {
			break
		}

		time.Sleep(time.Millisecond * 10)
	}

	// Ensure a broadcast reaches the connected client as a typed envelope.
	relay.handleBroadcast(shared.TickUpdate{
		Market: "R_100",
		Tick:   shared.Tick{Epoch: 10001, Price: 100},
	})

	_, payload, err := conn.ReadMessage()
	assert.NoError(t, err)

	msg := gjson.ParseBytes(payload)
	assert.Equal(t, msg.Get("type").String(), "tick")
	assert.Equal(t, msg.Get("data.market").String(), "R_100")
	assert.Equal(t, msg.Get("data.tick.epoch").Int(), int64(10001))

	// Ensure an inbound control message is forwarded.
	err = conn.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "control",
		"barrier": 3.5
	}`))
	assert.NoError(t, err)

	update := <-controlUpdates
	assert.Equal(t, update.HasBarrier, true)
	assert.Equal(t, update.Barrier, 3.5)

	// Ensure non-control messages are ignored.
	err = conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "ping"}`))
	assert.NoError(t, err)

	// Ensure a control message with no usable fields is not forwarded.
	err = conn.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "control",
		"barrier": "oops"
	}`))
	assert.NoError(t, err)

	err = conn.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "control",
		"payoutPercent": 95
	}`))
	assert.NoError(t, err)

	update = <-controlUpdates
	assert.Equal(t, update.HasBarrier, false)
	assert.Equal(t, update.HasPayout, true)
	assert.Equal(t, update.PayoutPercent, float64(95))
}

func TestRelayClientLifecycle(t *testing.T) {
	relay, _ := setupRelay(t)

	// Ensure registration and unregistration track connected clients.
	c := &client{id: "test", send: make(chan []byte, 1)}
	relay.register(c)

	relay.clientsMtx.RLock()
	_, ok := relay.clients[c.id]
	relay.clientsMtx.RUnlock()
	assert.Equal(t, ok, true)

	relay.unregister(c)

	relay.clientsMtx.RLock()
	_, ok = relay.clients[c.id]
	relay.clientsMtx.RUnlock()
	assert.Equal(t, ok, false)

	// Ensure unregistering twice is harmless.
	relay.unregister(c)
}

func TestFillBroadcastChannel(t *testing.T) {
	// Ensure broadcasts on a full channel do not block the caller.
	relay, _ := setupRelay(t)

	for range bufferSize + 1 {
		relay.Broadcast(shared.TickUpdate{Market: "R_100"})
	}

	assert.Equal(t, len(relay.broadcasts), bufferSize)
}
