// Package relay republishes computed state to display clients over websockets
// and accepts operator control messages from them.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dnldd/pulse/metrics"
	"github.com/dnldd/pulse/shared"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// writeTimeout bounds a single write to a display client.
	writeTimeout = time.Second * 5
)

// envelope wraps an outbound message with its kind discriminant for clients.
type envelope struct {
	Type string         `json:"type"`
	Data shared.Message `json:"data"`
}

// client represents a connected display client.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// RelayConfig represents the relay configuration.
type RelayConfig struct {
	// ListenAddr is the websocket listen address.
	ListenAddr string
	// SendControlUpdate relays operator parameter updates for processing.
	SendControlUpdate func(update shared.ControlUpdate)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Relay fans computed state out to connected display clients.
type Relay struct {
	cfg        *RelayConfig
	upgrader   websocket.Upgrader
	clients    map[string]*client
	clientsMtx sync.RWMutex
	broadcasts chan shared.Message
}

// NewRelay initializes a new relay.
func NewRelay(cfg *RelayConfig) *Relay {
	return &Relay{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[string]*client),
		broadcasts: make(chan shared.Message, bufferSize),
	}
}

// Broadcast relays the provided message to all connected display clients.
func (r *Relay) Broadcast(msg shared.Message) {
	select {
	case r.broadcasts <- msg:
		// do nothing.
	default:
		r.cfg.Logger.Error().Msgf("broadcast channel at capacity: %d/%d",
			len(r.broadcasts), bufferSize)
	}
}

// ParseControlUpdate parses an operator control message field-by-field.
// A malformed field is skipped without blocking valid sibling fields.
func ParseControlUpdate(payload []byte) shared.ControlUpdate {
	var update shared.ControlUpdate
	msg := gjson.ParseBytes(payload)

	if barrier := msg.Get("barrier"); barrier.Exists() && barrier.Type == gjson.Number {
		update.Barrier = barrier.Float()
		update.HasBarrier = true
	}

	if payout := msg.Get("payoutPercent"); payout.Exists() && payout.Type == gjson.Number {
		update.PayoutPercent = payout.Float()
		update.HasPayout = true
	}

	if direction := msg.Get("direction"); direction.Exists() {
		if parsed, ok := shared.ParseDirection(direction.String()); ok {
			update.Direction = parsed
			update.HasDirection = true
		}
	}

	return update
}

// register tracks the provided display client.
func (r *Relay) register(c *client) {
	r.clientsMtx.Lock()
	r.clients[c.id] = c
	r.clientsMtx.Unlock()

	metrics.RelayClients.Inc()
}

// unregister drops the provided display client.
func (r *Relay) unregister(c *client) {
	r.clientsMtx.Lock()
	_, ok := r.clients[c.id]
	if ok {
		delete(r.clients, c.id)
		close(c.send)
	}
	r.clientsMtx.Unlock()

	if ok {
		metrics.RelayClients.Dec()
	}
}

// readPump consumes inbound control messages from the provided client until
// its connection fails.
func (r *Relay) readPump(c *client) {
	defer r.unregister(c)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if gjson.GetBytes(payload, "type").String() != "control" {
			continue
		}

		update := ParseControlUpdate(payload)
		if update.HasBarrier || update.HasPayout || update.HasDirection {
			r.cfg.SendControlUpdate(update)
		}
	}
}

// writePump flushes outbound payloads to the provided client until its send
// channel closes.
func (r *Relay) writePump(c *client) {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err != nil {
			return
		}

		err = c.conn.WriteMessage(websocket.TextMessage, payload)
		if err != nil {
			return
		}
	}
}

// handleWS upgrades an inbound display client connection.
func (r *Relay) handleWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.cfg.Logger.Error().Msgf("upgrading display client connection: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, bufferSize),
	}

	r.register(c)

	go r.writePump(c)
	go r.readPump(c)
}

// handleBroadcast fans the provided message out to all connected clients.
func (r *Relay) handleBroadcast(msg shared.Message) {
	payload, err := json.Marshal(envelope{Type: msg.Kind().String(), Data: msg})
	if err != nil {
		r.cfg.Logger.Error().Msgf("marshaling %s broadcast: %v", msg.Kind().String(), err)
		return
	}

	r.clientsMtx.RLock()
	defer r.clientsMtx.RUnlock()

	for _, c := range r.clients {
		select {
		case c.send <- payload:
			// do nothing.
		default:
			r.cfg.Logger.Error().Msgf("display client %s send buffer at capacity, dropping payload", c.id)
		}
	}
}

// Run manages the lifecycle processes of the relay.
func (r *Relay) Run(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.handleWS)

	server := &http.Server{Addr: r.cfg.ListenAddr, Handler: mux}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			r.cfg.Logger.Error().Msgf("relay server: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			_ = server.Shutdown(shutdownCtx)
			cancel()
			return
		case msg := <-r.broadcasts:
			r.handleBroadcast(msg)
		}
	}
}
