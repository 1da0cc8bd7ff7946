package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/dnldd/pulse/shared"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the synthetic index feed websocket endpoint.
	BaseURL = "wss://ws.derivws.com/websockets/v3"
	// readTimeout bounds a single read from the feed.
	readTimeout = time.Second * 30
)

// DerivConfig represents the configuration for the deriv feed client.
type DerivConfig struct {
	// BaseURL is the feed websocket endpoint.
	BaseURL string
	// AppID is the feed application id.
	AppID string
}

// DerivClient streams live ticks for synthetic volatility indices over a
// websocket connection.
type DerivClient struct {
	cfg    *DerivConfig
	dialer *websocket.Dialer
	conn   *websocket.Conn
}

// Ensure the deriv client implements the TickStreamer interface.
var _ shared.TickStreamer = (*DerivClient)(nil)

// NewDerivClient instantiates a new deriv feed client.
func NewDerivClient(cfg *DerivConfig) (*DerivClient, error) {
	if cfg.AppID == "" {
		return nil, fmt.Errorf("feed app id cannot be an empty string")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}

	return &DerivClient{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
	}, nil
}

// connect dials the feed endpoint.
func (c *DerivClient) connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s?app_id=%s", c.cfg.BaseURL, c.cfg.AppID)

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dialing feed endpoint: %w", err)
	}

	c.conn = conn

	return nil
}

// read returns the next raw feed payload.
func (c *DerivClient) read() ([]byte, error) {
	err := c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	if err != nil {
		return nil, fmt.Errorf("setting feed read deadline: %w", err)
	}

	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading feed payload: %w", err)
	}

	return payload, nil
}

// ParseTick parses a live tick from the provided feed payload. It reports
// false for payloads of any other message type.
func ParseTick(payload []byte) (shared.Tick, bool) {
	msg := gjson.ParseBytes(payload)
	if msg.Get("msg_type").String() != "tick" {
		return shared.Tick{}, false
	}

	return shared.Tick{
		Epoch: msg.Get("tick.epoch").Int(),
		Price: msg.Get("tick.quote").Float(),
	}, true
}

// ParseTickHistory parses a batch tick history from the provided feed payload.
// The feed returns parallel times and prices arrays.
func ParseTickHistory(payload []byte) ([]shared.Tick, error) {
	msg := gjson.ParseBytes(payload)

	if feedErr := msg.Get("error.message"); feedErr.Exists() {
		return nil, fmt.Errorf("feed error: %s", feedErr.String())
	}

	times := msg.Get("history.times").Array()
	prices := msg.Get("history.prices").Array()
	if len(times) != len(prices) {
		return nil, fmt.Errorf("tick history length mismatch, %d times != %d prices",
			len(times), len(prices))
	}

	ticks := make([]shared.Tick, 0, len(times))
	for idx := range times {
		ticks = append(ticks, shared.Tick{
			Epoch: times[idx].Int(),
			Price: prices[idx].Float(),
		})
	}

	return ticks, nil
}

// FetchTickHistory fetches the most recent count ticks for the market.
func (c *DerivClient) FetchTickHistory(ctx context.Context, market string, count int) ([]shared.Tick, error) {
	if c.conn == nil {
		err := c.connect(ctx)
		if err != nil {
			return nil, err
		}
	}

	req := map[string]any{
		"ticks_history": market,
		"style":         "ticks",
		"count":         count,
		"end":           "latest",
	}
	err := c.conn.WriteJSON(req)
	if err != nil {
		return nil, fmt.Errorf("requesting tick history for %s: %w", market, err)
	}

	for {
		payload, err := c.read()
		if err != nil {
			return nil, err
		}

		if gjson.GetBytes(payload, "msg_type").String() != "history" {
			continue
		}

		return ParseTickHistory(payload)
	}
}

// Subscribe opens a live tick subscription for the provided market.
func (c *DerivClient) Subscribe(ctx context.Context, market string) error {
	if c.conn == nil {
		err := c.connect(ctx)
		if err != nil {
			return err
		}
	}

	req := map[string]any{
		"ticks":     market,
		"subscribe": 1,
	}
	err := c.conn.WriteJSON(req)
	if err != nil {
		return fmt.Errorf("subscribing to ticks for %s: %w", market, err)
	}

	return nil
}

// Next blocks until the next tick arrives on the subscription, skipping
// non-tick feed payloads.
func (c *DerivClient) Next(ctx context.Context) (shared.Tick, error) {
	for {
		if err := ctx.Err(); err != nil {
			return shared.Tick{}, err
		}

		payload, err := c.read()
		if err != nil {
			return shared.Tick{}, err
		}

		if feedErr := gjson.GetBytes(payload, "error.message"); feedErr.Exists() {
			return shared.Tick{}, fmt.Errorf("feed error: %s", feedErr.String())
		}

		tick, ok := ParseTick(payload)
		if !ok {
			continue
		}

		return tick, nil
	}
}

// Close tears the streaming connection down.
func (c *DerivClient) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}
