// Package database adapts a rqlite historical sample database as a read-only
// sample store. The sample table is owned and populated externally; this core
// only aggregates over it.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/pulse/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements. Each sample row stores a feature snapshot and two
	// forward-looking labels: the maximum favorable excursion in each
	// direction over the store's fixed horizon.
	touchStatsUpSQL   = "SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN mfeup >= ? THEN 1 ELSE 0 END), 0) AS touched FROM sample WHERE market = ?"
	touchStatsDownSQL = "SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN mfedown >= ? THEN 1 ELSE 0 END), 0) AS touched FROM sample WHERE market = ?"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the read-only sample database connection. Concurrent
// readers are safe since this core never writes to the store.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the SampleStore interface.
var _ shared.SampleStore = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	return &Database{
		cfg:    cfg,
		client: client,
	}, nil
}

// asInt64 coerces a scanned database value into an integer.
func asInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected database value: %s", spew.Sdump(value))
	}
}

// TouchStats returns the number of stored sample windows for the market and
// how many of them reached the provided barrier distance in the given
// direction within the store's labeled horizon.
func (db *Database) TouchStats(ctx context.Context, market string, direction shared.Direction, distance float64) (int64, int64, error) {
	var stmt string
	switch direction {
	case shared.Up:
		stmt = touchStatsUpSQL
	case shared.Down:
		stmt = touchStatsDownSQL
	default:
		return 0, 0, fmt.Errorf("unknown direction provided: %d", direction)
	}

	resp, err := db.client.QuerySingle(ctx, stmt, distance, market)
	if err != nil {
		return 0, 0, fmt.Errorf("querying touch stats for %s: %w", market, err)
	}

	results := resp.GetQueryResultsAssoc()
	if len(results) == 0 || len(results[0].Rows) == 0 {
		return 0, 0, fmt.Errorf("no touch stats returned for %s", market)
	}

	row := results[0].Rows[0]

	total, err := asInt64(row["total"])
	if err != nil {
		return 0, 0, fmt.Errorf("scanning sample total: %w", err)
	}

	touched, err := asInt64(row["touched"])
	if err != nil {
		return 0, 0, fmt.Errorf("scanning touched count: %w", err)
	}

	return total, touched, nil
}
