package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dnldd/pulse/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func TestAsInt64(t *testing.T) {
	// Ensure every scan representation the store returns coerces.
	v, err := asInt64(int64(7))
	assert.NoError(t, err)
	assert.Equal(t, v, int64(7))

	v, err = asInt64(float64(7))
	assert.NoError(t, err)
	assert.Equal(t, v, int64(7))

	v, err = asInt64(json.Number("7"))
	assert.NoError(t, err)
	assert.Equal(t, v, int64(7))

	v, err = asInt64("7")
	assert.NoError(t, err)
	assert.Equal(t, v, int64(7))

	// Ensure unusable values error.
	_, err = asInt64(nil)
	assert.Error(t, err)

	_, err = asInt64("not a number")
	assert.Error(t, err)
}

func TestTouchStatsDirection(t *testing.T) {
	// Ensure an unknown direction is rejected before any query is issued.
	db, err := NewDatabase(&DatabaseConfig{
		Endpoint: "http://localhost:4001",
		Logger:   &log.Logger,
	})
	assert.NoError(t, err)

	_, _, err = db.TouchStats(context.Background(), "R_100", shared.Direction(99), 1)
	assert.Error(t, err)
}
