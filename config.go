package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	defaultRelayListenAddr   = ":8090"
	defaultMetricsListenAddr = ":9190"
	defaultTickBufferSize    = 600
	defaultWarmupThreshold   = 300
	defaultAnalyticsInterval = 5
	defaultBarrier           = 1.0
	defaultPayoutPercent     = 85
	defaultDirection         = "up"
)

// Config is the configuration struct for the service.
type Config struct {
	// Market is the tracked synthetic index.
	Market string
	// FeedAppID is the upstream feed application id.
	FeedAppID string
	// DatabaseEndpoint is the historical sample database endpoint.
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
	// Direction is the initial touch direction, up or down.
	Direction string

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("no market provided for pulse service"))
	}
	if cfg.FeedAppID == "" {
		errs = errors.Join(errs, fmt.Errorf("feed app id cannot be an empty string"))
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
	if cfg.Barrier <= 0 {
		errs = errors.Join(errs, fmt.Errorf("barrier must be positive"))
	}
	if cfg.PayoutPercent <= 0 {
		errs = errors.Join(errs, fmt.Errorf("payout percent must be positive"))
	}
	if cfg.Direction != "up" && cfg.Direction != "down" {
		errs = errors.Join(errs, fmt.Errorf("direction must be up or down, got %q", cfg.Direction))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		def := defValue
		if def == "" {
			def = val.Elem().String()
		}
		flag.StringVar(value.(*string), name, def, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		def := int(val.Elem().Int())
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		def := val.Elem().Float()
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Seed defaults so env/flag values only override what is provided.
	cfg.RelayListenAddr = defaultRelayListenAddr
	cfg.MetricsListenAddr = defaultMetricsListenAddr
	cfg.TickBufferSize = defaultTickBufferSize
	cfg.WarmupThreshold = defaultWarmupThreshold
	cfg.AnalyticsInterval = defaultAnalyticsInterval
	cfg.Barrier = defaultBarrier
	cfg.PayoutPercent = defaultPayoutPercent
	cfg.Direction = defaultDirection

	// Register command line arguments using loaded environment variables as defaults.
	for _, reg := range []struct {
		name  string
		value interface{}
		usage string
	}{
		{"market", &cfg.Market, "the tracked synthetic index"},
		{"feedappid", &cfg.FeedAppID, "the upstream feed app id"},
		{"dbendpoint", &cfg.DatabaseEndpoint, "the sample database endpoint"},
		{"dbuser", &cfg.DatabaseUser, "the sample database user"},
		{"dbpass", &cfg.DatabasePass, "the sample database pass"},
		{"relayaddr", &cfg.RelayListenAddr, "the display relay listen address"},
		{"metricsaddr", &cfg.MetricsListenAddr, "the metrics listen address"},
		{"tickbuffersize", &cfg.TickBufferSize, "the tick buffer capacity"},
		{"warmupthreshold", &cfg.WarmupThreshold, "the warm-up tick threshold"},
		{"analyticsinterval", &cfg.AnalyticsInterval, "the analytics cadence in seconds"},
		{"barrier", &cfg.Barrier, "the initial barrier distance"},
		{"payoutpercent", &cfg.PayoutPercent, "the initial quoted payout percentage"},
		{"direction", &cfg.Direction, "the initial touch direction (up or down)"},
	} {
		err = cfg.registerFlag(reg.name, reg.value, reg.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
