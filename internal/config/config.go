package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Year bounds of the archive. The year control never leaves this range.
const (
	MinYear = 2000
	MaxYear = 2022
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourcePath      string
	SourceTimeout   time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DefaultYear int
	// PlaybackInterval advances the timestamp index on a timer when positive.
	// Zero leaves playback off.
	PlaybackInterval time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// ExportPath receives a Parquet copy of the normalized points after load.
	// Empty disables the export.
	ExportPath string

	// Mapbox reverse geocoding for tooltip place names.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	playback, err := time.ParseDuration(sharedcfg.EnvOrDefault("PLAYBACK_INTERVAL", "0s"))
	if err != nil || playback < 0 {
		return nil, errors.New("invalid PLAYBACK_INTERVAL")
	}

	defaultYear, err := parseDefaultYear()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	brokersRaw := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokersRaw != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}
	if brokersRaw == "" {
		brokersRaw = "localhost:9092"
	}

	cfg := &Config{
		SourcePath:       sharedcfg.EnvOrDefault("SOURCE_PATH", "data/cyclones.json"),
		SourceTimeout:    sourceTimeout,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		DefaultYear:      defaultYear,
		PlaybackInterval: playback,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(brokersRaw),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "cyclone-observations"),

		ExportPath: os.Getenv("EXPORT_PATH"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.SourcePath == "" {
		return nil, errors.New("SOURCE_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseDefaultYear() (int, error) {
	s := sharedcfg.EnvOrDefault("DEFAULT_YEAR", strconv.Itoa(MinYear))
	y, err := strconv.Atoi(s)
	if err != nil || y < MinYear || y > MaxYear {
		return 0, fmt.Errorf("invalid DEFAULT_YEAR: must be between %d and %d", MinYear, MaxYear)
	}
	return y, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
