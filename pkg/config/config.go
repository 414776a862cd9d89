// Package config loads the agent's TOML configuration file (spec.md §6)
// into typed structs, grounded on the teacher's pkg/config pattern of a
// package-level *viper.Viper driving a typed load function with
// viper.SetDefault for optional fields.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the top-level configuration object (spec.md §6).
type Config struct {
	General GeneralConfig
	Buffer  BufferConfig
	Shipper ShipperConfig
	Watcher WatcherConfig
	Parser  ParserConfig
}

// GeneralConfig is the `[general]` table.
type GeneralConfig struct {
	EnableLocalMode   bool
	EnableNetworkMode bool
}

// DurabilityKind discriminates the Buffer's write-through mode.
type DurabilityKind string

const (
	DurabilityInMemory DurabilityKind = "in-memory"
	DurabilitySQLite   DurabilityKind = "sqlite"
)

// DurabilityConfig is the `{ type = "...", path = "..." }` discriminator.
type DurabilityConfig struct {
	Type DurabilityKind
	// Path is the sqlite database file; set only when Type is sqlite.
	Path string
}

// CapacityOption discriminates whether the Buffer's queue is bounded.
type CapacityOption string

const (
	CapacityBounded   CapacityOption = "bounded"
	CapacityUnbounded CapacityOption = "unbounded"
)

// OverflowPolicy governs push() behavior when a bounded queue is full.
type OverflowPolicy string

const (
	OverflowDropNewest   OverflowPolicy = "drop_newest"
	OverflowDropOldest   OverflowPolicy = "drop_oldest"
	OverflowBlock        OverflowPolicy = "block_with_backpressure"
	OverflowGrowCapacity OverflowPolicy = "grow_capacity"
)

// FlushPolicy governs when flush() fires.
type FlushPolicy string

const (
	FlushBatchSize    FlushPolicy = "batch_size"
	FlushBatchTimeout FlushPolicy = "batch_timeout"
	FlushHybrid       FlushPolicy = "hybrid_size_timeout"
)

// DrainPolicy governs how much to remove from the queue after a flush.
type DrainPolicy string

const (
	DrainAll          DrainPolicy = "drain_all"
	DrainBatchSize    DrainPolicy = "drain_batch_size"
	DrainBatchTimeout DrainPolicy = "drain_batch_timeout"
)

// BufferConfig is the `[buffer]` table (spec.md §4.4).
type BufferConfig struct {
	CapacityOption CapacityOption
	BufferCapacity uint64
	BatchSize      int
	BatchTimeoutMs uint64
	Durability     DurabilityConfig
	OverflowPolicy OverflowPolicy
	FlushPolicy    FlushPolicy
	DrainPolicy    DrainPolicy
}

// ShipperConfig is the `[shipper]` table.
type ShipperConfig struct {
	EmbedderTargetAddr  string
	ConnectionTimeoutMs uint64
	// MaxReconnectAttempts is 0 when unset, meaning unlimited.
	MaxReconnectAttempts uint64
	InitialRetryDelayMs  uint64
	MaxRetryDelayMs      uint64
	BackoffFactor        float64
	RetryJitter          float64
	SendTimeoutMs        uint64
	ResponseTimeoutMs    uint64
}

// WatcherConfig is the `[watcher]` table.
type WatcherConfig struct {
	Enabled        bool
	LogDir         string
	CheckpointPath string
	PollIntervalMs uint64
	Recursive      bool
}

// ParserConfig is the `[parser]` table, reserved for future extension
// (spec.md §6).
type ParserConfig struct{}

// Load reads and parses the TOML file at path, applying the same defaults
// the teacher's buildMainConfig sets with viper.SetDefault.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("watcher.poll_interval_ms", 5000)
	v.SetDefault("watcher.recursive", false)
	v.SetDefault("buffer.overflow_policy", string(OverflowBlock))
	v.SetDefault("buffer.flush_policy", string(FlushHybrid))
	v.SetDefault("buffer.drain_policy", string(DrainBatchSize))
	v.SetDefault("shipper.connection_timeout_ms", 5000)
	v.SetDefault("shipper.send_timeout_ms", 5000)
	v.SetDefault("shipper.response_timeout_ms", 5000)
	v.SetDefault("shipper.backoff_factor", 2.0)
	v.SetDefault("shipper.retry_jitter", 0.1)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{
		General: GeneralConfig{
			EnableLocalMode:   v.GetBool("general.enable_local_mode"),
			EnableNetworkMode: v.GetBool("general.enable_network_mode"),
		},
		Buffer: BufferConfig{
			CapacityOption: CapacityOption(v.GetString("buffer.capacity_option")),
			BufferCapacity: v.GetUint64("buffer.buffer_capacity"),
			BatchSize:      v.GetInt("buffer.batch_size"),
			BatchTimeoutMs: v.GetUint64("buffer.batch_timeout_ms"),
			Durability: DurabilityConfig{
				Type: DurabilityKind(v.GetString("buffer.durability.type")),
				Path: v.GetString("buffer.durability.path"),
			},
			OverflowPolicy: OverflowPolicy(v.GetString("buffer.overflow_policy")),
			FlushPolicy:    FlushPolicy(v.GetString("buffer.flush_policy")),
			DrainPolicy:    DrainPolicy(v.GetString("buffer.drain_policy")),
		},
		Shipper: ShipperConfig{
			EmbedderTargetAddr:   v.GetString("shipper.embedder_target_addr"),
			ConnectionTimeoutMs:  v.GetUint64("shipper.connection_timeout_ms"),
			MaxReconnectAttempts: v.GetUint64("shipper.max_reconnect_attempts"),
			InitialRetryDelayMs:  v.GetUint64("shipper.initial_retry_delay_ms"),
			MaxRetryDelayMs:      v.GetUint64("shipper.max_retry_delay_ms"),
			BackoffFactor:        v.GetFloat64("shipper.backoff_factor"),
			RetryJitter:          v.GetFloat64("shipper.retry_jitter"),
			SendTimeoutMs:        v.GetUint64("shipper.send_timeout_ms"),
			ResponseTimeoutMs:    v.GetUint64("shipper.response_timeout_ms"),
		},
		Watcher: WatcherConfig{
			Enabled:        v.GetBool("watcher.enabled"),
			LogDir:         v.GetString("watcher.log_dir"),
			CheckpointPath: v.GetString("watcher.checkpoint_path"),
			PollIntervalMs: v.GetUint64("watcher.poll_interval_ms"),
			Recursive:      v.GetBool("watcher.recursive"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configuration errors at load time (spec.md §7:
// "Configuration error: invalid enum value -> refuse to start; surface the
// offending field").
func (c *Config) validate() error {
	switch c.Buffer.CapacityOption {
	case CapacityBounded, CapacityUnbounded:
	default:
		return fmt.Errorf("config: buffer.capacity_option: invalid value %q", c.Buffer.CapacityOption)
	}
	switch c.Buffer.Durability.Type {
	case DurabilityInMemory:
	case DurabilitySQLite:
		if c.Buffer.Durability.Path == "" {
			return fmt.Errorf("config: buffer.durability.path: required when type is sqlite")
		}
	default:
		return fmt.Errorf("config: buffer.durability.type: invalid value %q", c.Buffer.Durability.Type)
	}
	switch c.Buffer.OverflowPolicy {
	case OverflowDropNewest, OverflowDropOldest, OverflowBlock, OverflowGrowCapacity:
	default:
		return fmt.Errorf("config: buffer.overflow_policy: invalid value %q", c.Buffer.OverflowPolicy)
	}
	switch c.Buffer.FlushPolicy {
	case FlushBatchSize, FlushBatchTimeout, FlushHybrid:
	default:
		return fmt.Errorf("config: buffer.flush_policy: invalid value %q", c.Buffer.FlushPolicy)
	}
	switch c.Buffer.DrainPolicy {
	case DrainAll, DrainBatchSize, DrainBatchTimeout:
	default:
		return fmt.Errorf("config: buffer.drain_policy: invalid value %q", c.Buffer.DrainPolicy)
	}
	if c.Watcher.Enabled && c.Watcher.LogDir == "" {
		return fmt.Errorf("config: watcher.log_dir: required when watcher.enabled is true")
	}
	return nil
}
