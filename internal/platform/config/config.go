// Package config loads runtime configuration for the server.
// Values are populated from shift.yaml, SHIFT_* env vars, and CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP and WebSocket settings.
type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Profile string `mapstructure:"profile"`
}

// StorageConfig selects the snapshot repository backend.
type StorageConfig struct {
	Driver  string        `mapstructure:"driver"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig sizes the room snapshot cache.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// RulesConfig locates rule packs.
type RulesConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultPack string `mapstructure:"default_pack"`
	Watch       bool   `mapstructure:"watch"`
}

// GameConfig holds per-room game parameters.
type GameConfig struct {
	BoardLength        int `mapstructure:"board_length"`
	MaxPlayers         int `mapstructure:"max_players"`
	MaxChainIterations int `mapstructure:"max_chain_iterations"`
}

// Config holds all runtime configuration of one server process.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Game    GameConfig    `mapstructure:"game"`
	Debug   bool          `mapstructure:"debug"`
}

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.profile", "default")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "shift.db")
	v.SetDefault("storage.timeout", 2*time.Second)
	v.SetDefault("cache.size", 256)
	v.SetDefault("rules.dir", "rules")
	v.SetDefault("rules.default_pack", "classic")
	v.SetDefault("rules.watch", false)
	v.SetDefault("game.board_length", 20)
	v.SetDefault("game.max_players", 2)
	v.SetDefault("game.max_chain_iterations", 10)
	v.SetDefault("debug", false)
}

// Load reads configuration. path may be empty, in which case shift.yaml is
// looked up in the working directory and its absence is not an error.
// flags, when non-nil, are bound by their dotted names (e.g. "server.addr").
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("shift")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalid, c.Storage.Driver)
	}
	if c.Storage.Driver != DriverMemory && c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for %s", ErrInvalid, c.Storage.Driver)
	}
	if c.Game.BoardLength < 2 {
		return fmt.Errorf("%w: game.board_length must be at least 2", ErrInvalid)
	}
	if c.Game.MaxPlayers < 1 {
		return fmt.Errorf("%w: game.max_players must be positive", ErrInvalid)
	}
	if c.Game.MaxChainIterations < 1 {
		return fmt.Errorf("%w: game.max_chain_iterations must be positive", ErrInvalid)
	}
	if _, ok := profiles[c.Server.Profile]; !ok {
		return fmt.Errorf("%w: unknown profile %q", ErrInvalid, c.Server.Profile)
	}
	return nil
}

// Tuning holds buffer and pool sizes for a load profile.
type Tuning struct {
	// Channel buffer sizes
	BroadcastBuffer  int
	ClientSendBuffer int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	MaxMessagesPerSecond int
}

var profiles = map[string]func() Tuning{
	"default": func() Tuning {
		numCPU := runtime.NumCPU()
		return Tuning{
			BroadcastBuffer:      256,
			ClientSendBuffer:     64,
			DBMaxOpenConns:       numCPU * 4,
			DBMaxIdleConns:       numCPU * 2,
			MaxMessagesPerSecond: 20,
		}
	},
	"stress": func() Tuning {
		numCPU := runtime.NumCPU()
		return Tuning{
			BroadcastBuffer:      1024,
			ClientSendBuffer:     256,
			DBMaxOpenConns:       numCPU * 8,
			DBMaxIdleConns:       numCPU * 4,
			MaxMessagesPerSecond: 200,
		}
	},
	"low": func() Tuning {
		return Tuning{
			BroadcastBuffer:      16,
			ClientSendBuffer:     8,
			DBMaxOpenConns:       2,
			DBMaxIdleConns:       1,
			MaxMessagesPerSecond: 5,
		}
	},
}

// Tuning returns the sizes for the configured profile.
func (c *Config) Tuning() Tuning {
	if p, ok := profiles[c.Server.Profile]; ok {
		return p()
	}
	return profiles["default"]()
}
