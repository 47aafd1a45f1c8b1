package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		Root            string        `mapstructure:"root"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Watch struct {
		Interval time.Duration `mapstructure:"interval"`
		Notify   bool          `mapstructure:"notify"`
	} `mapstructure:"watch"`

	Stream struct {
		PingInterval time.Duration `mapstructure:"ping_interval"`
	} `mapstructure:"stream"`

	Log struct {
		Level  string `mapstructure:"level"`
		Access bool   `mapstructure:"access"`
	} `mapstructure:"log"`
}

// flagKeys maps command line flag names onto config keys.
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"root":      "server.root",
	"notify":    "watch.notify",
	"log-level": "log.level",
}

// Load reads defaults, an optional YAML file, LIVESERVE_* env vars and any
// flags in fs that the user actually set, in increasing precedence.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.root", ".")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("watch.interval", 400*time.Millisecond)
	v.SetDefault("watch.notify", false)
	v.SetDefault("stream.ping_interval", 25*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.access", true)

	// Env overrides
	v.SetEnvPrefix("LIVESERVE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.Root == "" {
		return fmt.Errorf("server.root is required")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	if c.Stream.PingInterval <= 0 {
		return fmt.Errorf("stream.ping_interval must be positive, got %s", c.Stream.PingInterval)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Addr is the listen address for net.Listen.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL is the address printed for humans; an empty host means every interface.
func (c *Config) URL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}
