package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the backend's runtime settings. Values are resolved in
// ascending precedence: built-in defaults, config file, LANCAM_* environment
// variables, command line flags.
type Config struct {
	APIListenAddr  string        `mapstructure:"api_listen_addr"`
	WSListenAddr   string        `mapstructure:"ws_listen_addr"`
	LogLevel       string        `mapstructure:"log_level"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("lancam", pflag.ContinueOnError)
	fs.StringP("api-listen-addr", "a", ":8080", "api listen address")
	fs.StringP("ws-listen-addr", "w", ":8888", "websocket signaling listen address")
	fs.StringP("log-level", "l", "debug", "log level")
	cfgFile := fs.StringP("config", "c", "", "path to yaml config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse command line arguments: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("api_listen_addr", ":8080")
	v.SetDefault("ws_listen_addr", ":8888")
	v.SetDefault("log_level", "debug")
	v.SetDefault("max_message_size", 65536)
	v.SetDefault("ping_interval", "5s")
	v.SetDefault("send_buffer", 64)

	v.SetEnvPrefix("LANCAM")
	v.AutomaticEnv()

	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, flag := range map[string]string{
		"api_listen_addr": "api-listen-addr",
		"ws_listen_addr":  "ws-listen-addr",
		"log_level":       "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
