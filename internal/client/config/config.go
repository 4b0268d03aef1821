package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the bookkeeper CLI.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	Username           string
	// MaxMessageSize bounds a single gRPC message in either direction.
	MaxMessageSize int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 30 * time.Second
	c.Username = ""
	c.MaxMessageSize = 64 << 20
}

var lookupEnv = os.LookupEnv

// LoadConfig applies defaults, then the JSON file selected with -c/-config
// in args, then BOOKKEEPER_SERVER_ADDR, BOOKKEEPER_TIMEOUT, BOOKKEEPER_USER
// and BOOKKEEPER_MAX_MESSAGE_SIZE. Command flags are bound on top of the result by the CLI.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("BOOKKEEPER_SERVER_ADDR"); ok {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := lookup("BOOKKEEPER_USER"); ok {
		cfg.Username = v
	}
	if v, ok := lookup("BOOKKEEPER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BOOKKEEPER_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup("BOOKKEEPER_MAX_MESSAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BOOKKEEPER_MAX_MESSAGE_SIZE: %w", err)
		}
		cfg.MaxMessageSize = n
	}
	return nil
}
