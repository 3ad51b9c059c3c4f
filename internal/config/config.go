// Package config loads the server configuration from a YAML file, with
// environment overrides for the values that usually come from the
// deployment environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML strings such as
// "30s" or "15m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Server configures the TCP listener and admin console.
type Server struct {
	ListenAddr   string   `yaml:"listen_addr"`
	MenuFile     string   `yaml:"menu_file"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	LogLevel     string   `yaml:"log_level"`
}

// Database configures the Postgres ledger. With Enabled false the server
// runs on the in-memory ledger instead.
type Database struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// RabbitMQ configures the optional order-event publisher.
type RabbitMQ struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

// Config is the full application configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
}

// Load reads, decodes and validates the configuration at path.
func Load(path string) (Config, error) {
	cfg := defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: Server{
			ListenAddr:   "127.0.0.1:4545",
			MenuFile:     "menu.txt",
			ReadTimeout:  Duration(30 * time.Minute),
			WriteTimeout: Duration(10 * time.Second),
			LogLevel:     "info",
		},
		Database: Database{
			Port:     5432,
			SSLMode:  "disable",
			MaxConns: 10,
		},
		RabbitMQ: RabbitMQ{
			Port:  5672,
			VHost: "/",
		},
	}
}

// applyEnv overrides the values that are commonly injected through the
// environment (secrets and the bind address).
func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
}

func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.MenuFile == "" {
		return fmt.Errorf("server.menu_file is required")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
			return fmt.Errorf("database config incomplete: host, user and database are required")
		}
	}
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" || c.RabbitMQ.User == "" {
			return fmt.Errorf("rabbitmq config incomplete: host and user are required")
		}
	}
	return nil
}
