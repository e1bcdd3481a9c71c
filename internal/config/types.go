// Package config provides configuration management for the warehouse
// builder CLI. Values come from, in rising precedence, built-in defaults,
// a bankdw.yaml file, BANKDW_-prefixed environment variables, and CLI
// flags.
package config

import "github.com/datamaghreb/bankdw/internal/adapter"

// TargetConfig describes the warehouse database to build into.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// AdapterConfig converts the target into an adapter connection config.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.Username,
		Password: t.Password,
		Options:  t.Options,
	}
}

// Config holds all CLI configuration options.
type Config struct {
	SeedsDir     string               `koanf:"seeds_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Schema       string               `koanf:"schema"`
	CityRules    string               `koanf:"city_rules"`
	Verbose      bool                 `koanf:"verbose"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SeedsDir  string        `koanf:"seeds_dir"`
	StatePath string        `koanf:"state_path"`
	Schema    string        `koanf:"schema"`
	Target    *TargetConfig `koanf:"target"`
}
