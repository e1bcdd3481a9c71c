package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for environment variable overrides.
// BANKDW_STATE_PATH sets state_path; a double underscore descends into
// nested keys, so BANKDW_TARGET__TYPE sets target.type.
const envPrefix = "BANKDW_"

// findConfigFile finds the config file to use.
// Priority: explicit path > bankdw.yaml > bankdw.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"bankdw.yaml", "bankdw.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir unless it is
// empty, absolute, or ":memory:".
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"seeds_dir":   DefaultSeedsDir,
		"state_path":  DefaultStateFile,
		"environment": DefaultEnv,
		"schema":      DefaultSchema,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "state":
				key = "state_path"
			case "target":
				key = "target.type"
			case "database":
				key = "target.path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Environment-specific overrides.
	if cfg.Environment != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[cfg.Environment]; ok {
			if envCfg.SeedsDir != "" {
				cfg.SeedsDir = envCfg.SeedsDir
			}
			if envCfg.StatePath != "" {
				cfg.StatePath = envCfg.StatePath
			}
			if envCfg.Schema != "" {
				cfg.Schema = envCfg.Schema
			}
			if envCfg.Target != nil {
				cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
			}
		}
	}

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{Type: DefaultTargetType}
	}
	if cfg.Target.Type == "" {
		cfg.Target.Type = DefaultTargetType
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	// Resolve paths relative to the config file's directory.
	baseDir := "."
	if configFile != "" {
		if abs, err := filepath.Abs(configFile); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}
	cfg.SeedsDir = resolvePathRelativeTo(cfg.SeedsDir, baseDir)
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, baseDir)
	cfg.CityRules = resolvePathRelativeTo(cfg.CityRules, baseDir)
	cfg.Target.Path = resolvePathRelativeTo(cfg.Target.Path, baseDir)

	return &cfg, nil
}

// expandTargetEnvVars expands ${VAR} references so credentials can stay
// out of the config file.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Host = os.ExpandEnv(t.Host)
	t.Database = os.ExpandEnv(t.Database)
	t.Username = os.ExpandEnv(t.Username)
	t.Password = os.ExpandEnv(t.Password)
	for key, value := range t.Options {
		t.Options[key] = os.ExpandEnv(value)
	}
}
