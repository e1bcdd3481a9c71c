package config

// Default configuration values.
const (
	DefaultSeedsDir  = "seeds"
	DefaultStateFile = ".bankdw/state.db"
	DefaultEnv       = "dev"
	DefaultSchema    = "warehouse"

	DefaultTargetType = "sqlite"
	DefaultTargetPath = "bankdw.db"
)

// ApplyTargetDefaults fills in type-specific defaults on a target.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	switch t.Type {
	case "sqlite", "duckdb":
		if t.Path == "" {
			t.Path = DefaultTargetPath
		}
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
	}
}

// MergeTargetConfig overlays the override target onto the base target.
// Unset override fields keep the base value.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Username != "" {
		merged.Username = override.Username
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if len(override.Options) > 0 {
		merged.Options = override.Options
	}
	return &merged
}
