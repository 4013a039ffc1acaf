package config

import (
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// EnvPrefix is prepended to the environment variable of each config field (i.e. DEPOT_TOOLS_UPDATE)
const EnvPrefix = "DEPOT_TOOLS"

// Config describes all configuration options
type Config struct {
	Update      string `default:"1" usage:"Set to 0 to disable the automatic update before each command"`
	RestartCode int    `default:"123" usage:"Exit code the update tool uses to request a restart"`
	Editor      string `usage:"Default for EDITOR if it isn't set already"`
	Table       string `usage:"Path to the launcher table (searched automatically if empty)"`
	Debug       bool   `default:"false" usage:"Include stack traces in error messages"`
	Log         struct {
		Level string `default:"warn"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
	}
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

var disabledValues = map[string]bool{
	"0":     true,
	"false": true,
	"no":    true,
	"off":   true,
}

// Loader initializes an empty config object and returns a new Loader for this object. files lists
// optional TOML files; missing files are ignored.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: EnvPrefix,
		// command line arguments belong to the launched tools
		SkipFlags: true,
		// the prefix is shared with plenty of variables consumed by the tools themselves
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the configuration from the environment and the given files and validates it
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "Failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, ok := logLevels[strings.ToLower(cfg.Log.Level)]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.RestartCode < 1 || cfg.RestartCode > 255 {
		return eris.Errorf(`Invalid value for restart_code: %d (must be between 1 and 255)`, cfg.RestartCode)
	}

	return nil
}

// UpdateEnabled interprets the .Update field. Only explicit negative values disable updates.
func (cfg *Config) UpdateEnabled() bool {
	return !disabledValues[strings.ToLower(strings.TrimSpace(cfg.Update))]
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[strings.ToLower(cfg.Log.Level)]
}
