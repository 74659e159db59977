package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps configuration flags to their config keys. Flags not listed
// here belong to the caller and are ignored by Load.
var flagKeys = map[string]string{
	"db":         "db.path",
	"log-level":  "log.level",
	"log-format": "log.format",
	"prompt":     "shell.prompt",
	"seed":       "random.seed",
}

// NewFlagSet returns a flag set with the configuration flags registered.
// Callers may add their own flags before parsing it.
func NewFlagSet(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file (env "+envPrefix+"CONFIG)")
	f.String("db", defaultDBPath, "path to the SQLite database file")
	f.String("log-level", defaultLogLevel, "log level: debug, info, warn or error")
	f.String("log-format", defaultLogFormat, "log format: text or json")
	f.String("prompt", defaultPrompt, "interactive shell prompt")
	f.Uint64("seed", 0, "seed for random card draws (0 picks one at random)")
	return f
}

// LoadDotEnv loads environment variables from the given .env files.
// Missing files are skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration from the optional config file, the
// environment and the parsed flag set f. Flag defaults fill in whatever the
// other sources leave unset.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, err := f.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read config flag: %w", err)
	}
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey turns CARDBOX_DB_PATH into db.path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
}

func flagKey(f *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(fl *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[fl.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(f, fl)
	}
}
