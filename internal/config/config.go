// Package config loads cardbox settings from defaults, an optional YAML file,
// CARDBOX_* environment variables and command-line flags, in that order of
// precedence.
package config

// Config holds all application configuration.
type Config struct {
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
	Shell  ShellConfig  `koanf:"shell"`
	Random RandomConfig `koanf:"random"`
}

// DBConfig locates the card database.
type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=text json"`
}

type ShellConfig struct {
	Prompt string `koanf:"prompt"`
}

// RandomConfig seeds card draws. Zero means a random seed.
type RandomConfig struct {
	Seed uint64 `koanf:"seed"`
}

const (
	envPrefix = "CARDBOX_"

	defaultDBPath    = "cardbox.db"
	defaultLogLevel  = "warn"
	defaultLogFormat = "text"
	defaultPrompt    = "> "
)
