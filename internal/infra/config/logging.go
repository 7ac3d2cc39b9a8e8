package config

// LoggingConfig controls the slog handler built at startup.
type LoggingConfig struct {
	Level      string `mapstructure:"level"      validate:"oneof=debug info warn warning error"`
	Structured bool   `mapstructure:"structured"`
	RequestID  bool   `mapstructure:"request_id"`
}
