package config

// AWSConfig is only consulted when an API key is an "ssm:" reference.
type AWSConfig struct {
	Region string `mapstructure:"region"`
}
