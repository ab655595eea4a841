package config

import "time"

// Config is the root of the YAML configuration file. Environment
// variables named in the env tags override the file values.
type Config struct {
	TableName string `yaml:"table_name" env:"DYNAMODB_TABLE_NAME" validate:"required"`
	Region    string `yaml:"region" env:"AWS_REGION" validate:"required"`

	// Endpoint points the client at a local or alternative DynamoDB
	// endpoint. Empty means the regional default.
	Endpoint string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`

	MaxRetries int `yaml:"max_retries" env:"DYNAMODB_MAX_RETRIES" envDefault:"3" validate:"gte=0,lte=10"`
	TimeoutMs  int `yaml:"timeout_ms" env:"DYNAMODB_TIMEOUT_MS" envDefault:"5000" validate:"gt=0"`
	PoolSize   int `yaml:"pool_size" env:"DYNAMODB_POOL_SIZE" envDefault:"50" validate:"gt=0"`

	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`

	Migration MigrationConf `yaml:"migration"`
}

// LoggingConf selects the log level and output format.
type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// MetricsConf configures metric emission.
type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

// DatadogConf points at the local statsd agent.
type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE"`
}

// MigrationConf carries the relational source connection for batch
// migrations. Unused when no migration runs.
type MigrationConf struct {
	SourceType string `yaml:"source_type" env:"MIGRATION_SOURCE_TYPE" validate:"omitempty,oneof=sqlite postgresql"`
	SourceDSN  string `yaml:"source_dsn" env:"MIGRATION_SOURCE_DSN"`
	BatchSize  int    `yaml:"batch_size" env:"MIGRATION_BATCH_SIZE" envDefault:"100" validate:"gt=0,lte=1000"`
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
