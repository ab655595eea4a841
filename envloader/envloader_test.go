package envloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	type Config struct {
		TableName string `env:"TABLE_NAME" envDefault:"app-table"`
		Region    string `env:"AWS_REGION" envDefault:"us-east-1"`
	}

	config := &Config{}
	err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, "app-table", config.TableName)
	assert.Equal(t, "us-east-1", config.Region)
}

func TestLoad_EnvironmentOverridesDefault(t *testing.T) {
	type Config struct {
		TableName string `env:"TABLE_NAME" envDefault:"app-table"`
	}

	t.Setenv("TABLE_NAME", "staging-table")

	config := &Config{}
	err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, "staging-table", config.TableName)
}

func TestLoad_TypedFields(t *testing.T) {
	type Config struct {
		MaxRetries int     `env:"MAX_RETRIES" envDefault:"3"`
		TimeoutMs  int64   `env:"TIMEOUT_MS" envDefault:"5000"`
		PoolSize   uint    `env:"POOL_SIZE" envDefault:"50"`
		Rate       float64 `env:"SAMPLE_RATE" envDefault:"0.25"`
		Enabled    bool    `env:"METRICS_ENABLED" envDefault:"true"`
	}

	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("METRICS_ENABLED", "false")

	config := &Config{}
	err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, 5, config.MaxRetries)
	assert.Equal(t, int64(5000), config.TimeoutMs)
	assert.Equal(t, uint(50), config.PoolSize)
	assert.Equal(t, 0.25, config.Rate)
	assert.False(t, config.Enabled)
}

func TestLoad_NestedStructs(t *testing.T) {
	type Datadog struct {
		Addr      string `env:"DD_AGENT_HOST" envDefault:"localhost:8125"`
		Namespace string `env:"DD_NAMESPACE"`
	}
	type Config struct {
		Datadog Datadog
		Table   string `env:"TABLE_NAME" envDefault:"app-table"`
	}

	t.Setenv("DD_NAMESPACE", "storage")

	config := &Config{}
	err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8125", config.Datadog.Addr)
	assert.Equal(t, "storage", config.Datadog.Namespace)
	assert.Equal(t, "app-table", config.Table)
}

func TestLoad_FieldsWithoutTagKeepTheirValue(t *testing.T) {
	type Config struct {
		Table string `env:"TABLE_NAME" envDefault:"app-table"`
		Note  string
	}

	config := &Config{Note: "untouched"}
	err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, "app-table", config.Table)
	assert.Equal(t, "untouched", config.Note)
}

func TestLoad_InvalidConfig(t *testing.T) {
	err := Load("not-a-pointer")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pointer to struct")

	var n int
	err = Load(&n)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pointer to struct")
}

func TestLoad_ConversionError(t *testing.T) {
	type Config struct {
		MaxRetries int `env:"MAX_RETRIES" envDefault:"not-a-number"`
	}

	config := &Config{}
	err := Load(config)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "error setting field MaxRetries")

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "MAX_RETRIES", fieldErr.EnvVar)
}

func TestMustLoad(t *testing.T) {
	type Config struct {
		Table string `env:"TABLE_NAME" envDefault:"app-table"`
	}

	config := &Config{}
	assert.NotPanics(t, func() { MustLoad(config) })
	assert.Equal(t, "app-table", config.Table)

	assert.Panics(t, func() { MustLoad("not-a-pointer") })
}
