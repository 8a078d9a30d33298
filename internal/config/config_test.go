package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/config"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daikinctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
device = "192.168.1.20"
interval = 30
timeout = 5
attempts = 2
resources = ["aircon/get_sensor_info", "aircon/get_week_power"]
log_level = "debug"
metrics = true
metrics_db = "/path/to/metrics.db"

[mqtt]
enabled = true
broker = "tcp://broker.lan:1883"
topic_prefix = "home/ac"
`)
	t.Setenv("DAIKINCTL_CONFIG", configPath)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.20", cfg.Device)
	assert.Equal(t, 30, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.IntervalDuration())
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 2, cfg.Attempts)
	assert.Equal(t, []string{"aircon/get_sensor_info", "aircon/get_week_power"}, cfg.Resources)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "/path/to/metrics.db", cfg.MetricsDB)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, "home/ac", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "daikinctl", cfg.MQTT.ClientID)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DAIKINCTL_DEVICE", "livingroom.lan")

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "livingroom.lan", cfg.Device)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, config.DefaultAttempts, cfg.Attempts)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, appliance.DefaultResources, cfg.Resources)
	assert.False(t, cfg.Metrics)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", writeConfig(t, `
device = "192.168.1.20"
interval = 30
`))
	t.Setenv("DAIKINCTL_INTERVAL", "15")
	t.Setenv("DAIKINCTL_MQTT_BROKER", "tcp://other:1883")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Interval)
	assert.Equal(t, "tcp://other:1883", cfg.MQTT.Broker)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", writeConfig(t, `
device = "192.168.1.20"
log_level = "error"
`))
	t.Setenv("DAIKINCTL_INTERVAL", "15")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug", "-i", "5", "--mqtt", "--mqtt-broker", "tcp://flag:1883"}))

	cfg, err := config.Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", cfg.Device)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Interval)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://flag:1883", cfg.MQTT.Broker)
}

func TestLoadUnsetFlagsKeepFileValues(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", writeConfig(t, `
device = "192.168.1.20"
interval = 30
`))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Interval)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", writeConfig(t, `
This is not a valid TOML file
`))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := config.Load(nil, config.WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Device:   "192.168.1.20",
		Interval: 60,
		Timeout:  10,
		Attempts: 3,
		LogLevel: "info",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
		code   errors.ErrorCode
	}{
		{"missing device", func(c *config.Config) { c.Device = "" }, errors.ErrMissingConfig},
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, errors.ErrInvalidInterval},
		{"negative timeout", func(c *config.Config) { c.Timeout = -1 }, errors.ErrInvalidConfig},
		{"zero attempts", func(c *config.Config) { c.Attempts = 0 }, errors.ErrInvalidConfig},
		{"bad log level", func(c *config.Config) { c.LogLevel = "invalid" }, errors.ErrInvalidLogLevel},
		{"metrics without db", func(c *config.Config) { c.Metrics = true }, errors.ErrMissingConfig},
		{"mqtt without broker", func(c *config.Config) { c.MQTT.Enabled = true }, errors.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code))
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("DAIKINCTL_CONFIG", writeConfig(t, `
device = "192.168.1.20"
log_level = "invalid"
`))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestLogLevelIsValid(t *testing.T) {
	assert.True(t, config.LogLevelWarning.IsValid())
	assert.False(t, config.LogLevel("verbose").IsValid())
}

func TestResourcesFlagDefaultsToApplianceList(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)

	got, err := fs.GetStringSlice("resources")
	require.NoError(t, err)
	assert.Equal(t, appliance.DefaultResources, got)
}
