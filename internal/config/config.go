package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval  = 60
	DefaultTimeout   = 10
	DefaultAttempts  = 3
	DefaultLogLevel  = "info"
	DefaultMetricsDB = "/var/lib/daikinctl/metrics.db"
	DefaultEnvPrefix = "DAIKINCTL"

	configName = "daikinctl"
)

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
}

type Config struct {
	Device    string     `mapstructure:"device"`
	Interval  int        `mapstructure:"interval"`
	Timeout   int        `mapstructure:"timeout"`
	Attempts  int        `mapstructure:"attempts"`
	Resources []string   `mapstructure:"resources"`
	LogLevel  string     `mapstructure:"log_level"`
	Metrics   bool       `mapstructure:"metrics"`
	MetricsDB string     `mapstructure:"metrics_db"`
	MQTT      MQTTConfig `mapstructure:"mqtt"`
}

// flag name to config key, for names that differ
var flagKeys = map[string]string{
	"log-level":         "log_level",
	"metrics-db":        "metrics_db",
	"mqtt":              "mqtt.enabled",
	"mqtt-broker":       "mqtt.broker",
	"mqtt-username":     "mqtt.username",
	"mqtt-password":     "mqtt.password",
	"mqtt-topic-prefix": "mqtt.topic_prefix",
	"mqtt-client-id":    "mqtt.client_id",
}

// RegisterFlags defines the command line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("device", "d", "", "Appliance IP address or host name")
	fs.IntP("interval", "i", DefaultInterval, "Seconds between refreshes")
	fs.Int("timeout", DefaultTimeout, "HTTP timeout in seconds")
	fs.Int("attempts", DefaultAttempts, "Attempts per resource when the appliance drops the connection")
	fs.StringSlice("resources", slices.Clone(appliance.DefaultResources), "Resources polled on every refresh")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("metrics", false, "Record readings to the metrics database")
	fs.String("metrics-db", DefaultMetricsDB, "Path to the metrics database")
	fs.Bool("mqtt", false, "Publish readings over MQTT")
	fs.String("mqtt-broker", "", "MQTT broker host:port")
	fs.String("mqtt-username", "", "MQTT username")
	fs.String("mqtt-password", "", "MQTT password")
	fs.String("mqtt-topic-prefix", "daikinctl", "MQTT topic prefix")
	fs.String("mqtt-client-id", "daikinctl", "MQTT client id")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device", "")
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("attempts", DefaultAttempts)
	v.SetDefault("resources", slices.Clone(appliance.DefaultResources))
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", DefaultMetricsDB)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "daikinctl")
	v.SetDefault("mqtt.client_id", "daikinctl")
}

// Load reads the configuration from defaults, the config file, the
// environment and flags, in increasing priority. flags may be nil.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := o.configPath
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, bindErr)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Device == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "device")
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Timeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"timeout", c.Timeout})
	}
	if c.Attempts <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"attempts", c.Attempts})
	}
	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Metrics && c.MetricsDB == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "metrics_db")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "mqtt.broker")
	}

	return nil
}

func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
