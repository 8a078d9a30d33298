package publisher

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultTopicPrefix = "daikinctl"
	defaultClientID    = "daikinctl"
	connectTimeout     = 10 * time.Second
	disconnectQuiesce  = 250
)

type Config struct {
	Enabled     bool
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	ClientID    string
	QoS         byte
	Retain      bool
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "MQTT broker address is required when enabled")
	}
	if c.QoS > 2 {
		return errFactory.WithData(ErrInvalidConfig, c.QoS)
	}
	return nil
}

// Publisher sends appliance readings to a broker.
type Publisher interface {
	Publish(ctx context.Context, readings appliance.Readings) error
	Close()
}

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type mqttPublisher struct {
	client mqttClient
	cfg    Config
	logger logger.Logger
}

type noopPublisher struct{}

// New connects to the configured broker. A disabled config yields a
// publisher that drops everything.
func New(cfg Config, log logger.Logger) (Publisher, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log = log.With("publisher")

	if !cfg.Enabled {
		log.Debug().Msg("MQTT publishing disabled, using no-op publisher")
		return noopPublisher{}, nil
	}

	cfg = withDefaults(cfg)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errFactory.WithMessage(ErrConnect, "timed out connecting to "+cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errFactory.Wrap(ErrConnect, err)
	}

	log.Info().
		Str("broker", cfg.Broker).
		Str("topic_prefix", cfg.TopicPrefix).
		Msg("Connected to MQTT broker")

	return newMQTTPublisher(client, cfg, log), nil
}

func newMQTTPublisher(client mqttClient, cfg Config, log logger.Logger) *mqttPublisher {
	return &mqttPublisher{
		client: client,
		cfg:    withDefaults(cfg),
		logger: log,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}
	return cfg
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Publish sends every message built from readings and stops at the first
// failure.
func (p *mqttPublisher) Publish(ctx context.Context, readings appliance.Readings) error {
	errFactory := errors.New()

	msgs, err := Messages(p.cfg.TopicPrefix, readings)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		token := p.client.Publish(msg.Topic, p.cfg.QoS, p.cfg.Retain, msg.Payload)
		select {
		case <-ctx.Done():
			return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
		case <-token.Done():
		}
		if err := token.Error(); err != nil {
			return errFactory.Wrap(ErrPublish, err).WithMessage("publish " + msg.Topic)
		}
	}

	p.logger.Debug().
		Str("device", readings.Device).
		Int("messages", len(msgs)).
		Msg("Published readings")

	return nil
}

// Close disconnects from the broker
func (p *mqttPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
}

func (noopPublisher) Publish(_ context.Context, _ appliance.Readings) error {
	return nil
}

func (noopPublisher) Close() {}
