package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
	"codeberg.org/mutker/daikinctl/internal/metrics"
	"codeberg.org/mutker/daikinctl/internal/pid"
	"codeberg.org/mutker/daikinctl/internal/publisher"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var pidDir string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the appliance and report its readings",
	Long: `Refreshes the appliance every interval, logs the derived readings and
optionally records them to SQLite and publishes them over MQTT.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&pidDir, "pid-dir", "", "directory of the PID file (default is the temp directory)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	errFactory := errors.New()

	pidFile := pid.New(pidDir)
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go handleSignals(ctx, cancel)

	log := logger.Default()

	dev, err := newAppliance(ctx, log)
	if err != nil {
		return err
	}

	mcfg := metrics.DefaultConfig(cfg.MetricsDB)
	mcfg.Enabled = cfg.Metrics
	collector, err := metrics.NewService(mcfg, log)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metrics")
		}
	}()

	pub, err := publisher.New(publisher.Config{
		Enabled:     cfg.MQTT.Enabled,
		Broker:      cfg.MQTT.Broker,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		ClientID:    cfg.MQTT.ClientID,
	}, log)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitPublisher, err)
	}
	defer pub.Close()

	logger.Info().
		Str("device", cfg.Device).
		Dur("interval", cfg.IntervalDuration()).
		Bool("metrics", cfg.Metrics).
		Bool("mqtt", cfg.MQTT.Enabled).
		Msg("Monitoring appliance")

	m := &monitor{
		dev:       dev,
		collector: collector,
		publisher: pub,
		logger:    log,
	}
	m.run(ctx, cfg.IntervalDuration())

	logger.Info().Msg("Exiting...")
	return nil
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

type monitor struct {
	dev       *appliance.Appliance
	collector metrics.Collector
	publisher publisher.Publisher
	logger    logger.Logger
}

// run refreshes immediately and then on every tick until ctx is done.
func (m *monitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

// refresh runs one poll. Failures are logged and the next tick retries.
func (m *monitor) refresh(ctx context.Context) {
	if err := m.dev.Update(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn().
			Err(err).
			Str("device", m.dev.DeviceID()).
			Msg("Appliance refresh failed")
		return
	}

	r := m.dev.Readings()
	logReadings(m.logger.Info().Event, r)

	if err := m.collector.Record(ctx, r); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to record readings")
	}
	if err := m.publisher.Publish(ctx, r); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to publish readings")
	}
}

func logReadings(ev *zerolog.Event, r appliance.Readings) {
	ev = ev.Str("device", r.Device)
	ev = withReading(ev, "inside_temperature", r.InsideTemperature)
	ev = withReading(ev, "outside_temperature", r.OutsideTemperature)
	ev = withReading(ev, "target_temperature", r.TargetTemperature)
	for _, cat := range appliance.Categories {
		e := r.Energy[cat]
		ev = withReading(ev, cat.String()+"_energy_today", e.Today)
		ev = withReading(ev, cat.String()+"_energy_yesterday", e.Yesterday)
	}
	ev = withReading(ev, "total_power", r.TotalPower)
	ev = withReading(ev, "cool_power", r.CoolPower)
	ev = withReading(ev, "heat_power", r.HeatPower)
	ev.Msg("Appliance readings")
}

func withReading(ev *zerolog.Event, key string, r appliance.Reading) *zerolog.Event {
	if !r.Valid {
		return ev
	}
	return ev.Float64(key, r.Value)
}
