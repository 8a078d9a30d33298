package main

import (
	"context"
	"fmt"
	"net"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/client"
	"codeberg.org/mutker/daikinctl/internal/config"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "daikinctl",
	Short: "Monitor a Daikin air conditioner",
	Long: `daikinctl polls a Daikin air conditioner over its local HTTP interface,
tracks its energy counters and derives the current power draw from them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var opts []config.Option
		if cfgFile != "" {
			opts = append(opts, config.WithConfigFile(cfgFile))
		}

		var err error
		cfg, err = config.Load(cmd.Flags(), opts...)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, _ := logger.ParseLevel(cfg.LogLevel)
		logger.Init(level, logger.IsService())
		logger.Debug().Str("device", cfg.Device).Msg("Config loaded")

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is /etc/daikinctl.toml)")
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// newAppliance resolves the configured device and wires an HTTP client to it.
func newAppliance(ctx context.Context, log logger.Logger) (*appliance.Appliance, error) {
	errFactory := errors.New()

	address, err := client.Discover(ctx, net.DefaultResolver, cfg.Device)
	if err != nil {
		return nil, err
	}

	c, err := client.New(client.Config{
		Address:  address,
		Timeout:  cfg.TimeoutDuration(),
		Attempts: cfg.Attempts,
	}, log)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	log.Debug().
		Str("device", cfg.Device).
		Str("address", address).
		Msg("Appliance resolved")

	return appliance.New(cfg.Device, c,
		appliance.WithLogger(log),
		appliance.WithResources(cfg.Resources...),
	), nil
}
