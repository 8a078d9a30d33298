package metrics

import (
	"time"

	"codeberg.org/mutker/daikinctl/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultBatchSize    = 10
	defaultBatchTimeout = 5 * time.Minute
)

type Config struct {
	DBPath  string
	Enabled bool
	// BatchSize is the number of buffered snapshots that triggers a flush.
	// Values below 1 flush on every Record.
	BatchSize int
	// BatchTimeout flushes a partial batch periodically. Zero disables the
	// background flusher.
	BatchTimeout time.Duration
}

func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:       dbPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// DBPath only matters when recording
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, c.BatchTimeout)
	}
	return nil
}
