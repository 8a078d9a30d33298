package metrics

import (
	"context"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
)

type service struct {
	repo   Repository
	cfg    Config
	logger logger.Logger
}

type noopCollector struct{}

// NewService returns a Collector backed by SQLite, or a no-op collector
// when recording is disabled.
func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	log = log.With("metrics")

	if !cfg.Enabled {
		log.Debug().Msg("Metrics collection disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Msg("Metrics service initialized successfully")

	return &service{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}, nil
}

func (s *service) Record(ctx context.Context, readings appliance.Readings) error {
	errFactory := errors.New()

	if readings.Device == "" || readings.Timestamp.IsZero() {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(NewSnapshot(readings)); err != nil {
			return errFactory.Wrap(ErrCollection, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (*noopCollector) Record(_ context.Context, _ appliance.Readings) error {
	return nil
}

func (*noopCollector) Close() error {
	return nil
}
