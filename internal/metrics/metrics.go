package metrics

import (
	"context"

	"codeberg.org/mutker/rgbmond/internal/errors"
)

type service struct {
	repo Repository
	cfg  Config
}

// NewService builds a Collector from the configuration. A disabled
// configuration yields a collector that records nothing.
func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		return Disabled(), nil
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *TickSnapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, snapshot); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}

	return nil
}

type disabled struct{}

// Disabled returns a collector that drops every snapshot
func Disabled() Collector {
	return disabled{}
}

func (disabled) Record(context.Context, *TickSnapshot) error { return nil }

func (disabled) Close() error { return nil }
