package services

import (
	"context"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// Pruner drops idle state, such as rate limiter buckets. It reports how many
// entries were removed.
type Pruner interface {
	Prune() int
}

// Sweeper periodically deletes expired password reset codes.
type Sweeper struct {
	resets  domain.PasswordResetService
	pruners []Pruner
	period  time.Duration
	log     *zap.Logger
}

// NewSweeper creates a sweeper running every period.
func NewSweeper(resets domain.PasswordResetService, period time.Duration, log *zap.Logger, pruners ...Pruner) *Sweeper {
	if period <= 0 {
		period = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{resets: resets, pruners: pruners, period: period, log: log.Named("sweeper")}
}

// Run sweeps once right away and then every period until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.Sweep(ctx)
	}
}

// Sweep runs a single pass. Failures are logged.
func (s *Sweeper) Sweep(ctx context.Context) {
	n, err := s.resets.SweepExpired(ctx)
	if err != nil {
		s.log.Error("reset code sweep failed", zap.Error(err))
	} else if n > 0 {
		s.log.Info("expired reset codes removed", zap.Int64("count", n))
	}

	for _, p := range s.pruners {
		if pruned := p.Prune(); pruned > 0 {
			s.log.Debug("idle entries pruned", zap.Int("count", pruned))
		}
	}
}
