// Package scheduler runs the periodic maturity settlement pass.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"investx/internal/logger"

	"github.com/robfig/cron/v3"
)

// Settler pays out due investments. accountID 0 means every account.
type Settler interface {
	SettleDue(ctx context.Context, accountID uint) (int, error)
}

const runTimeout = 5 * time.Minute

type Scheduler struct {
	cron    *cron.Cron
	settler Settler
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// New parses a standard five-field cron spec (or a descriptor such as "@every 5m").
// Overlapping runs are skipped rather than queued.
func New(spec string, settler Settler) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{settler: settler, ctx: ctx, cancel: cancel}
	l := cronLogger{}
	s.cron = cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("maturity cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("maturity scheduler started")
}

// Stop cancels an in-flight pass and waits for it to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.once.Do(func() {
		s.cancel()
		done := s.cron.Stop()
		select {
		case <-done.Done():
		case <-ctx.Done():
			logger.Warn().Msg("maturity scheduler did not stop in time")
		}
	})
}

// RunOnce settles everything that is due right now.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	start := time.Now()
	n, err := s.settler.SettleDue(ctx, 0)
	if err != nil {
		logger.Error().Err(err).Int("settled", n).Msg("maturity settlement pass failed")
		return n, err
	}
	ev := logger.Debug()
	if n > 0 {
		ev = logger.Info()
	}
	ev.Int("settled", n).Dur("took", time.Since(start)).Msg("maturity settlement pass")
	return n, nil
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
