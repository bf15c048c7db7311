// Package monitor drives the periodic risk sweep over trading accounts.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/internal/metrics"
	"github.com/MAHD04/Risk-Control-System/pkg/models"
)

// AccountSource yields the accounts that qualify for sweeping.
type AccountSource interface {
	Enabled(ctx context.Context) ([]models.Account, error)
}

// Evaluator runs one account against the active rules.
type Evaluator interface {
	EvaluateAccount(ctx context.Context, account *models.Account) ([]models.Incident, error)
}

// Sweeper periodically evaluates every enabled account. Accounts are
// fault-isolated from each other: one failing evaluation is logged and
// the sweep moves on.
type Sweeper struct {
	logger   *zap.Logger
	accounts AccountSource
	engine   Evaluator
	interval time.Duration
}

func NewSweeper(logger *zap.Logger, accounts AccountSource, engine Evaluator, interval time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		accounts: accounts,
		engine:   engine,
		interval: interval,
	}
}

// Run executes sweeps on the configured interval until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("risk sweep started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("risk sweep stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full sweep over all qualifying accounts.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	accounts, err := s.accounts.Enabled(ctx)
	if err != nil {
		s.logger.Error("failed to load accounts for sweep", zap.Error(err))
		return
	}

	s.logger.Debug("sweeping accounts", zap.Int("count", len(accounts)))

	for i := range accounts {
		account := &accounts[i]
		if err := s.sweepAccount(ctx, account); err != nil {
			metrics.SweepFailures.Inc()
			s.logger.Error("account sweep failed, continuing",
				zap.String("account_id", account.ID.String()),
				zap.Int64("login", account.Login),
				zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// sweepAccount isolates one account's evaluation, converting panics into
// errors so a single bad account cannot abort the sweep.
func (s *Sweeper) sweepAccount(ctx context.Context, account *models.Account) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()

	incidents, err := s.engine.EvaluateAccount(ctx, account)
	if err != nil {
		return err
	}
	if len(incidents) > 0 {
		s.logger.Warn("violations found during sweep",
			zap.Int64("login", account.Login),
			zap.Int("incidents", len(incidents)))
	}
	return nil
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic during account evaluation: %v", p.value)
}
