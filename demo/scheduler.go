package demo

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner runs one demo
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

/* Scheduler re-runs the demo on a cron schedule.
 * A run still in progress when the next one is due causes that one
 * to be skipped.
 */
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses a standard 5-field expression or a descriptor
// such as "@every 10m"
func NewScheduler(expression string, runner Runner, logger zerolog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(expression, s.runOnce); err != nil {
		return nil, fmt.Errorf("parsing cron expression: %w", err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	report, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("steps", len(report.Steps)).Msg("scheduled demo run failed")
		return
	}
	s.logger.Info().Int("steps", len(report.Steps)).Msg("scheduled demo run succeeded")
}

// Start runs the scheduler in its own goroutine until ctx is done or
// Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
}

// Stop cancels the running job's context and waits for it to return
// or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
