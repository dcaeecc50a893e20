package scheduler

import (
	"context"
	"fmt"
	"time"

	"protegeya-backend/internal/application/accounts"
	"protegeya-backend/internal/application/brokers"
	"protegeya-backend/internal/config"
	"protegeya-backend/internal/infrastructure/lock"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job names double as lock names, so manual runs and cron runs exclude each other.
const (
	JobGenerateCharges = "generate-charges"
	JobCheckOverdue    = "check-overdue"
	JobResetLeads      = "reset-monthly-leads"
)

// LockTTL bounds how long a crashed run can block the next one.
const LockTTL = 10 * time.Minute

type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	locker lock.Locker
}

func New(loc *time.Location, locker lock.Locker) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		locker: locker,
	}
}

// Add registers job under its cron spec (standard 5-field syntax or descriptors like @daily).
func (s *Scheduler) Add(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() { _ = s.RunJob(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	log.Info().Str("job", job.Name).Str("spec", job.Spec).Msg("job scheduled")
	return nil
}

// RunJob executes job once under its lock. A run held elsewhere is skipped with ErrJobRunning.
func (s *Scheduler) RunJob(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, LockTTL)
	defer cancel()
	started := time.Now()
	err := lock.Run(ctx, s.locker, job.Name, LockTTL, job.Run)
	switch {
	case lock.IsRunning(err):
		log.Info().Str("job", job.Name).Msg("job skipped, already running")
	case err != nil:
		log.Error().Err(err).Str("job", job.Name).Dur("duration", time.Since(started)).Msg("job failed")
	default:
		log.Info().Str("job", job.Name).Dur("duration", time.Since(started)).Msg("job finished")
	}
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// LedgerJobs builds the periodic ledger and lead-quota jobs.
func LedgerJobs(cfg *config.Config, acc *accounts.Service, brk *brokers.Service) []Job {
	return []Job{
		{
			Name: JobGenerateCharges,
			Spec: cfg.ChargesCron,
			Run: func(ctx context.Context) error {
				run, err := acc.GenerateMonthlyCharges(ctx)
				if err != nil {
					return err
				}
				log.Info().Int("charged", run.Charged).Int("periods", run.PeriodsCharged).Int("failed", run.Failed).Msg("monthly charges generated")
				return nil
			},
		},
		{
			Name: JobCheckOverdue,
			Spec: cfg.OverdueCron,
			Run: func(ctx context.Context) error {
				run, err := acc.CheckOverdueAccounts(ctx)
				if err != nil {
					return err
				}
				log.Info().Int("evaluated", run.Evaluated).Int("changed", len(run.Changed)).Msg("overdue accounts checked")
				return nil
			},
		},
		{
			Name: JobResetLeads,
			Spec: cfg.LeadResetCron,
			Run: func(ctx context.Context) error {
				_, err := brk.ResetMonthlyLeadCounters(ctx)
				return err
			},
		},
	}
}
