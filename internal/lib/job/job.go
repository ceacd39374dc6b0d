// Package job runs background work on asynq: the workstation tree audit,
// enqueued after every write and on a cron schedule.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/workstations/internal/config"
	"github.com/deppfellow/workstations/internal/lib/email"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type JobService struct {
	Client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zerolog.Logger
	cfg       *config.Config

	tree    TreeSource
	alerter Alerter
}

// NewJobService builds the asynq client, worker server and scheduler on the
// configured Redis. tree supplies the links inspected by audits.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, tree TreeSource) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Jobs.Concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	j := &JobService{
		Client:    asynq.NewClient(redisOpt),
		server:    server,
		scheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{}),
		logger:    logger,
		cfg:       cfg,
		tree:      tree,
	}

	if cfg.Integration.AlertsEnabled() {
		j.alerter = email.NewClient(cfg, logger)
	}

	return j
}

// Start registers the handlers, starts the workers and schedules the
// periodic audit. Neither asynq call blocks.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTreeAudit, j.handleTreeAuditTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}

	task, err := NewTreeAuditTask(TreeAuditPayload{Reason: ReasonScheduled})
	if err != nil {
		return err
	}
	entryID, err := j.scheduler.Register(j.cfg.Jobs.AuditCron, task)
	if err != nil {
		return fmt.Errorf("scheduling tree audit %q: %w", j.cfg.Jobs.AuditCron, err)
	}
	if err := j.scheduler.Start(); err != nil {
		return fmt.Errorf("starting job scheduler: %w", err)
	}

	j.logger.Info().
		Str("entry_id", entryID).
		Str("cron", j.cfg.Jobs.AuditCron).
		Msg("tree audit scheduled")

	return nil
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.scheduler.Shutdown()
	j.server.Shutdown()
	j.Client.Close()
}

// EnqueueTreeAudit queues an audit after a write. asynq keys uniqueness on
// the payload, so only repeats of the same reason for the same workstation
// within the configured unique window collapse into one; those come back as
// asynq.ErrDuplicateTask and are not treated as failures.
func (j *JobService) EnqueueTreeAudit(ctx context.Context, reason string, workstationID uuid.UUID) error {
	task, err := NewTreeAuditTask(TreeAuditPayload{
		Reason:        reason,
		WorkstationID: workstationID.String(),
	})
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task, asynq.Unique(j.cfg.Jobs.AuditUniqueWindow))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueueing tree audit: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("reason", reason).
		Msg("tree audit enqueued")

	return nil
}
