package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/workstations/internal/lib/email"
	"github.com/deppfellow/workstations/internal/model"
	"github.com/hibiken/asynq"
)

// TreeSource lists the parent edges of every workstation.
type TreeSource interface {
	ListLinks(ctx context.Context) ([]model.TreeLink, error)
}

// Alerter delivers audit failures to a human.
type Alerter interface {
	SendTreeIntegrityAlert(to string, report email.TreeIntegrityReport) error
}

// AuditResult is the outcome of one tree audit.
type AuditResult struct {
	Workstations int
	Cycles       [][]string
}

func (j *JobService) handleTreeAuditTask(ctx context.Context, t *asynq.Task) error {
	var p TreeAuditPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal tree audit payload: %w", err)
	}

	_, err := j.RunTreeAudit(ctx, p)
	return err
}

// RunTreeAudit checks the stored tree for parent loops, logs the outcome
// and sends an alert when loops exist and alerts are configured.
func (j *JobService) RunTreeAudit(ctx context.Context, p TreeAuditPayload) (*AuditResult, error) {
	logger := j.logger.With().
		Str("type", TaskTreeAudit).
		Str("reason", p.Reason).
		Str("workstation_id", p.WorkstationID).
		Logger()

	logger.Info().Msg("Processing tree audit task")

	links, err := j.tree.ListLinks(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load workstation links")
		return nil, err
	}

	result := &AuditResult{Workstations: len(links)}
	for _, cycle := range model.FindCycles(links) {
		ids := make([]string, len(cycle))
		for i, id := range cycle {
			ids[i] = id.String()
		}
		result.Cycles = append(result.Cycles, ids)
	}

	if len(result.Cycles) == 0 {
		logger.Info().
			Int("workstations", result.Workstations).
			Msg("Workstation tree is consistent")
		return result, nil
	}

	logger.Warn().
		Int("workstations", result.Workstations).
		Int("cycles", len(result.Cycles)).
		Interface("cycle_ids", result.Cycles).
		Msg("Workstation tree contains cycles")

	if j.alerter == nil {
		return result, nil
	}

	report := email.TreeIntegrityReport{
		Environment:   j.cfg.Primary.Env,
		CheckedAt:     time.Now().UTC(),
		Workstations:  result.Workstations,
		Reason:        p.Reason,
		WorkstationID: p.WorkstationID,
	}
	for _, ids := range result.Cycles {
		report.Cycles = append(report.Cycles, email.FormatCycle(ids))
	}

	if err := j.alerter.SendTreeIntegrityAlert(j.cfg.Integration.AlertRecipient, report); err != nil {
		logger.Error().Err(err).Msg("Failed to send tree integrity alert")
		return result, err
	}

	logger.Info().
		Str("to", j.cfg.Integration.AlertRecipient).
		Msg("Sent tree integrity alert")

	return result, nil
}
