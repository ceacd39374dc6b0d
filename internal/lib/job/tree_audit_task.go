package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTreeAudit = "workstation:tree_audit"

const ReasonScheduled = "scheduled"

// TreeAuditPayload says what triggered an audit. WorkstationID is empty for
// scheduled runs.
type TreeAuditPayload struct {
	Reason        string `json:"reason"`
	WorkstationID string `json:"workstation_id,omitempty"`
}

func NewTreeAuditTask(p TreeAuditPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTreeAudit,
		payload,
		asynq.MaxRetry(2),
		asynq.Queue("low"),
		asynq.Timeout(time.Minute),
	), nil
}
