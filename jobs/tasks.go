package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEntriesAutoApprove is the task type for the pending-entry sweep.
	TaskEntriesAutoApprove = "entries:auto_approve"
)

// EntriesAutoApprovePayload parameterizes one sweep run. CutoffHours zero
// falls back to the service default.
type EntriesAutoApprovePayload struct {
	CutoffHours  int       `json:"cutoff_hours"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewEntriesAutoApproveTask constructs an Asynq task for the sweep.
func NewEntriesAutoApproveTask(cutoffHours int, at time.Time) (*asynq.Task, error) {
	payload := EntriesAutoApprovePayload{CutoffHours: cutoffHours, ScheduledFor: at}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEntriesAutoApprove, body, asynq.Queue(QueueDefault)), nil
}
