package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertScan recomputes inventory alerts and reports new ones.
	TaskAlertScan = "alerts:inventory_scan"
)

// AlertScanPayload configures an alert scan run.
type AlertScanPayload struct {
	NotifyNewOnly bool `json:"notify_new_only"`
}

// NewAlertScanTask constructs an alert scan task.
func NewAlertScanTask(payload AlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertScan, data), nil
}
