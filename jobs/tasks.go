package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueScan flips sent invoices past their due date to overdue.
	TaskOverdueScan = "invoices:overdue_scan"
	// TaskOverpayScan flags bookings whose paid amount exceeds their total.
	TaskOverpayScan = "bookings:overpay_scan"
	// TaskReconciliationSweep runs both scans as one fan-out.
	TaskReconciliationSweep = "ledger:reconciliation_sweep"
)

// ScanPayload pins the reference time a scan evaluates against, so a task
// delayed in the queue does not drift from the moment it was scheduled.
// A zero AsOf means evaluate at processing time; cron tasks use that since
// their payload is marshalled once at registration.
type ScanPayload struct {
	AsOf time.Time `json:"as_of"`
}

// Reference resolves the scan time.
func (p ScanPayload) Reference(now func() time.Time) time.Time {
	if p.AsOf.IsZero() {
		return now().UTC()
	}
	return p.AsOf
}

// NewOverdueScanTask constructs an overdue-scan task.
func NewOverdueScanTask(asOf time.Time) (*asynq.Task, error) {
	return newScanTask(TaskOverdueScan, asOf)
}

// NewOverpayScanTask constructs an overpayment-scan task.
func NewOverpayScanTask(asOf time.Time) (*asynq.Task, error) {
	return newScanTask(TaskOverpayScan, asOf)
}

// NewReconciliationSweepTask constructs the combined sweep task.
func NewReconciliationSweepTask(asOf time.Time) (*asynq.Task, error) {
	return newScanTask(TaskReconciliationSweep, asOf)
}

func newScanTask(taskType string, asOf time.Time) (*asynq.Task, error) {
	payload := ScanPayload{}
	if !asOf.IsZero() {
		payload.AsOf = asOf.UTC()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data, asynq.Queue(QueueDefault)), nil
}
