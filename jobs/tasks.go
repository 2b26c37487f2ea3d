package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFollowUpsDueScan reports follow-ups falling due within a lookahead window.
	TaskFollowUpsDueScan = "followups:due-scan"
)

// DefaultLookahead applies when a scan payload carries no window.
const DefaultLookahead = 24 * time.Hour

// FollowUpsDueScanPayload describes the scan window.
type FollowUpsDueScanPayload struct {
	LookaheadHours int `json:"lookahead_hours"`
}

// Lookahead returns the scan window, falling back to DefaultLookahead.
func (p FollowUpsDueScanPayload) Lookahead() time.Duration {
	if p.LookaheadHours <= 0 {
		return DefaultLookahead
	}
	return time.Duration(p.LookaheadHours) * time.Hour
}

// NewFollowUpsDueScanTask constructs the scan task for the given window.
func NewFollowUpsDueScanTask(lookahead time.Duration) (*asynq.Task, error) {
	payload := FollowUpsDueScanPayload{LookaheadHours: int(lookahead / time.Hour)}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpsDueScan, data), nil
}
