package models

import "time"

// Runtime statuses of a scheduled job.
const (
	JobStatusPending    = "Pending"
	JobStatusRunning    = "Running"
	JobStatusCompleted  = "Completed"
	JobStatusFailed     = "Failed"
	JobStatusTerminated = "Terminated"
)

// Prompt types.
const (
	PromptLogAppend = "log.append"
	PromptHTTPCall  = "http.call"
)

// ScheduleJob is one deferred prompt execution. Registered jobs appear in
// the schedule listing; a job leaves the registry once it has run or has
// been terminated, but the document survives until deleted or wiped so its
// status remains queryable.
type ScheduleJob struct {
	InstanceID   string                 `bson:"instanceId" json:"instanceId"`
	ExecAtUTC    time.Time              `bson:"execAtUtc" json:"exec_at_utc"`
	PromptType   string                 `bson:"promptType" json:"prompt_type"`
	Payload      map[string]interface{} `bson:"payload" json:"payload"`
	Tag          string                 `bson:"tag,omitempty" json:"tag,omitempty"`
	SecondaryTag string                 `bson:"secondaryTag,omitempty" json:"secondary_tag,omitempty"`
	TertiaryTag  string                 `bson:"tertiaryTag,omitempty" json:"tertiary_tag,omitempty"`
	Status       string                 `bson:"runtimeStatus" json:"runtimeStatus"`
	Registered   bool                   `bson:"registered" json:"-"`
	Result       interface{}            `bson:"result,omitempty" json:"result,omitempty"`
	CreatedAt    time.Time              `bson:"createdAt" json:"createdAt"`
	CompletedAt  *time.Time             `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
