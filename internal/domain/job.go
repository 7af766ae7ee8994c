package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotRequeueable = errors.New("job is not terminally failed")
	ErrAccountNotFound   = errors.New("account not found")
	ErrBatchNotFound     = errors.New("batch not found")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Contact is the person a job tries to reach. Phones is an ordered list of
// candidate numbers; NextPhoneIndex points at the one the next attempt dials.
type Contact struct {
	Name           string   `json:"name"`
	ExternalID     string   `json:"external_id"`
	Phones         []string `json:"phones"`
	NextPhoneIndex int      `json:"next_phone_index"`
}

// CurrentPhone returns the number the next attempt should dial, or "" if the
// contact has no usable number at the current index.
func (c Contact) CurrentPhone() string {
	if c.NextPhoneIndex < 0 || c.NextPhoneIndex >= len(c.Phones) {
		return ""
	}
	return c.Phones[c.NextPhoneIndex]
}

// CallSummary carries the provider-reported details of a finished call.
type CallSummary struct {
	DurationSeconds     int               `json:"duration_seconds"`
	Cost                float64           `json:"cost"`
	DisconnectionReason string            `json:"disconnection_reason,omitempty"`
	RecordingURL        string            `json:"recording_url,omitempty"`
	TranscriptURL       string            `json:"transcript_url,omitempty"`
	Variables           map[string]string `json:"variables,omitempty"`
}

// CallResult is the outcome of one attempted call. Written once per completed
// attempt; a later attempt's result supersedes it.
type CallResult struct {
	Success   bool        `json:"success"`
	Status    string      `json:"status"`
	Summary   CallSummary `json:"summary"`
	Timestamp time.Time   `json:"timestamp"`
}

// Job is the unit of work pulled from the shared queue.
//
// Lease invariant: ReservedUntil in the future means exactly one worker
// (WorkerID) owns the job. Attempts is incremented on each claim, never
// anywhere else.
type Job struct {
	ID        string
	BatchID   *string
	AccountID string

	Status      Status
	Attempts    int
	MaxAttempts int

	ReservedUntil *time.Time
	WorkerID      *string

	Contact Contact
	Payload map[string]string

	CallID     *string
	CallResult *CallResult
	LastError  *string
	NextTryAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CallAttempt is one processing pass over a job: which worker dialed which
// number, and how it ended. Kept as history for the reporting layer.
type CallAttempt struct {
	ID          string
	JobID       string
	AttemptNum  int
	WorkerID    string
	Phone       string
	CallID      *string
	StartedAt   time.Time
	CompletedAt *time.Time
	Outcome     *string
	DurationMS  *int64
	Error       *string
}
