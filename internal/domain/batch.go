package domain

import "time"

// AllowedHours is a daily calling window, inclusive of Start, exclusive of End.
// Values are "HH:MM" in the batch's timezone.
type AllowedHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CallSettings are per-batch overrides of the global dialing defaults.
// Zero/nil fields mean "use the global value".
type CallSettings struct {
	MaxAttempts        *int           `json:"max_attempts,omitempty"`
	RetryDelayHours    *float64       `json:"retry_delay_hours,omitempty"`
	AllowedHours       *AllowedHours  `json:"allowed_hours,omitempty"`
	DaysOfWeek         []time.Weekday `json:"days_of_week,omitempty"`
	Timezone           string         `json:"timezone,omitempty"`
	RingTimeoutSec     *int           `json:"ring_timeout,omitempty"`
	MaxCallDurationSec *int           `json:"max_call_duration,omitempty"`
}

// Batch is the campaign-level configuration view the dialer reads on every
// job. Inactive batches' jobs are not claimed.
type Batch struct {
	ID           string
	AccountID    string
	Name         string
	IsActive     bool
	CallSettings CallSettings

	TotalJobs     int
	CompletedJobs int
	FailedJobs    int

	CreatedAt time.Time
	UpdatedAt time.Time
}
