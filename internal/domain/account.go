package domain

import "time"

type PlanType string

const (
	PlanUnlimited    PlanType = "unlimited"
	PlanMinutesBased PlanType = "minutes_based"
	PlanCreditBased  PlanType = "credit_based"
)

// Account is the billing view consulted before every call. The dialer never
// recomputes billing; it asks HasBalance and, after a successful call,
// fires a best-effort usage debit.
type Account struct {
	ID               string
	Name             string
	PlanType         PlanType
	RemainingMinutes float64
	AvailableCredit  float64
	CostPerCallSetup float64
	CostPerMinute    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBalance reports whether the account can afford one more call right now.
func (a Account) HasBalance() bool {
	switch a.PlanType {
	case PlanUnlimited:
		return true
	case PlanMinutesBased:
		return a.RemainingMinutes > 0
	case PlanCreditBased:
		return a.AvailableCredit >= a.CostPerCallSetup
	default:
		return false
	}
}
