package entitlements

import "time"

// Subscription plans. Anything other than PlanFree is paid and metered by
// expiry instead of trial uses.
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Entitlement is a user's subscription/trial state.
type Entitlement struct {
	UserID         string     `json:"-"`
	Plan           string     `json:"plan"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	TrialRemaining int        `json:"trialRemaining"`
}

// Active reports whether a paid subscription is currently in force.
func (e Entitlement) Active(now time.Time) bool {
	return e.Plan != PlanFree && e.ExpiresAt != nil && e.ExpiresAt.After(now)
}
