package usermanagement

import "time"

// IsWithinThresholdPeriodAt reports whether t falls inside the threshold
// window ending at now. Expiry checks use this with an injected clock.
func IsWithinThresholdPeriodAt(now, t time.Time, threshold time.Duration) bool {
	return t.After(now.Add(-threshold))
}
