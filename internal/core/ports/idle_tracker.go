package ports

import "time"

// IdleState is what the shell needs to show the inactivity warning.
type IdleState struct {
	Warning   bool          `json:"warning"`
	IdleFor   time.Duration `json:"idle_for_ns"`
	ExpiresIn time.Duration `json:"expires_in_ns"`
}

// IdleTracker records user activity for the inactivity logout.
type IdleTracker interface {
	Touch()
	State() IdleState
}
