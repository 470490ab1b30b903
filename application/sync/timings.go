package sync

import "time"

// Timings collects the scheduling constants of the sync engine. Production
// uses DefaultTimings; tests compress them.
type Timings struct {
	// PollInterval is the period of the fetch-and-reconcile loop
	PollInterval time.Duration

	// SettleDelay is how long after an edit ends before a save is scheduled,
	// letting the final mutation land before the snapshot is taken
	SettleDelay time.Duration

	// EditDefer is how long a non-immediate save is pushed back while edits
	// are active
	EditDefer time.Duration

	// ThrottleWindow bounds non-immediate saves to one per rolling window
	// measured from the last successful save
	ThrottleWindow time.Duration

	// SaveCooldown keeps the poll loop suppressed after a save completes so a
	// refetch cannot race the write that just landed
	SaveCooldown time.Duration

	// RetryBase scales the delay between attempts of a failing immediate
	// save: RetryBase × attemptNumber
	RetryBase time.Duration

	// MaxSaveAttempts bounds retries of an immediate save
	MaxSaveAttempts int

	// RequeueDelay is the brief pause before a queued save is re-requested
	// after a successful one
	RequeueDelay time.Duration
}

// DefaultTimings returns the production scheduling constants
func DefaultTimings() Timings {
	return Timings{
		PollInterval:    10 * time.Second,
		SettleDelay:     200 * time.Millisecond,
		EditDefer:       2 * time.Second,
		ThrottleWindow:  time.Second,
		SaveCooldown:    time.Second,
		RetryBase:       time.Second,
		MaxSaveAttempts: 3,
		RequeueDelay:    100 * time.Millisecond,
	}
}
