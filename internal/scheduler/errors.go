package scheduler

import "fmt"

// FetchError means the counter could not be sampled; the tick was skipped
// and the monitor state is untouched.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch miss counter: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// NotifyError means an alert was due but could not be delivered. The
// cooldown and baseline were already advanced.
type NotifyError struct {
	MissDifference int64
	Err            error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("deliver alert (miss difference %d): %v", e.MissDifference, e.Err)
}
func (e *NotifyError) Unwrap() error { return e.Err }
