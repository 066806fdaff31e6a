package source

import "context"

// CounterSource returns the validator's current oracle miss counter.
type CounterSource interface {
	Fetch(ctx context.Context) (int64, error)
}

var _ CounterSource = (*HTTPSource)(nil)
