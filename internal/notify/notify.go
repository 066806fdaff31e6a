package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Notifier delivers a human-readable alert to an operator channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Multi sends to every configured channel and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, text))
	}
	return err
}

// AlertText is the message operators receive when the miss tolerance is hit.
func AlertText(missDifference int64) string {
	return fmt.Sprintf("🚨 Kujira Price tracker monitor alert!\n You are missing too many blocks. Miss counter exceeded: %d", missDifference)
}
