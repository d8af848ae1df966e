package notify

import (
	"context"

	"library-alert/core/reconcile"
)

// Multi calls each notifier in order and stops at the first error.
type Multi []reconcile.Notifier

// Notify implements reconcile.Notifier.
func (m Multi) Notify(ctx context.Context, updates reconcile.UpdateSet) error {
	for _, n := range m {
		if err := n.Notify(ctx, updates); err != nil {
			return err
		}
	}
	return nil
}
