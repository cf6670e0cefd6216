// Package notify delivers planning alerts (budget overruns, capacity warnings)
// to people outside the API.
package notify

import (
	"context"
	"errors"
)

type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, subject, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
