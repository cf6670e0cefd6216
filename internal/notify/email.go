package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailNotifier struct {
	dialer     dialer
	from       string
	recipients []string
}

func NewEmailNotifier(host string, port int, user, password, from string, recipients []string) *EmailNotifier {
	return &EmailNotifier{
		dialer:     gomail.NewDialer(host, port, user, password),
		from:       from,
		recipients: recipients,
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, subject, body string) error {
	if e == nil || len(e.recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q: %w", subject, err)
	}
	return nil
}
