package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/email"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/newsdraft/pkg/domain"
)

// EmailParams configures the smtp relay
type EmailParams struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
	StartTLS bool
	Timeout  time.Duration
}

// EmailTransport sends html drafts through an smtp relay
type EmailTransport struct {
	sender sender
	from   string
	policy *bluemonday.Policy
}

type sender interface {
	Send(text string, params email.Params) error
}

// NewEmailTransport makes email transport for the given relay
func NewEmailTransport(p EmailParams) *EmailTransport {
	opts := []email.Option{
		email.Port(p.Port),
		email.TLS(p.TLS),
		email.STARTTLS(p.StartTLS),
		email.ContentType("text/html"),
	}
	if p.Username != "" {
		opts = append(opts, email.Auth(p.Username, p.Password))
	}
	if p.Timeout > 0 {
		opts = append(opts, email.TimeOut(p.Timeout))
	}
	return &EmailTransport{
		sender: email.NewSender(p.Host, opts...),
		from:   p.From,
		policy: bluemonday.UGCPolicy(),
	}
}

// Name returns transport name
func (e *EmailTransport) Name() string { return domain.TransportEmail }

// Deliver sends sanitized html to msg.To. The smtp client is not context aware,
// so the call is abandoned (not aborted) when ctx is done.
func (e *EmailTransport) Deliver(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := e.policy.Sanitize(msg.HTML)
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.sender.Send(body, email.Params{From: e.from, To: []string{to}, Subject: msg.Subject})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", to, ctx.Err())
	}
}
