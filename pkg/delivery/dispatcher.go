package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsdraft/pkg/domain"
)

// Config defines retry and timeout of every transport
type Config struct {
	Retries    int           // retries after the first failed delivery
	RetryDelay time.Duration // initial backoff delay
	Timeout    time.Duration // single delivery timeout
}

var errStopRetry = errors.New("stop retry")

// Dispatcher delivers messages through the transports implied by a delivery method
type Dispatcher struct {
	cfg        Config
	transports map[string]Transport
}

// Outcome is the result of a dispatch, per transport
type Outcome struct {
	Succeeded []string
	Failed    []string
	Err       error // joined transport errors, nil if nothing failed
}

// Delivered reports whether at least one transport delivered the message
func (o Outcome) Delivered() bool { return len(o.Succeeded) > 0 }

// NewDispatcher makes dispatcher with given transports, keyed by their names
func NewDispatcher(cfg Config, transports ...Transport) *Dispatcher {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	res := &Dispatcher{cfg: cfg, transports: map[string]Transport{}}
	for _, t := range transports {
		res.transports[t.Name()] = t
	}
	return res
}

// Dispatch sends msg through every transport of the method, concurrently and independently.
// Recipients are taken from the schedule, msg.To is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, method domain.DeliveryMethod, sched domain.Schedule, msg Message) Outcome {
	names := method.Transports()
	if len(names) == 0 {
		err := fmt.Errorf("unknown delivery method %q: %w", method, domain.ErrTransportFailure)
		return Outcome{Err: err}
	}

	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			m := msg
			m.To = recipient(name, sched)
			if err := d.deliver(ctx, name, m); err != nil {
				errs[i] = &domain.TransportError{Transport: name, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Outcome{}
	for i, name := range names {
		if errs[i] != nil {
			log.Printf("[WARN] delivery to %s via %s failed: %v", sched.Owner, name, errs[i])
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Succeeded = append(res.Succeeded, name)
	}
	res.Err = errors.Join(errs...)
	return res
}

// deliver runs one transport with retries, each attempt bounded by the delivery timeout.
// Permanent failures stop the retries.
func (d *Dispatcher) deliver(ctx context.Context, name string, msg Message) error {
	t, ok := d.transports[name]
	if !ok {
		return fmt.Errorf("transport %s is not configured", name)
	}
	if msg.To == "" {
		return ErrNoRecipient
	}

	var lastErr error
	attempt := 0
	retrier := repeater.NewBackoff(d.cfg.Retries+1, d.cfg.RetryDelay, repeater.WithMaxDelay(time.Minute))
	err := retrier.Do(ctx, func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
		if err := t.Deliver(attemptCtx, msg); err != nil {
			lastErr = err
			if !retryable(err) {
				log.Printf("[DEBUG] %s delivery attempt %d failed permanently: %v", name, attempt, err)
				return errStopRetry
			}
			log.Printf("[DEBUG] %s delivery attempt %d failed: %v", name, attempt, err)
			return err
		}
		lastErr = nil
		return nil
	}, errStopRetry)
	if lastErr != nil {
		return fmt.Errorf("after %d attempts: %w", attempt, lastErr)
	}
	return err
}

func recipient(transport string, sched domain.Schedule) string {
	switch transport {
	case domain.TransportEmail:
		return sched.Email
	case domain.TransportChat:
		return sched.ChatID
	}
	return ""
}
