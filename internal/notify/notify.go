// Package notify delivers email notifications about new contact messages.
//
// A Sender delivers one rendered Message. Notifier binds a Sender to the
// configured sender and recipient addresses, and Dispatcher runs
// notifications in the background so request handling never waits on a
// mail provider.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markb/bcon/internal/log"
	"github.com/markb/bcon/internal/model"
)

// DefaultTimeout bounds a single background delivery.
const DefaultTimeout = 15 * time.Second

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message. It is used when no provider is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, msg Message) error { return nil }

// Notifier renders contact notifications and hands them to a Sender.
type Notifier struct {
	sender    Sender
	from      string
	recipient string
}

func NewNotifier(sender Sender, from, recipient string) *Notifier {
	return &Notifier{sender: sender, from: from, recipient: recipient}
}

// Enabled reports whether notifications go anywhere.
func (n *Notifier) Enabled() bool {
	_, noop := n.sender.(Noop)
	return n.sender != nil && !noop
}

// NotifyContact sends the notification for c.
func (n *Notifier) NotifyContact(ctx context.Context, c model.ContactMessage) error {
	msg, err := ContactMessage(n.from, n.recipient, c)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send contact notification: %w", err)
	}
	return nil
}

// Dispatcher runs contact notifications on their own goroutines, detached
// from the request that triggered them. Failures are logged and reported to
// OnFailure, never returned.
type Dispatcher struct {
	notifier  *Notifier
	timeout   time.Duration
	onFailure func(error)
	wg        sync.WaitGroup
}

// NewDispatcher returns a Dispatcher. onFailure may be nil.
func NewDispatcher(n *Notifier, timeout time.Duration, onFailure func(error)) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout, onFailure: onFailure}
}

// Dispatch schedules a notification for c and returns immediately. It does
// nothing when the notifier is disabled.
func (d *Dispatcher) Dispatch(c model.ContactMessage) {
	if d == nil || d.notifier == nil || !d.notifier.Enabled() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.NotifyContact(ctx, c); err != nil {
			log.Error("contact notification failed", "contact_id", c.ID, "error", err)
			if d.onFailure != nil {
				d.onFailure(err)
			}
			return
		}
		log.Info("contact notification sent", "contact_id", c.ID, "email", c.Email)
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
