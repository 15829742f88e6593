package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// Resend sends mail through the Resend HTTP API.
type Resend struct {
	client *resend.Client
}

func NewResend(apiKey string) *Resend {
	return &Resend{client: resend.NewClient(apiKey)}
}

// WithBaseURL points the client at another API endpoint.
func (r *Resend) WithBaseURL(u *url.URL) *Resend {
	r.client.BaseURL = u
	return r
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
