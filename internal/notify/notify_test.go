package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/bcon/internal/mailcapture"
	"github.com/markb/bcon/internal/model"
)

func sampleContact() model.ContactMessage {
	return model.ContactMessage{
		ID:        "c-1",
		Name:      "Ana <script>",
		Email:     "ana@example.com",
		Message:   "Need an offer & a call",
		CreatedAt: time.Date(2025, 3, 4, 9, 7, 0, 0, time.UTC),
	}
}

func TestContactMessage(t *testing.T) {
	msg, err := ContactMessage("from@bcon.ro", "to@bcon.ro", sampleContact())
	require.NoError(t, err)

	assert.Equal(t, "from@bcon.ro", msg.From)
	assert.Equal(t, []string{"to@bcon.ro"}, msg.To)
	assert.Equal(t, "Mesaj nou de la Ana <script> - B-CON Website", msg.Subject)
	assert.Contains(t, msg.HTML, "Ana &lt;script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "Need an offer &amp; a call")
	assert.Contains(t, msg.HTML, "<strong>Telefon:</strong> Nespecificat")
	assert.Contains(t, msg.HTML, "<strong>Companie:</strong> Nespecificat")
	assert.Contains(t, msg.HTML, "Trimis la: 04.03.2025 09:07")
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func TestNotifierEnabled(t *testing.T) {
	assert.False(t, NewNotifier(Noop{}, "a", "b").Enabled())
	assert.False(t, NewNotifier(nil, "a", "b").Enabled())
	assert.True(t, NewNotifier(&recordingSender{}, "a", "b").Enabled())
}

func TestDispatcher(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(NewNotifier(sender, "from@bcon.ro", "to@bcon.ro"), time.Second, nil)

	d.Dispatch(sampleContact())
	require.NoError(t, d.Wait(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"to@bcon.ro"}, sender.sent[0].To)
}

func TestDispatcherReportsFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	var mu sync.Mutex
	var failures []error
	d := NewDispatcher(NewNotifier(sender, "from@bcon.ro", "to@bcon.ro"), time.Second, func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	})

	d.Dispatch(sampleContact())
	require.NoError(t, d.Wait(context.Background()))

	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error(), "provider down")
}

func TestDispatcherDisabled(t *testing.T) {
	d := NewDispatcher(NewNotifier(Noop{}, "a", "b"), 0, func(error) { t.Fatal("unexpected failure") })
	d.Dispatch(sampleContact())
	require.NoError(t, d.Wait(context.Background()))

	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(sampleContact())
}

func TestSMTPDeliversToCaptureServer(t *testing.T) {
	capture := mailcapture.NewServer(mailcapture.Config{Host: "127.0.0.1", Port: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, capture.Start(ctx))
	defer capture.Stop()

	host, port := splitAddr(t, capture.Addr())
	sender := NewSMTP(SMTPConfig{Host: host, Port: port, Username: "user", Password: "pass"})
	n := NewNotifier(sender, "onboarding@resend.dev", "contact@bcon.ro")

	require.NoError(t, n.NotifyContact(ctx, sampleContact()))

	require.Eventually(t, func() bool { return len(capture.Messages()) == 1 }, 2*time.Second, 20*time.Millisecond)
	got := capture.Messages()[0]
	assert.Equal(t, "onboarding@resend.dev", got.From)
	assert.Equal(t, []string{"contact@bcon.ro"}, got.To)
	assert.Equal(t, "Mesaj nou de la Ana <script> - B-CON Website", got.Subject)
	assert.Contains(t, got.HTMLBody, "Ana &lt;script&gt;")
}

func TestSMTPUnreachable(t *testing.T) {
	sender := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1})
	err := sender.Send(context.Background(), Message{From: "a@x.com", To: []string{"b@x.com"}, Subject: "s", HTML: "h"})
	assert.Error(t, err)
}

func TestResendSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	sender := NewResend("re_test").WithBaseURL(u)

	err = sender.Send(context.Background(), Message{
		From:    "onboarding@resend.dev",
		To:      []string{"contact@bcon.ro"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "onboarding@resend.dev", got["from"])
	assert.Equal(t, "Hello", got["subject"])
	assert.Equal(t, "<p>hi</p>", got["html"])
}

func TestResendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"statusCode":401,"name":"validation_error","message":"API key is invalid"}`))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	err = NewResend("bad").WithBaseURL(u).Send(context.Background(), Message{From: "a@x.com", To: []string{"b@x.com"}})
	assert.Error(t, err)
}
