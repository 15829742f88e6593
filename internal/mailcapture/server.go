// Package mailcapture runs a local SMTP server that accepts every message and
// keeps the most recent ones in memory. It stands in for a real mail relay
// during development so contact notifications can be inspected from the
// admin API instead of reaching an inbox.
package mailcapture

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/markb/bcon/internal/log"
)

// Message is one captured email, split per recipient list.
type Message struct {
	ID         int       `json:"id"`
	From       string    `json:"from"`
	To         []string  `json:"to"`
	Subject    string    `json:"subject"`
	TextBody   string    `json:"text_body"`
	HTMLBody   string    `json:"html_body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Server is a capture-only SMTP server.
type Server struct {
	config   Config
	smtpSrv  *smtp.Server
	listener net.Listener
	mu       sync.RWMutex
	running  bool

	msgMu    sync.Mutex
	messages []Message
	nextID   int
}

// NewServer creates a new mail capture server.
func NewServer(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	return &Server{config: cfg}
}

// Start begins listening for SMTP connections.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	s.smtpSrv = smtp.NewServer(&backend{server: s})
	s.smtpSrv.Addr = net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	s.smtpSrv.Domain = "localhost"
	s.smtpSrv.AllowInsecureAuth = true
	s.smtpSrv.ReadTimeout = 30 * time.Second
	s.smtpSrv.WriteTimeout = 30 * time.Second

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.smtpSrv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.smtpSrv.Addr, err)
	}
	s.listener = listener

	srv := s.smtpSrv
	go func() {
		if err := srv.Serve(listener); err != nil && err != smtp.ErrServerClosed {
			log.Warn("mail capture server stopped", "error", err)
		}
	}()

	s.running = true
	log.Info("mail capture server started", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and all open sessions.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.smtpSrv.Close()
	s.running = false
	log.Info("mail capture server stopped")
	return err
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Messages returns captured messages, newest first.
func (s *Server) Messages() []Message {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	out := make([]Message, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		out = append(out, s.messages[i])
	}
	return out
}

func (s *Server) add(m Message) {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	s.nextID++
	m.ID = s.nextID
	s.messages = append(s.messages, m)
	if over := len(s.messages) - s.config.Capacity; over > 0 {
		s.messages = append([]Message(nil), s.messages[over:]...)
	}
}
