// Package server wires the configured components together and runs the HTTP
// listener until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/markb/bcon/internal/admin"
	"github.com/markb/bcon/internal/api"
	"github.com/markb/bcon/internal/config"
	"github.com/markb/bcon/internal/log"
	"github.com/markb/bcon/internal/mailcapture"
	"github.com/markb/bcon/internal/metrics"
	"github.com/markb/bcon/internal/notify"
	"github.com/markb/bcon/internal/pg"
	"github.com/markb/bcon/internal/store"
	"github.com/markb/bcon/internal/token"
)

type Server struct {
	config *config.Config

	embedded   *pg.Embedded
	store      store.Store
	capture    *mailcapture.Server
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics

	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error
}

func New(cfg *config.Config) *Server {
	return &Server{config: cfg}
}

// Run starts the server and blocks until ctx ends or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		s.stopComponents(context.Background())
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case serveErr = <-s.serveErr:
		log.Error("http server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	return errors.Join(serveErr, s.Shutdown(shutdownCtx))
}

// Start brings up every component and begins serving HTTP. It returns once
// the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config
	log.Info("starting bcon server...", "store", cfg.Store.Driver, "email", cfg.Email.Provider)

	// 1. Storage
	st, embedded, err := OpenStore(ctx, cfg)
	s.embedded = embedded
	if err != nil {
		return err
	}
	s.store = st
	log.Info("store ready", "driver", cfg.Store.Driver)

	// 2. Notifications
	s.metrics = metrics.New()
	sender, err := s.buildSender(ctx)
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(sender, cfg.Email.Sender, cfg.Email.Recipient)
	s.dispatcher = notify.NewDispatcher(notifier, notify.DefaultTimeout, func(error) {
		s.metrics.NotificationFailed()
	})
	if !notifier.Enabled() {
		log.Warn("email notifications disabled")
	}

	// 3. API
	tokens, err := token.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	apiCfg := api.Config{
		Store:       s.store,
		Accounts:    admin.NewService(s.store),
		Tokens:      tokens,
		Dispatcher:  s.dispatcher,
		Metrics:     s.metrics,
		CORSOrigins: cfg.Server.Origins(),
	}
	if s.capture != nil {
		apiCfg.Capture = s.capture
	}
	handler := api.New(apiCfg).Handler()

	// 4. HTTP listener
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	s.serveErr = make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr <- err
		}
	}()

	log.Info("bcon listening", "addr", listener.Addr().String())
	log.Info("  API:     http://" + listener.Addr().String() + "/api/")
	log.Info("  Metrics: http://" + listener.Addr().String() + "/metrics")
	return nil
}

// OpenStore opens the configured store, first starting the embedded
// PostgreSQL when it is enabled. The returned Embedded is nil otherwise and
// is left running when opening the store fails.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, *pg.Embedded, error) {
	url := cfg.Store.URL
	var embedded *pg.Embedded
	if cfg.Store.Driver == store.DriverPostgres && cfg.Store.Embedded.Enabled {
		e := cfg.Store.Embedded
		embedded = pg.New(pg.Config{
			Port:     uint16(e.Port),
			Username: e.Username,
			Password: e.Password,
			Database: e.Database,
			DataDir:  e.DataDir,
			Version:  e.Version,
		})
		if err := embedded.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start PostgreSQL: %w", err)
		}
		url = embedded.URL()
	}

	st, err := store.Open(ctx, store.Options{
		Driver:   cfg.Store.Driver,
		URL:      url,
		Database: cfg.Store.Database,
	})
	if err != nil {
		return nil, embedded, fmt.Errorf("failed to open store: %w", err)
	}
	return st, embedded, nil
}

// buildSender picks the notification transport. In capture mode a local SMTP
// server is started and mail is relayed to it.
func (s *Server) buildSender(ctx context.Context) (notify.Sender, error) {
	email := s.config.Email

	if email.CaptureMode {
		s.capture = mailcapture.NewServer(mailcapture.Config{
			Host: "127.0.0.1",
			Port: email.CapturePort,
		})
		if err := s.capture.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start mail capture: %w", err)
		}
		host, port, err := net.SplitHostPort(s.capture.Addr())
		if err != nil {
			return nil, err
		}
		p, _ := strconv.Atoi(port)
		return notify.NewSMTP(notify.SMTPConfig{Host: host, Port: p}), nil
	}

	switch email.Provider {
	case config.ProviderResend:
		return notify.NewResend(email.ResendAPIKey), nil
	case config.ProviderSMTP:
		return notify.NewSMTP(notify.SMTPConfig{
			Host:     email.SMTPHost,
			Port:     email.SMTPPort,
			Username: email.SMTPUser,
			Password: email.SMTPPass,
		}), nil
	default:
		return notify.Noop{}, nil
	}
}

// Addr returns the bound HTTP address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests, waits for in-flight requests and
// notifications, then releases storage.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Wait(ctx); err != nil {
			log.Warn("pending notifications abandoned", "error", err)
		}
	}
	errs = append(errs, s.stopComponents(ctx))

	log.Info("bcon stopped")
	return errors.Join(errs...)
}

func (s *Server) stopComponents(ctx context.Context) error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.store = nil
	}
	if s.capture != nil {
		if err := s.capture.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop mail capture: %w", err))
		}
	}
	if s.embedded != nil {
		if err := s.embedded.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) shutdownTimeout() time.Duration {
	if d := s.config.Server.ShutdownTimeout; d > 0 {
		return d
	}
	return 30 * time.Second
}
