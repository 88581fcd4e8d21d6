// Package app wires the Relay server runtime: config, logging, storage,
// sessions, HTTP routes, and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"relay/cmd/internal/api"
	"relay/cmd/internal/auth/credential"
	"relay/cmd/internal/auth/session"
	"relay/cmd/internal/chat"
	"relay/cmd/internal/realtime"
	"relay/cmd/internal/store"
)

// App is the Relay server runtime. It owns the storage backend, the session
// store with its reaper, and the HTTP wiring.
type App struct {
	cfg Config
	log Logger

	store     store.Store
	dbEnabled bool

	sessions *session.Store
	reaper   *session.Reaper
	svc      *chat.Service
	handler  *api.Handler
	ws       *realtime.WSGateway
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbEnabled, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore()
	creds := credential.NewManager(st, sessions)
	hub := realtime.NewHub(log)
	svc := chat.NewService(log, st, creds, sessions, hub)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbEnabled: dbEnabled,
		sessions:  sessions,
		reaper:    session.NewReaper(log, sessions, sessCfg),
		svc:       svc,
		handler:   api.NewHandler(log, svc),
		ws:        realtime.NewWSGateway(log, hub, svc),
	}, nil
}

// Run starts the reaper and the HTTP server and blocks until context
// cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go a.reaper.Run(reaperCtx)

	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.store, a.dbEnabled, a.handler, a.ws)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(WithRecovery(mux, a.log), a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	baseURL := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", baseURL,
		"ws", wsBaseURL(baseURL)+"/ws",
		"db_enabled", a.dbEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory
// dev store. The Postgres path runs embedded migrations first.
func newStore(ctx context.Context, cfg Config, log Logger) (store.Store, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return store.NewMemory(), false, nil
	}

	if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		return nil, false, err
	}

	conn, err := NewDBConn(ctx, cfg)
	if err != nil {
		return nil, false, err
	}

	pg, err := store.NewPostgres(conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, false, err
	}

	log.Info("db.enabled.postgres_store")
	return pg, true, nil
}

// runtimeBaseURL maps a listen address to a URL a local client can reach.
// Bind-all addresses are rewritten to loopback.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// wsBaseURL maps an HTTP base URL to its WebSocket scheme.
func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}
