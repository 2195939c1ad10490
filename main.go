package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/auth"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/catalog"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/clickhouse"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/config"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/draft"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/handlers"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/mcpserver"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/mocks"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("Starting FPL draft ledger", "environment", cfg.Environment, "db_driver", cfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)
	defer store.Close()

	upstream, closeUpstream := openEvents(cfg)
	defer closeUpstream()
	events := pubsub.NewWithUpstream(upstream)

	svc := draft.NewService(store, draft.WithPublisher(events))
	if err := svc.Load(ctx); err != nil {
		fatal("Failed to load draft ledger", err)
	}

	players, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		logger.Warn("Player catalog unavailable, serving ledger players only", "error", err, "dir", cfg.CatalogDir)
	} else {
		logger.Info("Player catalog loaded", "players", len(players), "dir", cfg.CatalogDir)
	}
	if len(players) > 0 && len(svc.Players()) == 0 {
		if err := svc.InitializePlayers(ctx, players); err != nil {
			fatal("Failed to seed ledger from catalog", err)
		}
	}

	sink := openAnalytics(ctx, cfg)
	if sink != nil {
		defer sink.Close()
		go clickhouse.Record(ctx, sink, events.Subscribe())
	}

	go reloadOnEvents(ctx, svc, events)

	authProvider := openAuth(cfg)

	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	api := handlers.NewAPIHandlers(svc, events, handlers.Options{
		Catalog:          players,
		Analytics:        sink,
		ImageAllowedHost: cfg.ImageAllowedHost,
	})
	api.Register(mux, func(next http.HandlerFunc) http.HandlerFunc {
		return authProvider.Middleware(auth.RequireCommissioner(cfg.CommissionerGroups, next))
	})

	if cfg.MCPEnabled {
		mux.Handle(cfg.MCPPath, mcpserver.New(svc, players).Handler(cfg.MCPAPIKey))
		logger.Info("MCP endpoint enabled", "path", cfg.MCPPath, "api_key", cfg.MCPAPIKey != "")
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown did not complete", "error", err)
		}
	}()

	logger.Info("Server starting", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("Server failed", err)
	}
	logger.Info("Server stopped")
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	log.Fatalf("%s: %v", msg, err)
}

func openStore(ctx context.Context, cfg config.Config) dal.DraftDAL {
	switch cfg.DBDriver {
	case "sqlite":
		store, err := dal.NewSQLiteDAL(ctx, cfg.SQLiteFile)
		if err != nil {
			fatal("Failed to initialize SQLite", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return store
	case "postgres":
		if cfg.DatabaseURL == "" {
			store, err := mocks.NewMockPostgresDAL(ctx, cfg.SQLiteFile)
			if err != nil {
				fatal("Failed to initialize mock Postgres", err)
			}
			return store
		}
		store, err := dal.NewPostgresDAL(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("Failed to initialize Postgres", err)
		}
		logger.Info("Connected to Postgres database")
		return store
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL()
	}
}

// openEvents picks the event upstream: embedded NATS in development (with
// an in-memory fallback), the configured NATS server otherwise.
func openEvents(cfg config.Config) (pubsub.Upstream, func()) {
	if cfg.UseEmbeddedNATS() {
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATSSubject
		opts.StoreDir = cfg.NATSStoreDir
		opts.MaxAge = cfg.NATSMaxAge

		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err == nil {
			logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
			return embedded, embedded.Close
		}
		if !cfg.IsDevelopment() {
			fatal("Failed to initialize embedded NATS", err)
		}
		logger.Warn("Embedded NATS unavailable, using in-memory events", "error", err)
		mock := mocks.NewMockNATSPubSub(256)
		return mock, mock.Close
	}

	remote, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		fatal("Failed to initialize NATS", err)
	}
	logger.Info("Connected to NATS", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	return remote, remote.Close
}

// openAnalytics returns the ClickHouse sink when configured, the mock in
// development, or nil.
func openAnalytics(ctx context.Context, cfg config.Config) clickhouse.Sink {
	if cfg.ClickHouseAddr != "" {
		client, err := clickhouse.NewClient(ctx, clickhouse.Options{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			fatal("Failed to initialize ClickHouse", err)
		}
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
		return client
	}
	if cfg.IsDevelopment() {
		return mocks.NewMockClickHouseClient()
	}
	logger.Info("Skipping draft analytics (ClickHouse not configured)")
	return nil
}

func openAuth(cfg config.Config) auth.Provider {
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development (no Authentik server required)")
		return auth.NewMockAuth()
	}
	logger.Info("Using Authentik", "url", cfg.AuthentikBaseURL)
	return auth.NewAuthentikAuth(auth.AuthentikConfig{
		BaseURL:      cfg.AuthentikBaseURL,
		ClientID:     cfg.AuthentikClientID,
		ClientSecret: cfg.AuthentikClientSecret,
		RedirectURL:  cfg.AuthentikRedirectURL,
	})
}

// reloadOnEvents refreshes the snapshot whenever any instance changes the
// ledger.
func reloadOnEvents(ctx context.Context, svc *draft.Service, events *pubsub.PubSub) {
	ch := events.Subscribe()
	defer events.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := svc.Reload(ctx); err != nil {
				logger.Warn("Reload after ledger event failed", "error", err, "type", e.Type)
			}
		}
	}
}
