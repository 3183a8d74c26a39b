package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-orders/internal/audit"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/config"
	"restaurant-orders/internal/connections/database"
	"restaurant-orders/internal/connections/rabbitmq"
	"restaurant-orders/internal/httpx"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/menu"
	"restaurant-orders/internal/orders"
	"restaurant-orders/internal/throttle"
	"restaurant-orders/internal/users"
)

func main() {
	mode := flag.String("mode", "api", "api | audit-writer")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	port := flag.Int("port", 0, "override server port")
	migrationsDir := flag.String("migrations", "migrations", "path to SQL migrations")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lg := logger.New(*mode)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "api":
		if err := runAPI(ctx, cfg, lg, *migrationsDir); err != nil {
			lg.Error("service_failed", err, nil)
			os.Exit(1)
		}
	case "audit-writer":
		if err := runAuditWriter(ctx, cfg, lg); err != nil {
			lg.Error("service_failed", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be api or audit-writer")
		os.Exit(2)
	}

	lg.Info("service_stopped", nil)
}

func runAPI(ctx context.Context, cfg *config.Config, lg *logger.Logger, migrationsDir string) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	lg.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})

	ran, err := database.Migrate(ctx, db, migrationsDir)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, name := range ran {
		lg.Info("migration_applied", map[string]any{"file": name})
	}

	// The audit trail is best-effort: without a broker the API still serves,
	// it just stops emitting events.
	var recorder audit.Recorder = audit.Nop{}
	if cfg.RabbitMQ.Host != "" {
		mq, err := rabbitmq.Dial(cfg.RabbitMQURL())
		if err != nil {
			lg.Error("rabbitmq_unavailable", err, map[string]any{"host": cfg.RabbitMQ.Host})
		} else {
			defer mq.Close()
			if err := mq.DeclareAudit(); err != nil {
				return fmt.Errorf("declare audit exchange: %w", err)
			}
			recorder = audit.NewPublisher(mq, lg)
			lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host})
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.Secret,
		time.Duration(cfg.Auth.AccessTTLMin)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour)

	userRepo := users.NewRepository(db)
	userService := users.NewService(userRepo, tokens, recorder, lg)
	menuService := menu.NewService(menu.NewRepository(db), recorder, lg)
	orderService := orders.NewService(orders.NewRepository(db), recorder, lg)
	auditRepo := audit.NewRepository(db)

	if err := userService.EnsureDefaultManager(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap manager account: %w", err)
	}

	mux := http.NewServeMux()
	users.NewHandler(userService).Register(mux)
	menu.NewHandler(menuService).Register(mux)
	orders.NewHandler(orderService).Register(mux)
	audit.NewHandler(auditRepo).Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.WriteProblem(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := throttle.New(cfg.Throttle)
	mw := auth.NewMiddleware(tokens, userRepo, lg)
	handler := httpx.WithLogging(lg, mw.Authenticate(limiter.Wrap(mux)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	lg.Info("service_started", map[string]any{"addr": addr})
	return httpx.New(addr, handler).Run(ctx)
}

func runAuditWriter(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	db, err := database.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	mq, err := rabbitmq.Dial(cfg.RabbitMQURL())
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mq.Close()
	if err := mq.DeclareAudit(); err != nil {
		return fmt.Errorf("declare audit exchange: %w", err)
	}

	writer := audit.NewWriter(mq, audit.NewRepository(db), lg)
	return writer.Run(ctx)
}
