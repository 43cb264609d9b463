package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/example/salon-scheduler/internal/application"
	httptransport "github.com/example/salon-scheduler/internal/http"
	"github.com/example/salon-scheduler/internal/persistence/sqlstore"
)

const metricsNamespace = "salon"

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.addr")
	return cmd
}

// services bundles the application layer built on one store.
type services struct {
	auth       *application.AuthService
	users      *application.UserService
	employees  *application.EmployeeService
	timeBlocks *application.TimeBlockService
}

func (a *app) buildServices(store *sqlstore.Store) (services, error) {
	hours, err := a.cfg.Hours()
	if err != nil {
		return services{}, err
	}
	now := time.Now
	users := sqlstore.NewUserRepository(store)
	employees := sqlstore.NewEmployeeRepository(store)

	return services{
		auth: application.NewAuthService(users, sqlstore.NewSessionRepository(store), application.AuthServiceConfig{
			SessionTTL:     a.cfg.Session.TTL.Duration,
			CacheSize:      a.cfg.Session.CacheSize,
			CacheTTL:       a.cfg.Session.CacheTTL.Duration,
			TokenGenerator: func() string { return randomHex(32) },
			IDGenerator:    uuid.NewString,
			Now:            now,
			Logger:         a.logger,
		}),
		users:      application.NewUserService(users, uuid.NewString, now, a.logger),
		employees:  application.NewEmployeeService(employees, uuid.NewString, now, a.logger),
		timeBlocks: application.NewTimeBlockService(employees, sqlstore.NewTimeBlockRepository(store), hours, uuid.NewString, now, a.logger),
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	if a.cfg.Database.AutoMigrate {
		if _, err := store.Migrate(ctx, a.logger); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	svc, err := a.buildServices(store)
	if err != nil {
		return err
	}
	if a.cfg.Admin.Username != "" {
		created, err := svc.users.EnsureUser(ctx, application.CreateUserParams{
			Username: a.cfg.Admin.Username,
			Password: a.cfg.Admin.Password,
			IsAdmin:  true,
		})
		if err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
		if created {
			a.logger.Info("admin account created", "username", a.cfg.Admin.Username)
		}
	}

	metrics := httptransport.NewMetrics(metricsNamespace, collectors.NewDBStatsCollector(store.DB(), metricsNamespace))
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(svc.auth, a.logger, a.cfg.HTTP.SecureCookies),
		Users:      httptransport.NewUserHandler(svc.users, a.logger),
		Employees:  httptransport.NewEmployeeHandler(svc.employees, a.logger),
		TimeBlocks: httptransport.NewTimeBlockHandler(svc.timeBlocks, metrics, a.logger),
		Sessions:   svc.auth,
		Metrics:    metrics,
		Health:     store.Ping,
		Logger:     a.logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(a.logger)},
	})

	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.HTTP.ReadTimeout.Duration,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout.Duration,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("salon API listening", "addr", server.Addr, "driver", store.Driver())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server encountered error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout.Duration)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	a.logger.Info("salon API stopped")
	return nil
}
