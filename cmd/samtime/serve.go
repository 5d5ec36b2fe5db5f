package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/samtime/samtime-backend/api"
	accounthandler "github.com/samtime/samtime-backend/internal/account/handler"
	"github.com/samtime/samtime-backend/internal/account/jwt"
	accountrepo "github.com/samtime/samtime-backend/internal/account/repository"
	accountservice "github.com/samtime/samtime-backend/internal/account/service"
	punchhandler "github.com/samtime/samtime-backend/internal/punch/handler"
	punchrepo "github.com/samtime/samtime-backend/internal/punch/repository"
	punchservice "github.com/samtime/samtime-backend/internal/punch/service"
	"github.com/samtime/samtime-backend/internal/roster/events"
	rosterhandler "github.com/samtime/samtime-backend/internal/roster/handler"
	rosterrepo "github.com/samtime/samtime-backend/internal/roster/repository"
	rosterservice "github.com/samtime/samtime-backend/internal/roster/service"
	"github.com/samtime/samtime-backend/pkg/config"
	"github.com/samtime/samtime-backend/pkg/database"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
	"github.com/spf13/cobra"
)

// actionPaths serve the roster action endpoint. The .php path is what the
// shipped mobile client posts to.
var actionPaths = []string{"/api/employees", "/api_employees.php"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Info().Str("environment", cfg.Server.Environment).Msg("starting samtime")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := database.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, punch debounce disabled")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	publisher, rmq := newPublisher(cfg, log)
	if rmq != nil {
		defer rmq.Close()
	}

	r := newRouter(cfg, log, deps{db: db, redis: rdb, rmq: rmq, publisher: publisher})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
	return nil
}

type deps struct {
	db        *database.DB
	redis     *redis.Client
	rmq       *messaging.RabbitMQ
	publisher messaging.EventPublisher
}

func newRouter(cfg *config.Config, log *logger.Logger, d deps) http.Handler {
	jwtManager := jwt.NewManager(&cfg.JWT)
	auth := accounthandler.NewAuthenticator(jwtManager, log)

	rosterSvc := rosterservice.NewRosterService(
		rosterrepo.NewEmployeeRepository(d.db),
		events.NewRosterEventPublisher(d.publisher, log),
		cfg.Roster.AllocationRetries,
		log,
	)
	accountSvc := accountservice.NewAccountService(accountrepo.NewCompanyRepository(d.db), jwtManager, d.publisher, log)
	punchSvc := punchservice.NewPunchService(
		punchrepo.NewPunchRepository(d.db),
		rosterSvc,
		punchservice.NewRedisDebouncer(d.redis, cfg.Redis.PunchDebounce),
		d.publisher,
		punchservice.Options{RequireSignature: cfg.Punch.RequireSignature, Location: cfg.Punch.Location()},
		log,
	)

	actionHandler := rosterhandler.NewActionHandler(rosterSvc, log)
	employeeHandler := rosterhandler.NewEmployeeHandler(rosterSvc, log)
	accountHandler := accounthandler.NewAccountHandler(accountSvc, log)
	punchHandler := punchhandler.NewPunchHandler(punchSvc, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(correlate)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	r.Use(i18n.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rabbit := map[string]string{"status": "disabled"}
		if d.rmq != nil {
			rabbit = d.rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  config.ServiceName,
			"database": d.db.Health(r.Context()),
			"redis":    database.RedisHealth(r.Context(), d.redis),
			"rabbitmq": rabbit,
		})
	})

	api.Mount(r)

	for _, path := range actionPaths {
		r.Get(path, actionHandler.Health)
		r.With(auth.ActionToken(cfg.Auth.Required)).Post(path, actionHandler.Dispatch)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accountHandler.Register)
			r.Post("/login", accountHandler.Login)
			r.Post("/refresh", accountHandler.Refresh)
			r.With(auth.RequireToken).Get("/me", accountHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.List)
				r.Post("/", employeeHandler.Create)
				r.Get("/next-id", employeeHandler.NextID)
				r.Get("/{id}", employeeHandler.Get)
				r.Delete("/{id}", employeeHandler.Delete)
				r.Put("/{id}/digital-signature", employeeHandler.UpdateSignature)
				r.Get("/{id}/qrcode", employeeHandler.QRCode)
				r.Get("/{id}/status", punchHandler.Status)
			})

			r.Route("/punches", func(r chi.Router) {
				r.Get("/", punchHandler.List)
				r.Post("/", punchHandler.Record)
			})

			r.Get("/reports/daily", punchHandler.DailyReport)
		})
	})

	return r
}

// correlate carries the request id into published events
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := messaging.WithCorrelationID(r.Context(), httputil.GetRequestID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
