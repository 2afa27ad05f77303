package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/attendsure/attendance-authority/internal/attendance/admin"
	"github.com/attendsure/attendance-authority/internal/attendance/audit"
	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/directory"
	"github.com/attendsure/attendance-authority/internal/attendance/events"
	"github.com/attendsure/attendance-authority/internal/attendance/handler"
	"github.com/attendsure/attendance-authority/internal/attendance/repository"
	"github.com/attendsure/attendance-authority/internal/attendance/service"
	"github.com/attendsure/attendance-authority/pkg/config"
	"github.com/attendsure/attendance-authority/pkg/database"
	"github.com/attendsure/attendance-authority/pkg/httputil"
	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast if required office,
	// admin team or database config is missing).
	cfg, err := config.LoadWithValidation("attendance-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("attendance-service", cfg.Server.Environment)
	log.Info().Msg("starting attendance-service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	clk, err := clock.New(cfg.Office.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid office timezone")
	}

	teamClient := admin.NewHTTPTeamClient(cfg.Services.TeamServiceURL, log)
	gate := admin.New(teamClient, cfg.Office.AdminTeam)

	dirClient := directory.NewUserClient(cfg.Services.DirectoryServiceURL, log)

	employeeRepo := repository.NewEmployeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	officeRepo := repository.NewOfficeLocationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAuditEvents, "attendance-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare audit exchange")
	}
	auditWriter := audit.New(auditRepo, auditPublisher, log)

	eventPublisher, err := events.NewAttendanceEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare domain event exchanges")
	}

	attendanceEngine := service.NewAttendanceEngine(clk, attendanceRepo, employeeRepo, payrollRepo, officeRepo, auditWriter, eventPublisher, log)
	payrollEngine := service.NewPayrollEngine(clk, employeeRepo, attendanceRepo, payrollRepo, holidayRepo, leaveRepo, auditWriter, eventPublisher, log)
	adminService := service.NewAdminService(clk, employeeRepo, holidayRepo, officeRepo, dirClient, auditWriter, log)

	router := handler.New(clk, attendanceEngine, payrollEngine, adminService, gate, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "x-appwrite-user-id"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "ok",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		}
		httputil.JSON(w, health)
	})

	r.With(httputil.CallerID).Post("/", router.Handle)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("attendance-service stopped")
}
