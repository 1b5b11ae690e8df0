package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lingoclass/internal/auth"
	"lingoclass/internal/config"
	"lingoclass/internal/handler"
	"lingoclass/internal/metering"
	"lingoclass/internal/metrics"
	"lingoclass/internal/middleware"
	"lingoclass/internal/repository/postgres"
	"lingoclass/internal/service"
	"lingoclass/internal/service/authz"
	"lingoclass/internal/service/quota"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// policyReloadInterval bounds how stale role bindings can get when a
// membership changes outside this service.
const policyReloadInterval = 5 * time.Minute

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := config.NewLogger(cfg.Environment, logOutput)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, tables, cfg.TablePrefix, logger); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

	redisClient, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	sessionStore := auth.NewRedisSessionStore(redisClient)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)
	acquiredConns, totalConns := postgres.PoolStats(pool)
	metrics.RegisterPoolStats(registry, acquiredConns, totalConns)

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	teacherRepo := postgres.NewTeacherRepository(repoConfig)
	orgRepo := postgres.NewOrganizationRepository(repoConfig)
	programRepo := postgres.NewProgramRepository(repoConfig)
	classroomRepo := postgres.NewClassroomRepository(repoConfig)
	pointsRepo := postgres.NewPointsRepository(repoConfig)
	grantRepo := postgres.NewPermissionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Policy engine
	policy := authz.NewCasbinPolicy(orgRepo, grantRepo, logger)
	if err := policy.Reload(ctx); err != nil {
		log.Fatalf("Failed to load permission policy: %v", err)
	}
	go reloadPolicy(ctx, policy, logger)

	meteringRegistry, err := metering.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load metering registry: %v", err)
	}
	logger.Info("metering registry loaded", "features", len(meteringRegistry.FeatureNames()))

	// Services
	resolver := authz.NewResolver(orgRepo, programRepo, policy, appMetrics, logger)
	ledger := quota.NewLedger(meteringRegistry, logger)
	quotaService := quota.NewService(pointsRepo, txManager, ledger, appMetrics, logger)

	programService := service.NewProgramService(programRepo, orgRepo, resolver, logger)
	classroomService := service.NewClassroomService(classroomRepo, orgRepo, resolver, logger)
	permissionService := service.NewPermissionService(orgRepo, grantRepo, policy, logger)
	usageService := service.NewUsageService(quotaService, resolver, meteringRegistry, logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(pool, logger)
	programHandler := handler.NewProgramHandler(programService, logger)
	classroomHandler := handler.NewClassroomHandler(classroomService, logger)
	pointsHandler := handler.NewPointsHandler(usageService, logger)
	permissionHandler := handler.NewPermissionHandler(permissionService, logger)
	sessionHandler := handler.NewSessionHandler(sessionStore, cfg.SessionTTL, appMetrics, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Teaching materials
	mux.HandleFunc("GET /api/programs/{id}", programHandler.GetProgram)
	mux.HandleFunc("PATCH /api/programs/{id}", programHandler.UpdateProgram)
	mux.HandleFunc("DELETE /api/programs/{id}", programHandler.DeleteProgram)
	mux.HandleFunc("GET /api/lessons/{id}", programHandler.GetLesson)
	mux.HandleFunc("PATCH /api/lessons/{id}", programHandler.UpdateLesson)
	mux.HandleFunc("GET /api/contents/{id}", programHandler.GetContent)
	mux.HandleFunc("PATCH /api/contents/{id}", programHandler.UpdateContent)
	mux.HandleFunc("GET /api/organizations/{id}/programs", programHandler.ListOrganizationPrograms)
	mux.HandleFunc("GET /api/schools/{id}/programs", programHandler.ListSchoolPrograms)

	// Personal classrooms
	mux.HandleFunc("POST /api/teachers/classrooms/{id}/students", classroomHandler.CreateStudent)
	mux.HandleFunc("PATCH /api/teachers/classrooms/{id}", classroomHandler.UpdateClassroom)
	mux.HandleFunc("DELETE /api/teachers/classrooms/{id}", classroomHandler.DeleteClassroom)

	// School classrooms
	mux.HandleFunc("POST /api/schools/{schoolID}/classrooms/{id}/students", classroomHandler.CreateSchoolStudent)
	mux.HandleFunc("PATCH /api/schools/{schoolID}/classrooms/{id}", classroomHandler.UpdateSchoolClassroom)
	mux.HandleFunc("DELETE /api/schools/{schoolID}/classrooms/{id}", classroomHandler.DeleteSchoolClassroom)

	// Points
	mux.HandleFunc("GET /api/organizations/{id}/points", pointsHandler.GetOrganizationPoints)
	mux.HandleFunc("POST /api/organizations/{id}/points/check", pointsHandler.CheckOrganizationPoints)
	mux.HandleFunc("POST /api/organizations/{id}/points/deduct", pointsHandler.DeductOrganizationPoints)
	mux.HandleFunc("GET /api/organizations/{id}/points/logs", pointsHandler.ListOrganizationLogs)
	mux.HandleFunc("GET /api/teachers/me/quota", pointsHandler.GetTeacherQuota)
	mux.HandleFunc("POST /api/teachers/me/quota/deduct", pointsHandler.DeductTeacherQuota)

	// Permissions
	mux.HandleFunc("POST /api/organizations/{id}/permissions", permissionHandler.Grant)
	mux.HandleFunc("DELETE /api/organizations/{id}/permissions", permissionHandler.Revoke)

	// Sessions
	mux.HandleFunc("DELETE /api/auth/session", sessionHandler.Logout)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Metrics → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, sessionStore, teacherRepo, logger, "/health", "/metrics")(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.Metrics(appMetrics, mux)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// reloadPolicy rebuilds role bindings from the database until ctx ends.
// A failed reload keeps the previous policy.
func reloadPolicy(ctx context.Context, policy *authz.CasbinPolicy, logger *slog.Logger) {
	ticker := time.NewTicker(policyReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := policy.Reload(ctx); err != nil {
				logger.Warn("policy reload failed", "error", err)
			}
		}
	}
}
