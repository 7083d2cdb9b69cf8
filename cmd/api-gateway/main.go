package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/router"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/internal/validator"
	"github.com/noah-isme/enrollment-api/migrations"
	"github.com/noah-isme/enrollment-api/pkg/cache"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/database"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

// @title Enrollment API
// @version 1.0.0
// @description Many-to-many enrollment of students and courses.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	response.ExposeInternalDetail(cfg.Errors.ExposeDetail)

	ctx := context.Background()

	if cfg.Migrations.AutoApply {
		version, err := migrations.Up(cfg.Database.URL())
		if err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
		logr.Sugar().Infow("migrations applied", "version", version)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Catalog)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, "enrollment", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, redisClient != nil)

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)

	query := service.NewEnrollmentQueryService(students, courses, enrollments, cacheSvc, logr)
	mutation := service.NewEnrollmentMutationService(students, courses, enrollments, query, metrics, validate, logr)
	roster := service.NewRosterService(query, logr)

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}

	engine := router.New(cfg, router.Handlers{
		CourseWithStudent: handler.NewCourseWithStudentHandler(query, mutation, roster),
		StudentWithCourse: handler.NewStudentWithCourseHandler(query, mutation),
		Student:           handler.NewStudentHandler(service.NewStudentService(students, cacheSvc, validate, logr)),
		Course:            handler.NewCourseHandler(service.NewCourseService(courses, cacheSvc, validate, logr)),
		Metrics:           handler.NewMetricsHandler(metrics, checks),
	}, metrics, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
