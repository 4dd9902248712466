package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/shanegiles-web/gymnastics-platform/config"
	"github.com/shanegiles-web/gymnastics-platform/internal/consumer"
	"github.com/shanegiles-web/gymnastics-platform/internal/handler"
	"github.com/shanegiles-web/gymnastics-platform/internal/jobs"
	mw "github.com/shanegiles-web/gymnastics-platform/internal/middleware"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
	"github.com/shanegiles-web/gymnastics-platform/internal/service"
	"github.com/shanegiles-web/gymnastics-platform/pkg/database"
	"github.com/shanegiles-web/gymnastics-platform/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.SetLevel(log.INFO)
	} else {
		log.SetLevel(log.DEBUG)
	}
	loc := cfg.Location()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Repositories
	tx := repository.NewTransactor(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)

	// RabbitMQ: publish domain events, mirror students and facilities
	var publisher service.EventPublisher
	if cfg.RabbitEnabled {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewRosterConsumer(studentRepo, facilityRepo).Start(msgs)
	} else {
		log.Warn("RabbitMQ disabled: domain events will not be published")
	}

	// Services
	classSvc := service.NewClassService(classRepo)
	scheduleSvc := service.NewScheduleService(classRepo, scheduleRepo, exceptionRepo)
	instanceSvc := service.NewInstanceService(classRepo, scheduleRepo, exceptionRepo, instanceRepo, facilityRepo, publisher, loc)
	enrollmentSvc := service.NewEnrollmentService(tx, classRepo, studentRepo, enrollmentRepo, publisher)
	templateSvc := service.NewTemplateService(tx, templateRepo, classRepo, scheduleRepo)

	// Background jobs
	if cfg.JobsEnabled {
		c := jobs.NewCron()
		runner := jobs.NewRunner(classRepo, instanceSvc, rateLimitRepo, cfg.GenerationHorizonDays, loc)
		if err := runner.Schedule(c, cfg.GenerationCron, cfg.StatusCron); err != nil {
			log.Fatalf("failed to schedule jobs: %v", err)
		}
		c.Start()
		defer c.Stop()
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = mw.NewValidator()
	e.HTTPErrorHandler = mw.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.RequestID())
	e.Use(mw.RateLimiter(mw.NewCounterStore(rateLimitRepo, cfg.RateLimitWindow, cfg.RateLimitMaxRequests)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "class-service"})
	})

	api := e.Group("/api/v1", mw.Authenticate(cfg.JWTSecret), mw.ValidateTenant())
	handler.NewClassHandler(classSvc, scheduleSvc, instanceSvc, enrollmentSvc, templateSvc).RegisterRoutes(api)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Class Service starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
}
