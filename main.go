package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/swimhub/reservation-service/config"
	"github.com/swimhub/reservation-service/internal/consumer"
	"github.com/swimhub/reservation-service/internal/handler"
	"github.com/swimhub/reservation-service/internal/invalidator"
	"github.com/swimhub/reservation-service/internal/middleware"
	"github.com/swimhub/reservation-service/internal/repository"
	"github.com/swimhub/reservation-service/internal/service"
	"github.com/swimhub/reservation-service/pkg/database"
	"github.com/swimhub/reservation-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ consumer: sync course/member read models from the catalog
	// and account services.
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	// RabbitMQ publisher: best-effort cache invalidation for the
	// statistics service.
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect RabbitMQ publisher: %v", err)
	}
	defer publisher.Close()

	// Repositories
	courseRepo := repository.NewCourseRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	entranceRepo := repository.NewEntranceRepository(db)

	catalogConsumer := consumer.NewCatalogConsumer(courseRepo, memberRepo)
	catalogConsumer.Start(msgs)

	// Services
	inval := invalidator.NewAMQP(publisher)
	reservationSvc := service.NewReservationService(courseRepo, reservationRepo, inval)
	entranceSvc := service.NewEntranceService(entranceRepo, memberRepo, reservationSvc, inval)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	api := e.Group("/api/v1", middleware.RequireAuth(cfg.JWTSecret))
	handler.NewReservationHandler(reservationSvc).RegisterRoutes(api)
	handler.NewEntranceHandler(entranceSvc).RegisterRoutes(api)

	log.Printf("Reservation Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
