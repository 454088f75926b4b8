package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Praitheesh/alf.io/config"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
	adminapp_event "github.com/Praitheesh/alf.io/internal/module/adminapp/event"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/location"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/organization"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/ticket"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/token"
	"github.com/Praitheesh/alf.io/internal/pkg/jwt"
	internalMiddleare "github.com/Praitheesh/alf.io/internal/pkg/middleware"
	"github.com/Praitheesh/alf.io/internal/pkg/session"
	"github.com/Praitheesh/alf.io/migrations"
	"github.com/Praitheesh/alf.io/pkg/applogger"
	"github.com/Praitheesh/alf.io/pkg/gctasks"
	"github.com/Praitheesh/alf.io/pkg/kafka"
	"github.com/Praitheesh/alf.io/pkg/middleware"
	"github.com/Praitheesh/alf.io/pkg/monitoring"
	"github.com/Praitheesh/alf.io/pkg/postgresql"
	"github.com/Praitheesh/alf.io/pkg/pubsub"
	"github.com/Praitheesh/alf.io/pkg/redis"
	"github.com/Praitheesh/alf.io/pkg/server"
	"github.com/Praitheesh/alf.io/pkg/validator"
)

var (
	c *config.Config
)

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	if err := migrations.Up(psqldb); err != nil {
		logger.WithContext(ctx).WithError(err).Fatal("an error occurred while applying database migrations")
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.ServiceAccount)

	sessionStore := session.NewRedisSessionStore(logger, rc)

	adminSessionMiddleware := internalMiddleare.NewAdminSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// admin's app
	adminappEventRepo := adminapp_event.NewEventRepository(logger, psqldb)
	adminappCategoryRepo := category.NewCategoryRepository(logger, psqldb)
	adminappTicketRepo := ticket.NewTicketRepository(logger, psqldb)
	adminappSpecialPriceRepo := token.NewSpecialPriceRepository(logger, psqldb)
	adminappMembershipRepo := organization.NewMembershipRepository(logger, psqldb)
	geocodeRepo := location.NewGeocodeRepository(c.Geocoding.BaseURL, c.Geocoding.APIKey, logger, hc)

	adminappEventUseCase := adminapp_event.NewEventUseCase(adminapp_event.EventUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		BaseURL:                c.Application.BaseURL,
		InventoryTopic:         c.Kafka.InventoryTopic,
		EventRepository:        adminappEventRepo,
		CategoryRepository:     adminappCategoryRepo,
		TicketRepository:       adminappTicketRepo,
		SpecialPriceRepository: adminappSpecialPriceRepo,
		MembershipRepository:   adminappMembershipRepo,
		GeocodeRepository:      geocodeRepo,
		Publisher:              publisher,
		CloudTask:              cloudTask,
	})
	adminapp_event.InitHTTPHandler(router, adminSessionMiddleware, validate, adminappEventUseCase)

	adminappCategoryUseCase := adminapp_event.NewCategoryUseCase(adminapp_event.CategoryUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		BaseURL:                c.Application.BaseURL,
		InventoryTopic:         c.Kafka.InventoryTopic,
		EventRepository:        adminappEventRepo,
		CategoryRepository:     adminappCategoryRepo,
		TicketRepository:       adminappTicketRepo,
		SpecialPriceRepository: adminappSpecialPriceRepo,
		MembershipRepository:   adminappMembershipRepo,
		Publisher:              publisher,
		CloudTask:              cloudTask,
	})
	adminapp_event.InitCategoryHTTPHandler(router, adminSessionMiddleware, validate, adminappCategoryUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	psqldb.Close()
	rc.Close()
	if cloudTask != nil {
		cloudTask.Close()
	}
	mon.Stop(ctx)
}
