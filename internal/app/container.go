package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/AngelG-buaa/DB/internal/api"
	"github.com/AngelG-buaa/DB/internal/auth"
	"github.com/AngelG-buaa/DB/internal/booking"
	"github.com/AngelG-buaa/DB/internal/equipment"
	"github.com/AngelG-buaa/DB/internal/laboratory"
	"github.com/AngelG-buaa/DB/internal/pkg/logger"
	"github.com/AngelG-buaa/DB/internal/pkg/metrics"
	"github.com/AngelG-buaa/DB/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	Location     *time.Location // zone of booking dates and times, UTC when nil

	// Registry receives the collectors; nil means prometheus.DefaultRegisterer.
	Registry *prometheus.Registry

	// Optional side effects of booking writes.
	Events        booking.EventPublisher
	TimelineCache booking.TimelineCache
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	Metrics        *metrics.Metrics
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Registry != nil {
		m = metrics.NewWithRegistry(cfg.Registry)
		gatherer = cfg.Registry
	} else {
		m = metrics.New()
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Laboratory Module
	labRepo := laboratory.NewPgxRepository(cfg.DBPool)
	labService := laboratory.NewService(labRepo)

	// Equipment Module
	equipmentRepo := equipment.NewPgxRepository(cfg.DBPool)
	equipmentService := equipment.NewService(equipmentRepo, labService)

	// Booking Module
	opts := []booking.Option{
		booking.WithLocation(cfg.Location),
		booking.WithLogger(logger.With(zap.String("component", "booking"))),
		booking.WithMetrics(m),
	}
	if cfg.Events != nil {
		opts = append(opts, booking.WithPublisher(cfg.Events))
	}
	if cfg.TimelineCache != nil {
		opts = append(opts, booking.WithTimelineCache(cfg.TimelineCache))
	}
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, labService, equipmentService, opts...)

	router := api.NewRouter(api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		UserService:      userService,
		LabService:       labService,
		EquipmentService: equipmentService,
		BookingService:   bookingService,
		JWTManager:       jwtManager,
		Metrics:          m,
		Gatherer:         gatherer,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		Metrics:        m,
		BookingService: bookingService,
	}
}
