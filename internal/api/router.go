package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelG-buaa/DB/internal/auth"
	"github.com/AngelG-buaa/DB/internal/booking"
	bookingHttp "github.com/AngelG-buaa/DB/internal/booking/http"
	"github.com/AngelG-buaa/DB/internal/equipment"
	equipmentHttp "github.com/AngelG-buaa/DB/internal/equipment/http"
	"github.com/AngelG-buaa/DB/internal/laboratory"
	labHttp "github.com/AngelG-buaa/DB/internal/laboratory/http"
	"github.com/AngelG-buaa/DB/internal/pkg/metrics"
	"github.com/AngelG-buaa/DB/internal/user"
	userHttp "github.com/AngelG-buaa/DB/internal/user/http"
)

type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService      user.Service
	LabService       laboratory.Service
	EquipmentService equipment.Service
	BookingService   booking.Service
	JWTManager       *auth.JWTManager

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
}

// NewRouter assembles the global middleware and registers every module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(RequestID(), RequestLogger(), gin.Recovery())
	if cfg.Metrics != nil {
		r.Use(Prometheus(cfg.Metrics))
	}

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // frontend dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", headerRequestID}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Identity from the JWT, then the role from the user store.
	authMiddleware := chain(auth.AuthRequired(cfg.JWTManager), LoadActor(cfg.UserService))
	staffMiddleware := RequireStaff()
	adminMiddleware := RequireAdmin()

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHttp.NewHandler(cfg.UserService, cfg.JWTManager), authMiddleware, staffMiddleware, adminMiddleware)
		labHttp.RegisterRoutes(v1, labHttp.NewHandler(cfg.LabService), authMiddleware, staffMiddleware)
		equipmentHttp.RegisterRoutes(v1, equipmentHttp.NewHandler(cfg.EquipmentService), authMiddleware, staffMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHttp.NewHandler(cfg.BookingService), authMiddleware, staffMiddleware)
	}

	return r
}

// chain runs handlers in order inside one middleware, stopping once any aborts.
// The handlers must not call c.Next.
func chain(handlers ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
