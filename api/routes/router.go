// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/cancellation"
	"tourly/internal/modifications"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/policies"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/internal/shared/txn"
	"tourly/internal/tours"
	"tourly/pkg/cache"
	"tourly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.EventProducer
	gateway  payments.Gateway
	log      *logger.Logger

	// Shared between features once initialized.
	bookingService bookings.Service
	policyService  policies.Service
	tourRepo       tours.Repository
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.EventProducer, gateway payments.Gateway, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
		gateway:  gateway,
		log:      log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Shared collaborators first so the workflows can consume them.
		r.setupTourRoutes(api)
		r.setupPolicyRoutes(api)
		r.setupBookingRoutes(api)

		r.setupCancellationRoutes(api)
		r.setupModificationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tourly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tourly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupTourRoutes configures tour and schedule read routes
func (r *Router) setupTourRoutes(rg *gin.RouterGroup) {
	r.tourRepo = tours.NewRepository(r.db.GetPostgreSQL())
	tourService := tours.NewService(r.tourRepo)
	tourController := tours.NewController(tourService)

	tours.SetupTourRoutes(rg, tourController)
}

// setupPolicyRoutes configures cancellation policy management routes
func (r *Router) setupPolicyRoutes(rg *gin.RouterGroup) {
	policyRepo := policies.NewRepository(r.db.GetPostgreSQL())
	cacheService := cache.NewService(r.db.GetRedisClient())
	r.policyService = policies.NewService(policyRepo, cacheService, r.log)
	policyController := policies.NewController(r.policyService)

	policies.SetupPolicyRoutes(rg, policyController)
}

// setupBookingRoutes configures booking read routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	r.bookingService = bookings.NewService(bookingRepo)
	bookingController := bookings.NewController(r.bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupCancellationRoutes configures the cancellation workflow routes
func (r *Router) setupCancellationRoutes(rg *gin.RouterGroup) {
	cancellationRepo := cancellation.NewRepository(r.db.GetPostgreSQL())
	cancellationService := cancellation.NewService(
		cancellationRepo,
		txn.NewRunner(r.db.GetPostgreSQL()),
		r.bookingService,
		r.policyService,
		r.gateway,
		r.producer,
		r.config.Engine,
		r.log,
	)
	cancellationController := cancellation.NewController(cancellationService)

	cancellation.SetupCancellationRoutes(rg, cancellationController)
}

// setupModificationRoutes configures the modification workflow routes
func (r *Router) setupModificationRoutes(rg *gin.RouterGroup) {
	modificationRepo := modifications.NewRepository(r.db.GetPostgreSQL())
	pricer := modifications.NewPricer(r.tourRepo, r.config.Engine)
	modificationService := modifications.NewService(
		modificationRepo,
		txn.NewRunner(r.db.GetPostgreSQL()),
		r.bookingService,
		pricer,
		r.tourRepo,
		r.gateway,
		r.producer,
		r.config.Engine,
		r.log,
	)
	modificationController := modifications.NewController(modificationService)

	modifications.SetupModificationRoutes(rg, modificationController)
}
