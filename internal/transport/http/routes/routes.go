package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/transport/http/handlers"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth        *usecase.AuthService
	Students    *usecase.StudentService
	Teachers    *usecase.TeacherService
	Courses     *usecase.CourseService
	Departments *usecase.DepartmentService
	Profiles    *usecase.ProfileService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Checkers    []Checker
}

// Checker exposes readiness behaviour for a backing dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	r.Use(middleware.Compress())

	healthOptions := make([]handlers.HealthOption, 0, len(deps.Checkers))
	for _, checker := range deps.Checkers {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck(checker.Name(), checker.Check))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		if deps.Services.Auth != nil {
			authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Auth)
			authHandler.RegisterRoutes(api.Group("/auth"), buildLoginMiddlewares(deps)...)

			protected := api.Group("")
			protected.Use(middleware.RequireSession(deps.Services.Auth, deps.Config.Auth.CookieName))
			protected.Use(buildPrincipalMiddlewares(deps)...)

			if deps.Services.Students != nil && deps.Services.Teachers != nil {
				handlers.NewRecordHandler(
					deps.Services.Students,
					deps.Services.Teachers,
					deps.Config.Records.CascadeOwnerDelete,
				).RegisterRoutes(protected)
			}

			if deps.Services.Courses != nil && deps.Services.Departments != nil {
				handlers.NewCatalogueHandler(deps.Services.Courses, deps.Services.Departments).RegisterRoutes(protected)
			}

			if deps.Services.Profiles != nil {
				handlers.NewProfileHandler(deps.Services.Profiles).RegisterRoutes(protected)
			}
		}
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     windowOrDefault(deps.Config.RateLimit.WindowDuration),
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func buildPrincipalMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}

	limit := deps.Config.RateLimit.PrincipalMaxRequests
	if limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       "api_principal",
		Limit:      limit,
		Window:     windowOrDefault(deps.Config.RateLimit.WindowDuration),
		Identifier: middleware.PrincipalIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func windowOrDefault(window time.Duration) time.Duration {
	if window <= 0 {
		return time.Minute
	}
	return window
}
