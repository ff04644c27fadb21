package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/auth"
	"github.com/reelops/reelops-api/internal/config"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/http/handlers"
	"github.com/reelops/reelops-api/internal/http/middlewares"
	"github.com/reelops/reelops-api/internal/observability"
	"github.com/reelops/reelops-api/internal/ratelimit"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UserRepo interface {
	handlers.UserStore
	handlers.UserSearcher
}

type ProjectRepo interface {
	handlers.ProjectStore
	access.ProjectOwners
}

type MemberRepo interface {
	handlers.MemberStore
	access.Memberships
}

// Deps are the collaborators built by cmd/api. DB and DBTime may be nil
// when running on the in-memory store.
type Deps struct {
	Users    UserRepo
	Projects ProjectRepo
	Members  MemberRepo

	Tokens  *auth.Manager
	Limiter ratelimit.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	DB     handlers.Pinger
	DBTime func(ctx context.Context) (time.Time, error)
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// ClientIP must come from the socket unless a proxy list is configured
	_ = r.SetTrustedProxies(nil)

	// middleware

	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(deps.DB, deps.DBTime)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	gate := access.NewGate(deps.Projects, deps.Members, deps.Prom)

	routes := routeSet{
		health:   health,
		auth:     handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Prom),
		users:    handlers.NewUsersHandler(deps.Users),
		projects: handlers.NewProjectsHandler(deps.Projects, gate),
		castCrew: handlers.NewCastCrewHandler(deps.Members, gate),
		authMW:   middlewares.NewAuthMiddleware(deps.Tokens),
		throttle: middlewares.RateLimit(limiter, middlewares.KeyByIP),
	}

	// the front end calls everything under /api
	routes.mount(r.Group(""))
	routes.mount(r.Group("/api"))

	return r
}

type routeSet struct {
	health   *handlers.HealthHandler
	auth     *handlers.AuthHandler
	users    *handlers.UsersHandler
	projects *handlers.ProjectsHandler
	castCrew *handlers.CastCrewHandler
	authMW   *middlewares.AuthMiddleware
	throttle gin.HandlerFunc
}

func (rs routeSet) mount(g *gin.RouterGroup) {
	g.GET("/health", rs.health.Health)

	authGroup := g.Group("/auth")
	authGroup.POST("/register", rs.throttle, rs.auth.Register)
	authGroup.POST("/login", rs.throttle, rs.auth.Login)
	authGroup.GET("/me", rs.authMW.RequireAuth(), rs.auth.Me)

	secured := g.Group("")
	secured.Use(rs.authMW.RequireAuth())

	managers := rs.authMW.RequireRoles(user.RoleAdmin, user.RoleProducer)
	adminOnly := rs.authMW.RequireRoles(user.RoleAdmin)

	secured.GET("/users", managers, rs.users.SearchUsers)

	secured.GET("/projects", rs.projects.ListProjects)
	secured.GET("/projects/:id", rs.projects.GetProject)
	secured.POST("/projects", managers, rs.projects.CreateProject)
	secured.PUT("/projects/:id", managers, rs.projects.UpdateProject)
	secured.DELETE("/projects/:id", adminOnly, rs.projects.DeleteProject)

	secured.GET("/projects/:id/cast-crew", rs.castCrew.ListMembers)
	secured.POST("/projects/:id/cast-crew", managers, rs.castCrew.AddMember)
	secured.PUT("/projects/:id/cast-crew/:memberId", managers, rs.castCrew.UpdateMember)
	secured.DELETE("/projects/:id/cast-crew/:memberId", managers, rs.castCrew.RemoveMember)
}
