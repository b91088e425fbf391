package app

import (
	"net/http"

	"tiktask/internal/auth"
	"tiktask/internal/cache"
	"tiktask/internal/config"
	dom "tiktask/internal/domain"
	"tiktask/internal/handlers"
	"tiktask/internal/repo"
	"tiktask/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	_ "tiktask/docs"
)

// access levels a route may demand. The routing table below is the single
// place the access-control policy lives.
type access int

const (
	public access = iota
	authenticated
	adminOnly
)

// route is one entry of the explicit routing table: method, path, required
// access level, handler.
type route struct {
	method  string
	path    string
	access  access
	handler gin.HandlerFunc
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	var taskCache *cache.TaskCache
	if rdb != nil {
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}
	SetupAPI(r, cfg, repo.NewPGUserRepo(db), repo.NewPGTaskRepo(db), taskCache)
}

// SetupAPI wires services and handlers over the given repositories and
// registers the /api routing table. Split from Setup so tests can mount the
// full surface over fakes.
func SetupAPI(r *gin.Engine, cfg config.Config, users repo.UserRepo, tasks repo.TaskRepo, taskCache *cache.TaskCache) {
	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL.Duration())

	authSvc := service.NewAuthService(users, tokens)
	authHandler := handlers.NewAuthHandler(authSvc)

	taskSvc := service.NewTaskService(tasks, taskCache)
	taskHandler := handlers.NewTaskHandler(taskSvc)

	registerRoutes(r.Group("/api"), tokens, routeTable(authHandler, taskHandler))
}

// routeTable lists every API route with its access requirement.
func routeTable(ah *handlers.AuthHandler, th *handlers.TaskHandler) []route {
	return []route{
		{http.MethodPost, "/auth/register", public, ah.Register},
		{http.MethodPost, "/auth/login", public, ah.Login},

		{http.MethodGet, "/tasks", authenticated, th.List},
		{http.MethodGet, "/tasks/all", adminOnly, th.ListAll},
		{http.MethodGet, "/tasks/:id", authenticated, th.GetByID},
		{http.MethodPost, "/tasks", authenticated, th.Create},
		{http.MethodPut, "/tasks/:id", authenticated, th.Update},
		{http.MethodPatch, "/tasks/:id/complete", authenticated, th.ToggleComplete},
		{http.MethodDelete, "/tasks/:id", authenticated, th.Delete},
	}
}

// registerRoutes walks the table and attaches the middleware each access
// level demands.
func registerRoutes(api *gin.RouterGroup, tokens *auth.Manager, table []route) {
	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireRole(dom.RoleAdmin)

	for _, rt := range table {
		var chain []gin.HandlerFunc
		switch rt.access {
		case authenticated:
			chain = append(chain, requireAuth)
		case adminOnly:
			chain = append(chain, requireAuth, requireAdmin)
		}
		chain = append(chain, rt.handler)
		api.Handle(rt.method, rt.path, chain...)
	}
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "TikTask API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}
