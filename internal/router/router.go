package router

import (
	"net/http"

	"yayasan/api/swagger"
	"yayasan/internal/config"
	"yayasan/internal/handler"
	"yayasan/internal/metrics"
	"yayasan/internal/middleware"
	"yayasan/internal/repository"
	"yayasan/internal/service"
	"yayasan/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// This is set at build time.
var version = "0.0.0"

// App holds the wired router and the parts the caller has to run or close.
type App struct {
	Engine *gin.Engine
	Hub    *websocket.Hub
	Roles  service.RoleService
}

// New wires repositories, services and handlers onto a fresh gin engine.
// Metrics are registered with and served from reg.
func New(cfg config.Config, db *gorm.DB, reg *prometheus.Registry) (*App, error) {
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}

	r := gin.New()

	// Send a HTTP 405 (Method not allowed) for all paths where there is
	// a handler, but not for the specific method used
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithSkipPath([]string{"/health", "/metrics"}),
		logger.WithLogger(func(c *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return log.Logger.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Logger()
		})))
	r.Use(middleware.Metrics())

	if len(cfg.CORSAllowOrigins) > 0 {
		log.Debug().Strs("origins", cfg.CORSAllowOrigins).Msg("CORS")
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: true,
		}))
	}

	// Disable the gin debug route printing as it clutters logs (and test logs)
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}
	_ = r.SetTrustedProxies(nil)

	hub := websocket.NewHub(cfg.CORSAllowOrigins)

	// Repository -> Service -> Handler
	tx := repository.NewTransactionManager(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	scopeRepo := repository.NewScopeRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	roleService := service.NewRoleService(tx, roleRepo)
	identityService := service.NewIdentityService(staffRepo, userRepo)
	ledgerService := service.NewLedgerService(tx, ledgerRepo, auditRepo, hub)
	submissionService := service.NewSubmissionService(tx, submissionRepo, ledgerRepo, ledgerService, auditRepo, hub, cfg.HeadOfficeBranch)
	userService := service.NewUserService(tx, userRepo, staffRepo, auditRepo, cfg.JWTSecret, cfg.JWTTTL)
	staffService := service.NewStaffService(tx, staffRepo, auditRepo, hub)
	scopeService := service.NewScopeService(scopeRepo)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	auth := middleware.NewAuth(cfg.JWTSecret, identityService, roleService)

	swagger.SwaggerInfo.Version = version

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", auth.Authenticate(), hub.ServeWs)

	if cfg.EnablePprof {
		pprof.Register(r, "debug/pprof")
	}

	root := r.Group("")
	handler.NewUserHandler(userService, auth, cfg.JWTTTL, cfg.GinMode == gin.ReleaseMode).RegisterRoutes(root)
	handler.NewSubmissionHandler(submissionService, auth).RegisterRoutes(root)
	handler.NewLedgerHandler(ledgerService, auth).RegisterRoutes(root)
	handler.NewStaffHandler(staffService, auth).RegisterRoutes(root)
	handler.NewScopeHandler(scopeService, auth).RegisterRoutes(root)
	handler.NewAuditHandler(auditService, auth).RegisterRoutes(root)
	handler.NewRoleHandler(roleService, auth).RegisterRoutes(root)
	handler.NewStatisticsHandler(statisticsService, auth).RegisterRoutes(root)

	return &App{Engine: r, Hub: hub, Roles: roleService}, nil
}
