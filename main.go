package main

import (
	"fmt"
	"log"
	"os"

	"giveback/pkg/config"
	"giveback/pkg/donations"
	"giveback/pkg/logging"
	"giveback/pkg/media"
	"giveback/pkg/profile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	jwtSecret    []byte // signs the session and flash cookies
	cookieSecure bool
	logger       = zap.NewNop()

	mediaStore  *media.Store
	profiles    *profile.Service
	donationSvc *donations.Service
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err = logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	jwtSecret = cfg.JWTSecret
	cookieSecure = cfg.CookieSecure

	// `giveback migrate` runs AutoMigrate and seeding, then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.AutoMigrate = true
		if err := initDB(cfg); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		fmt.Println("migration and seeding completed")
		return
	}

	if err := initDB(cfg); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	if err := donations.RegisterSignals(db, logger); err != nil {
		logger.Fatal("signal wiring failed", zap.Error(err))
	}
	initServices(cfg.UploadBase)

	renderer, err := newTemplateRenderer(cfg.TemplateDir, logger)
	if err != nil {
		logger.Fatal("templates failed to load", zap.Error(err))
	}
	if cfg.TemplateDir != "" && cfg.TemplateWatch {
		stop, err := renderer.Watch()
		if err != nil {
			logger.Warn("template watcher disabled", zap.Error(err))
		} else {
			defer stop()
		}
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(renderer, cfg.UploadBase, cfg.LoginRatePerMin)

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func initServices(uploadBase string) {
	mediaStore = media.NewStore(uploadBase)
	profiles = profile.NewService(db, mediaStore, logger)
	donationSvc = donations.NewService(db, logger)
}

// newRouter builds the engine with middleware and routes.
func newRouter(renderer *templateRenderer, uploadBase string, loginPerMin int) *gin.Engine {
	r := gin.New()
	r.HTMLRender = renderer
	r.Use(requestLogger(logger), gin.CustomRecovery(recoverPage))
	r.Use(sessionMiddleware())
	r.Static("/"+media.PublicPrefix, uploadBase)
	setupRoutes(r, newIPLimiter(loginPerMin))
	r.NoRoute(func(c *gin.Context) { notFound(c) })
	return r
}
