package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"scholarmate/auth"
	"scholarmate/cache"
	"scholarmate/config"
	"scholarmate/mailer"
	"scholarmate/models"
	"scholarmate/providers/llm"
	"scholarmate/providers/openapi"
	"scholarmate/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.User{}, &models.UserScholarship{}, &models.Wishlist{},
		&models.RawScholarship{}, &models.Scholarship{},
		&models.Post{}, &models.Comment{}, &models.PostLike{}, &models.PostBookmark{},
		&models.Conversation{}, &models.ConversationParticipant{}, &models.DirectMessage{},
		&models.Notice{}, &models.ContactMessage{},
	)

	// Setup Cache
	var store cache.Cache
	redisCache, err := cache.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logging.Warn("Redis unavailable, using in-process cache", zap.Error(err))
		store = cache.NewMemory()
	} else {
		logging.Info("Connected to Redis.")
		store = redisCache
	}

	// Setup Mailer
	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg)
	} else {
		logging.Warn("SMTP_HOST not set, emails will only be logged")
		mail = &mailer.LogOnly{Logger: logging}
	}

	// Setup Providers
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	apiClient := openapi.NewClient(cfg, logging)
	llmProvider := llm.NewOpenAI(cfg, logging)

	// Setup Services
	syncService := services.NewSyncService(db, apiClient, logging)
	regionService := services.NewRegionService(db, llmProvider, logging)
	recommendService := services.NewRecommendationService(db, llmProvider, logging)
	codeService := services.NewCodeService(store, mail, logging)
	codeService.CodeTTL = time.Duration(cfg.CodeTTL) * time.Second
	codeService.CooldownTTL = time.Duration(cfg.CodeCooldown) * time.Second
	codeService.VerifiedTTL = time.Duration(cfg.VerifiedTTL) * time.Second

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "scholarmate"})
	})

	// Setup Routes
	setupAuthRoutes(router, db, cfg, jwtManager, codeService, logging)
	setupScholarshipRoutes(router, db, jwtManager, recommendService, llmProvider, logging)
	setupAdminRoutes(router, jwtManager, syncService, regionService, logging)
	setupUserInfoRoutes(router, db, jwtManager, logging)
	setupCommunityRoutes(router, db, jwtManager, logging)
	setupNoticeRoutes(router, db, jwtManager, logging)
	setupContactRoutes(router, db, cfg, jwtManager, mail, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.SyncCronSchedule, func() {
		logging.Info("Running scheduled scholarship sync...")
		result, err := syncService.Run(context.Background())
		if err != nil {
			logging.Error("Scheduled sync failed", zap.Error(err))
			return
		}
		logging.Info("Scheduled sync completed",
			zap.Int("raw_rows", result.RawRows), zap.Int("curated", result.Curated))
	})
	cronScheduler.AddFunc(cfg.RegionCronSchedule, func() {
		logging.Info("Running scheduled region normalization...")
		processed, err := regionService.ProcessPending(context.Background())
		if err != nil {
			logging.Error("Scheduled region normalization failed", zap.Error(err))
			return
		}
		logging.Info("Scheduled region normalization completed", zap.Int("processed", processed))
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}
