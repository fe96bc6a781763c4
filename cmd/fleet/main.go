package main

import (
	"log"
	"os"
	"time"

	v1 "go_fleet/api/v1"
	"go_fleet/internal/auth"
	"go_fleet/internal/cache"
	"go_fleet/internal/config"
	"go_fleet/internal/db"
	"go_fleet/internal/playback"
	"go_fleet/internal/status"
	"go_fleet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	logger := logrus.NewEntry(newLogger())

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		log.Println("✓ Database migrated")
	}

	// 3. Initialize Redis (optional; locks and caches degrade without it)
	if cfg.Redis.Addr != "" {
		if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
			os.Exit(1)
		}
		defer cache.Close()
	} else {
		log.Println("! Redis not configured, running without cache")
	}

	// 4. Initialize auth primitives
	auth.InitJWT(cfg.JWT.Secret)
	auth.InitSecretBox(cfg.SecretKey)

	// 5. Start background workers
	statusWorker := status.NewWorker(&status.Config{
		DB: db.DB,
		Fetcher: status.ClientFetcher{
			Timeout: time.Duration(cfg.StatusWorker.TimeoutSec) * time.Second,
		},
		Logger:               logger,
		IntervalSec:          cfg.StatusWorker.IntervalSec,
		OfflineFailThreshold: cfg.StatusWorker.OfflineFailThreshold,
		Concurrency:          cfg.StatusWorker.Concurrency,
	})
	if cfg.StatusWorker.Enabled {
		statusWorker.Start()
		defer statusWorker.Stop()
	}

	if cfg.PlaybackCollector.Enabled {
		collector := playback.NewCollector(&playback.CollectorConfig{
			DB:          db.DB,
			Fetcher:     playback.ClientFetcher{},
			Logger:      logger,
			IntervalSec: cfg.PlaybackCollector.IntervalSec,
			LockTTLSec:  cfg.PlaybackCollector.LockTTLSec,
			Concurrency: cfg.PlaybackCollector.Concurrency,
		})
		collector.Start()
		defer collector.Stop()
	}

	// 6. Initialize Socket.IO for live deploy progress
	if err := ws.InitServer(db.DB, cfg.RolloutPoller.IntervalSec, logger); err != nil {
		log.Fatalf("Failed to initialize Socket.IO: %v", err)
		os.Exit(1)
	}

	// 7. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	v1.SetupRouter(r, db.DB, cfg, v1.Deps{
		StatusWorker: statusWorker,
		Logger:       logger,
	})

	socketHandler := ws.WrapWithAuth(ws.Server)
	r.GET("/socket.io/*any", gin.WrapH(socketHandler))
	r.POST("/socket.io/*any", gin.WrapH(socketHandler))

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
