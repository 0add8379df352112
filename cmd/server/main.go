package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/logan676/bookpost-sub002/internal/cache"
	"github.com/logan676/bookpost-sub002/internal/collab"
	"github.com/logan676/bookpost-sub002/internal/handlers"
	"github.com/logan676/bookpost-sub002/internal/httpx"
	"github.com/logan676/bookpost-sub002/internal/middleware"
	"github.com/logan676/bookpost-sub002/internal/repository"
	"github.com/logan676/bookpost-sub002/internal/scheduler"
	"github.com/logan676/bookpost-sub002/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "BookPost Reading Engine",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	statsCache := cache.NewStatsCache(redisCache)
	leaderboardCache := cache.NewLeaderboardCache(redisCache)

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	statRepo := repository.NewDailyStatRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// Collaborator adapters (book catalog and follow graph live in
	// the same database, owned by other services)
	catalog := collab.NewDBCatalog(db)
	social := collab.NewDBSocialGraph(db)

	// Initialize services
	streakService := service.NewStreakService(statRepo, profileRepo)
	milestoneService := service.NewMilestoneService(milestoneRepo, statRepo, profileRepo)
	badgeService := service.NewBadgeService(badgeRepo, statRepo, profileRepo, challengeRepo)
	challengeService := service.NewChallengeService(challengeRepo, statRepo)
	aggregateService := service.NewAggregateService(
		statRepo, profileRepo, catalog,
		streakService, milestoneService, badgeService, challengeService,
	)
	sessionService := service.NewSessionService(sessionRepo, catalog, aggregateService)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, statRepo, social)
	statsService := service.NewStatsService(statRepo, profileRepo)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService, statsCache)
	statsHandler := handlers.NewStatsHandler(statsService, milestoneService, statsCache)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, leaderboardCache)
	badgeHandler := handlers.NewBadgeHandler(badgeService)

	// Background sweeps
	sched := scheduler.NewScheduler(
		sessionService, leaderboardService,
		streakService, milestoneService, badgeService, challengeService,
		statRepo, profileRepo, jobRepo,
	)
	sched.Start()

	// Protected routes
	api := app.Group("/api", middleware.AuthRequired())

	sessions := api.Group("/sessions", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, err := httpx.LocalUint(c, "userID"); err == nil {
				return "sessions:" + strconv.FormatUint(uint64(uid), 10)
			}
			return c.IP()
		},
	}))
	sessions.Post("/", sessionHandler.StartSession)
	sessions.Get("/active", sessionHandler.ListActive)
	sessions.Post("/:id/heartbeat", sessionHandler.Heartbeat)
	sessions.Post("/:id/pause", sessionHandler.Pause)
	sessions.Post("/:id/resume", sessionHandler.Resume)
	sessions.Post("/:id/end", sessionHandler.EndSession)

	api.Get("/stats", statsHandler.GetStats)
	api.Get("/stats/milestones", statsHandler.GetMilestones)
	api.Get("/stats/profile", statsHandler.GetProfile)
	api.Put("/stats/timezone", statsHandler.SetTimezone)

	api.Get("/badges", badgeHandler.GetBadges)

	api.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	api.Post("/leaderboard/:user_id/like", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, err := httpx.LocalUint(c, "userID"); err == nil {
				return "like:" + strconv.FormatUint(uint64(uid), 10)
			}
			return c.IP()
		},
	}), leaderboardHandler.LikeUser)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Reading engine is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
