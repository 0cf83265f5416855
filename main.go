package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tap-lab-backend/bot"
	"tap-lab-backend/handlers"
	"tap-lab-backend/models"
	"tap-lab-backend/services"
	"tap-lab-backend/store"
	"tap-lab-backend/utils"
	"tap-lab-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, allowing all origins")
		allowedOriginsEnv = "*"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOriginsString,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError turns unique violations into gorm.ErrDuplicatedKey,
	// which the store layer relies on for exactly-once guarantees.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.OffchainPoints{},
		&models.Referral{},
		&models.CompletedTask{},
		&models.Task{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	botName := os.Getenv("BOT_NAME")
	if botName == "" {
		log.Println("⚠️  BOT_NAME environment variable not set, invite links will use a placeholder")
		botName = "tap_lab_bot"
	}

	st := store.NewGormStore(db)
	tonClient := utils.NewTonClient(os.Getenv("TON_API_KEY"))

	userService := services.NewUserService(st, tonClient)
	pointsService := services.NewPointsService(st)
	referralService := services.NewReferralService(st, pointsService, botName)
	taskService := services.NewTaskService(st, pointsService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	balanceClient := workers.NewBalanceSyncClient(db, tonClient)
	go workers.PollBalances(ctx, balanceClient, 10*time.Minute)

	services.StartTaskScheduler(db)

	appLink := "https://t.me/" + botName + "/" + services.AppName
	go func() {
		if err := bot.Run(ctx, os.Getenv("BOT_TOKEN"), appLink); err != nil {
			log.Printf("❌ Bot error: %v", err)
		}
	}()

	// ✅ Setup routes — all /api/v1 routes sit behind TelegramAuth
	handlers.SetupAuthRoutes(app, userService, referralService)
	handlers.SetupPointsRoutes(app, userService, pointsService)
	handlers.SetupReferralRoutes(app, userService, referralService)
	handlers.SetupTaskRoutes(app, userService, taskService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ TON balance polling running (every 10m)")
	log.Println("✅ Task scheduler running (every 1m)")
	log.Println("✅ TelegramAuth enforced on /api/v1 — all requests must carry signed init data")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
