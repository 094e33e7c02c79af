package main

import (
	"context"
	"log"
	"time"

	"certgate/burn"
	"certgate/config"
	activityController "certgate/controllers/activity"
	certificateController "certgate/controllers/certificate"
	notificationController "certgate/controllers/notification"
	"certgate/database"
	"certgate/feed"
	"certgate/ledger"
	"certgate/notify"
	activityRoutes "certgate/routers/activityRoutes"
	certificateRoutes "certgate/routers/certificateRoutes"
	notificationRoutes "certgate/routers/notificationRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	client := ledger.NewClient(
		config.AppConfig.LedgerRPCURL,
		config.AppConfig.ContractAddress,
		config.AppConfig.AdminAddress,
	)

	notifications := notify.NewCenter()
	grid := burn.NewGrid()
	registry := burn.NewRegistry(client, database.Database.Db, notifications, grid, config.AppConfig.TimelockSeconds)

	applier := feed.NewMirrorApplier(database.Database.Db)
	manager := feed.NewManager(applier)

	// History seeds the log first, then live subscriptions take over.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	manager.Backfill(ctx, client, config.AppConfig.LookbackBlocks)
	cancel()
	manager.Start(client)

	if err := client.StartPolling(config.AppConfig.PollIntervalSecs); err != nil {
		log.Fatalf("Failed to start ledger polling: %v", err)
	}

	certificateController.Setup(registry)
	activityController.Setup(manager)
	notificationController.Setup(notifications)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	certificateRoutes.SetupCertificateRoutes(app)
	activityRoutes.SetupActivityRoutes(app)
	notificationRoutes.SetupNotificationRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
