package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventaris-backend/config"
	"inventaris-backend/controllers"
	"inventaris-backend/metrics"
	"inventaris-backend/models"
	"inventaris-backend/routes"
	"inventaris-backend/services"
	"inventaris-backend/storage"
	"inventaris-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App собранное приложение со всеми зависимостями
type App struct {
	Fiber    *fiber.App
	Sessions *services.InventorySessions
	Hub      *services.Hub
	Metrics  *metrics.Metrics
}

// NewApp строит приложение поверх готовых БД и хранилища
func NewApp(cfg *config.Config, log *logrus.Logger, db *gorm.DB, kv storage.KeyValue) *App {
	m := metrics.New()
	jwt := utils.NewJWTManager(cfg.JWTSecret)

	sessions := services.NewInventorySessions(kv, log, m)
	hub := services.NewHub(jwt, log)
	sessions.OnActivate(hub.Attach)

	// Создание Fiber приложения
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"code":    code,
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{Output: log.Writer()}))

	// CORS настройки
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Инициализация контроллеров
	authController := controllers.NewAuthController(db, jwt, log)
	userController := controllers.NewUserController(db, sessions, log)
	inventoryController := controllers.NewInventoryController(sessions, log)

	// Настройка маршрутов
	routes.SetupSystemRoutes(app, m)
	routes.SetupAuthRoutes(app, authController)
	routes.SetupWebSocketRoutes(app, hub, sessions)

	api := app.Group("/api", jwt.Middleware())
	routes.SetupUserRoutes(api, userController)
	routes.SetupInventoryRoutes(api, inventoryController)

	return &App{Fiber: app, Sessions: sessions, Hub: hub, Metrics: m}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	log := config.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	// Инициализация базы данных
	db, err := models.InitDB(models.DBConfig{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Автомиграция
	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	ctx := context.Background()
	kv, err := storage.Open(ctx, cfg.StorageConfig(), db)
	if err != nil {
		log.WithError(err).Fatal("Failed to open inventory storage")
	}
	log.WithField("driver", kv.Driver()).Info("Inventory storage ready")

	app := NewApp(cfg, log, db, kv)
	go app.Hub.Run()

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := app.Fiber.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	// Дописываем ожидающие снимки инвентаря
	if err := app.Sessions.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Inventory sessions did not flush")
	}
}
