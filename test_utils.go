package main

import (
	"io"

	"inventaris-backend/config"
	"inventaris-backend/models"
	"inventaris-backend/storage"
	"inventaris-backend/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "inventaris-test-secret"

// setupTestDB создает тестовую базу данных в памяти
func setupTestDB() *gorm.DB {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	models.AutoMigrate(db)
	return db
}

// setupTestApp собирает приложение поверх SQLite в памяти и хранилища в памяти
func setupTestApp() (*App, *storage.Memory) {
	kv := storage.NewMemory()
	return setupTestAppWith(kv), kv
}

// setupTestAppWith собирает приложение поверх заданного хранилища (имитация перезапуска)
func setupTestAppWith(kv storage.KeyValue) *App {
	cfg := config.Default()
	cfg.JWTSecret = testJWTSecret
	log := config.NewLogger("error", "text", io.Discard)

	app := NewApp(cfg, log, setupTestDB(), kv)
	go app.Hub.Run()
	return app
}

// generateTestJWT создает тестовый JWT токен для указанного пользователя
func generateTestJWT(userID uint) string {
	token, _ := utils.NewJWTManager(testJWTSecret).Generate(userID, "user@test.com")
	return token
}
