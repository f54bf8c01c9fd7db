package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"inventaris-backend/config"
	"inventaris-backend/models"
	"inventaris-backend/services"
	"inventaris-backend/storage"

	"github.com/sirupsen/logrus"
)

const usage = `Usage: import_inventory -user <id> -file <records.json> [-config config.yaml]

Загружает JSON-выгрузку мобильного клиента (массив записей) в инвентарь аккаунта.
Коллекция аккаунта перезаписывается целиком.

Перед импортом остановите сервер: активная сессия аккаунта при следующем
сохранении перезапишет импортированные записи.
`

var errUsage = errors.New("user and file are required")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import_inventory", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	userID := fs.Uint("user", 0, "account ID")
	file := fs.String("file", "", "JSON file with inventory records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == 0 || *file == "" {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log.Level, "text", stdout)

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("Ошибка чтения файла: %w", err)
	}
	var records []models.InventoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("Ошибка разбора JSON: %w", err)
	}

	// Подключаемся к БД
	db, err := models.InitDB(models.DBConfig{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath, Silent: true})
	if err != nil {
		return fmt.Errorf("Ошибка подключения к БД: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("Ошибка миграции БД: %w", err)
	}

	ctx := context.Background()
	kv, err := storage.Open(ctx, cfg.StorageConfig(), db)
	if err != nil {
		return fmt.Errorf("Ошибка открытия хранилища: %w", err)
	}

	log.WithField("user_id", *userID).Warn("Импорт пишет напрямую в хранилище, сервер должен быть остановлен")

	store := services.NewInventoryStore(storage.WithPrefix(kv, storage.UserPrefix(*userID)))
	if err := store.Save(ctx, records); err != nil {
		return fmt.Errorf("Ошибка сохранения инвентаря: %w", err)
	}

	log.WithFields(logrus.Fields{"user_id": *userID, "records": len(records)}).Info("Инвентарь импортирован")
	return nil
}
