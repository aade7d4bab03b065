// Точка входа сервиса регистрации участников CyberNova.
// Загружает конфигурацию, открывает выбранное хранилище (json, xlsx,
// MongoDB или PostgreSQL с миграциями), создаёт сервисный слой и API handlers,
// запускает синхронизацию выгрузки, topologymetrics (для PostgreSQL)
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Megha-r20/CyberNova-2026/internal/api/handlers"
	"github.com/Megha-r20/CyberNova-2026/internal/config"
	"github.com/Megha-r20/CyberNova-2026/internal/database"
	"github.com/Megha-r20/CyberNova-2026/internal/gate"
	"github.com/Megha-r20/CyberNova-2026/internal/server"
	"github.com/Megha-r20/CyberNova-2026/internal/service"
	"github.com/Megha-r20/CyberNova-2026/internal/storage"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/jsonstore"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/mongostore"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/pgstore"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/xlsxstore"
)

// serviceID — имя вершины графа в topologymetrics.
const serviceID = "eventreg"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Сервис регистрации запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("Ошибка сервиса", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Сервис регистрации остановлен")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// 3. Каталог данных (файловые хранилища и выгрузка)
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать каталог данных %s: %w", cfg.DataDir, err)
	}

	// 4. Основное хранилище
	store, pgDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Ошибка закрытия хранилища", slog.String("error", err.Error()))
		}
	}()
	if pgDB != nil {
		defer pgDB.Close()
	}

	// 5. Хеш пароля администратора
	passwordHash := cfg.AdminPasswordHash
	if len(passwordHash) == 0 {
		passwordHash, err = service.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("ошибка хеширования пароля администратора: %w", err)
		}
		logger.Warn("EVR_ADMIN_PASSWORD_HASH не задан, хеш вычислен из EVR_ADMIN_PASSWORD")
	}

	// 6. Services
	syncer := service.NewExportSyncer(service.ExportSyncConfig{
		Path:     cfg.ExportPath(),
		Enabled:  cfg.SyncEnabled,
		Mode:     service.SyncMode(cfg.SyncMode),
		Attempts: cfg.SyncAttempts,
		Delay:    cfg.SyncDelay,
	}, logger)

	slots := service.NewSlotCounter(store, cfg.SlotCeiling, cfg.SlotsCacheTTL)

	registrationSvc := service.NewRegistrationService(
		store,
		gate.New(),
		slots,
		syncer,
		service.RegistrationConfig{Rules: cfg.ValidationRules()},
		logger,
	)

	authSvc := service.NewAdminAuthService(service.AdminAuthConfig{
		Email:        cfg.AdminEmail,
		PasswordHash: passwordHash,
		Secret:       cfg.JWTSecret,
		Issuer:       cfg.JWTIssuer,
		TTL:          cfg.TokenTTL,
	}, logger)

	// 7. Начальная синхронизация выгрузки при старте
	if cfg.SyncEnabled {
		if synced, count, syncErr := registrationSvc.SyncNow(ctx); syncErr != nil {
			logger.Warn("Ошибка начальной синхронизации выгрузки", slog.String("error", syncErr.Error()))
		} else {
			logger.Info("Начальная синхронизация выгрузки завершена",
				slog.Bool("synced", synced),
				slog.Int("count", count),
				slog.String("path", syncer.Path()),
			)
		}
	}

	// 8. Readiness checker и API handler
	healthHandler := handlers.NewHealthHandler(storage.NewReadinessChecker(store, cfg.StorageBackend))
	apiHandler := handlers.NewAPIHandler(healthHandler, registrationSvc, authSvc, logger)

	// 9. Запуск фоновых задач
	syncer.Start(ctx)

	// 9.1 topologymetrics — мониторинг PostgreSQL
	var dephealthSvc *service.DephealthService
	if pgDB != nil {
		dephealthSvc = startDephealth(ctx, cfg, pgDB, logger)
	}

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, authSvc)
	runErr := srv.Run()

	// 11. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	syncer.Stop()

	return runErr
}

// openStore открывает хранилище по EVR_STORAGE_BACKEND.
// Для PostgreSQL дополнительно возвращает *sql.DB поверх пула для topologymetrics.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, *sql.DB, error) {
	switch cfg.StorageBackend {
	case config.BackendXLSX:
		path := filepath.Join(cfg.DataDir, xlsxstore.DefaultFileName)
		store, err := xlsxstore.New(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Хранилище xlsx открыто", slog.String("path", path))
		return store, nil, nil

	case config.BackendMongo:
		store, err := mongostore.New(ctx, cfg.StorageURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.BackendPostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg.StorageURI, logger); err != nil {
			return nil, nil, fmt.Errorf("ошибка миграций БД: %w", err)
		}
		pool, err := database.Connect(ctx, cfg.StorageURI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
		}
		// Адаптер pgxpool → *sql.DB: проверка здоровья идёт через тот же пул.
		return pgstore.New(pool), stdlib.OpenDBFromPool(pool), nil

	default:
		path := filepath.Join(cfg.DataDir, jsonstore.DefaultFileName)
		store, err := jsonstore.New(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Хранилище json открыто", slog.String("path", path))
		return store, nil, nil
	}
}

// startDephealth запускает мониторинг PostgreSQL. Ошибки не фатальны.
func startDephealth(ctx context.Context, cfg *config.Config, pgDB *sql.DB, logger *slog.Logger) *service.DephealthService {
	if os.Getenv("EVR_DEPHEALTH_GROUP") == "" {
		logger.Warn("EVR_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	svc, err := service.NewDephealthService(
		serviceID,
		cfg.DephealthGroup,
		pgDB,
		cfg.StorageURI,
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := svc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("topologymetrics запущен",
		slog.String("group", cfg.DephealthGroup),
		slog.String("check_interval", cfg.DephealthCheckInterval.String()),
	)
	return svc
}
