// Пакет config — загрузка и валидация конфигурации сервиса регистрации
// из переменных окружения EVR_*.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Поддерживаемые бэкенды хранилища.
const (
	BackendJSON     = "json"
	BackendXLSX     = "xlsx"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Режимы синхронизации выгрузки.
const (
	SyncModeInline     = "inline"
	SyncModeBackground = "background"
)

// minJWTSecretLen — минимальная длина секрета подписи токенов (байт).
const minJWTSecretLen = 16

// ExportFileName — имя файла вторичной выгрузки в каталоге данных.
const ExportFileName = "cybernova_export.xlsx"

// Config содержит все параметры конфигурации сервиса регистрации.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённый источник CORS (адрес фронтенда)
	CORSOrigin string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 15s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 30s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Администратор ---

	// Секрет подписи HS256
	JWTSecret []byte
	// Издатель токенов (claim iss)
	JWTIssuer string
	// Время жизни токена администратора
	TokenTTL time.Duration
	// E-mail администратора (необязателен)
	AdminEmail string
	// bcrypt-хеш пароля администратора
	AdminPasswordHash []byte
	// Пароль в открытом виде; хешируется при старте, если хеш не задан
	AdminPassword string

	// --- Хранилище ---

	// Бэкенд: json, xlsx, mongo, postgres
	StorageBackend string
	// URI MongoDB или DSN PostgreSQL
	StorageURI string
	// База данных MongoDB
	MongoDatabase string
	// Коллекция MongoDB
	MongoCollection string
	// Каталог файловых хранилищ и выгрузки
	DataDir string

	// --- Слоты ---

	// Потолок регистраций (0 — без ограничения)
	SlotCeiling int
	// TTL кэша количества записей
	SlotsCacheTTL time.Duration

	// --- Синхронизация выгрузки ---

	SyncEnabled  bool
	SyncMode     string
	SyncAttempts int
	SyncDelay    time.Duration

	// --- Валидация ---

	// Допустимые значения курса
	AllowedYears []string
	// Подстроки институционального e-mail
	EmailMarkers []string

	// --- Dephealth (только postgres) ---

	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 10s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EVR_PORT — порт HTTP-сервера (по умолчанию 3001)
	cfg.Port, err = getEnvInt("EVR_PORT", 3001)
	if err != nil {
		return nil, fmt.Errorf("EVR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EVR_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// EVR_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EVR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EVR_LOG_LEVEL: %w", err)
	}

	// EVR_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("EVR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EVR_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// EVR_CORS_ORIGIN — адрес фронтенда (по умолчанию dev-сервер Vite)
	cfg.CORSOrigin = getEnvDefault("EVR_CORS_ORIGIN", "http://localhost:5173")

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("EVR_HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("EVR_HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("EVR_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Администратор ---

	// EVR_JWT_SECRET — секрет подписи токенов (обязательный)
	secret, err := getEnvRequired("EVR_JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(secret) < minJWTSecretLen {
		return nil, fmt.Errorf("EVR_JWT_SECRET: длина должна быть не меньше %d байт", minJWTSecretLen)
	}
	cfg.JWTSecret = []byte(secret)

	cfg.JWTIssuer = getEnvDefault("EVR_JWT_ISSUER", "cybernova")

	// EVR_TOKEN_TTL — время жизни токена (по умолчанию 6h)
	cfg.TokenTTL, err = getEnvDuration("EVR_TOKEN_TTL", 6*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EVR_TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("EVR_TOKEN_TTL: значение должно быть > 0")
	}

	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(os.Getenv("EVR_ADMIN_EMAIL")))

	// EVR_ADMIN_PASSWORD_HASH | EVR_ADMIN_PASSWORD — одна из двух обязательна
	if hash := os.Getenv("EVR_ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.AdminPasswordHash = []byte(hash)
	}
	cfg.AdminPassword = os.Getenv("EVR_ADMIN_PASSWORD")
	if len(cfg.AdminPasswordHash) == 0 && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("EVR_ADMIN_PASSWORD_HASH или EVR_ADMIN_PASSWORD: обязательная переменная окружения не задана")
	}

	// --- Хранилище ---

	// EVR_STORAGE_BACKEND — бэкенд хранилища (по умолчанию json)
	cfg.StorageBackend = strings.ToLower(getEnvDefault("EVR_STORAGE_BACKEND", BackendJSON))
	switch cfg.StorageBackend {
	case BackendJSON, BackendXLSX:
	case BackendMongo, BackendPostgres:
		cfg.StorageURI, err = getEnvRequired("EVR_STORAGE_URI")
		if err != nil {
			return nil, fmt.Errorf("EVR_STORAGE_BACKEND=%s: %w", cfg.StorageBackend, err)
		}
	default:
		return nil, fmt.Errorf("EVR_STORAGE_BACKEND: недопустимый бэкенд %q, допустимые: json, xlsx, mongo, postgres",
			cfg.StorageBackend)
	}

	cfg.MongoDatabase = getEnvDefault("EVR_MONGO_DATABASE", "cybernova")
	cfg.MongoCollection = getEnvDefault("EVR_MONGO_COLLECTION", "registrations")
	cfg.DataDir = getEnvDefault("EVR_DATA_DIR", "data")

	// --- Слоты ---

	// EVR_SLOT_CEILING — потолок регистраций (по умолчанию 100, 0 — без ограничения)
	cfg.SlotCeiling, err = getEnvInt("EVR_SLOT_CEILING", 100)
	if err != nil {
		return nil, fmt.Errorf("EVR_SLOT_CEILING: %w", err)
	}
	if cfg.SlotCeiling < 0 {
		return nil, fmt.Errorf("EVR_SLOT_CEILING: значение должно быть >= 0")
	}

	cfg.SlotsCacheTTL, err = getEnvDuration("EVR_SLOTS_CACHE_TTL", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_SLOTS_CACHE_TTL: %w", err)
	}

	// --- Синхронизация выгрузки ---

	cfg.SyncEnabled, err = getEnvBool("EVR_SYNC_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("EVR_SYNC_ENABLED: %w", err)
	}

	cfg.SyncMode = strings.ToLower(getEnvDefault("EVR_SYNC_MODE", SyncModeInline))
	if cfg.SyncMode != SyncModeInline && cfg.SyncMode != SyncModeBackground {
		return nil, fmt.Errorf("EVR_SYNC_MODE: недопустимый режим %q, допустимые: inline, background", cfg.SyncMode)
	}

	cfg.SyncAttempts, err = getEnvInt("EVR_SYNC_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("EVR_SYNC_ATTEMPTS: %w", err)
	}
	if cfg.SyncAttempts < 1 {
		return nil, fmt.Errorf("EVR_SYNC_ATTEMPTS: значение должно быть >= 1")
	}

	cfg.SyncDelay, err = getEnvDuration("EVR_SYNC_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("EVR_SYNC_DELAY: %w", err)
	}

	// --- Валидация ---

	cfg.AllowedYears = parseCSV(os.Getenv("EVR_ALLOWED_YEARS"))
	if len(cfg.AllowedYears) == 0 {
		cfg.AllowedYears = validation.DefaultYears
	}
	cfg.EmailMarkers = parseCSV(os.Getenv("EVR_EMAIL_MARKERS"))
	if len(cfg.EmailMarkers) == 0 {
		cfg.EmailMarkers = validation.DefaultEmailMarkers
	}

	// --- Dephealth ---

	cfg.DephealthGroup = getEnvDefault("EVR_DEPHEALTH_GROUP", "cybernova")
	cfg.DephealthCheckInterval, err = getEnvDuration("EVR_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("EVR_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EVR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// ValidationRules возвращает настраиваемые правила проверки заявок.
func (c *Config) ValidationRules() validation.Rules {
	return validation.Rules{Years: c.AllowedYears, EmailMarkers: c.EmailMarkers}
}

// ExportPath возвращает путь файла вторичной выгрузки.
func (c *Config) ExportPath() string {
	return filepath.Join(c.DataDir, ExportFileName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
