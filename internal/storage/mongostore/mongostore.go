// Пакет mongostore — хранилище регистраций в коллекции MongoDB.
// Уникальные индексы по registrationNumber, email и mobile — страховка
// на уровне БД; основная проверка дубликатов выполняется сервисом под gate.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/storage"
)

// connectTimeout — таймаут установления соединения при старте.
const connectTimeout = 10 * time.Second

// uniqueKeys — поля с уникальным индексом. Индекс называется uniq_<поле>.
var uniqueKeys = []string{"registrationNumber", "email", "mobile"}

// Store — хранилище в MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// New подключается к MongoDB по uri, проверяет соединение и создаёт индексы.
func New(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDB недоступна: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		logger: logger.With(slog.String("component", "mongostore")),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s.logger.Info("Подключение к MongoDB установлено",
		slog.String("database", database),
		slog.String("collection", collection),
	)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(uniqueKeys))
	for _, key := range uniqueKeys {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_" + key),
		})
	}
	models = append(models, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().SetName("idx_timestamp"),
	})

	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("ошибка создания индексов: %w", err)
	}
	return nil
}

// Load возвращает записи по возрастанию timestamp (порядок записи).
func (s *Store) Load(ctx context.Context) ([]model.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения коллекции: %w", err)
	}
	defer cur.Close(ctx)

	recs := []model.Registration{}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("ошибка декодирования записей: %w", err)
	}
	return recs, nil
}

// Append вставляет один документ.
func (s *Store) Append(ctx context.Context, rec model.Registration) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ReplaceAll удаляет все документы и вставляет recs.
// Операция не транзакционна: одиночный сервер MongoDB транзакций не поддерживает.
func (s *Store) ReplaceAll(ctx context.Context, recs []model.Registration) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	docs := make([]any, len(recs))
	for i := range recs {
		docs[i] = recs[i]
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Clear удаляет все документы коллекции.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("ошибка очистки коллекции: %w", err)
	}
	return nil
}

// Count возвращает количество документов.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта документов: %w", err)
	}
	return int(n), nil
}

// Ping проверяет соединение с primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close закрывает соединение.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mapWriteError преобразует ошибку дубликата ключа в storage.DuplicateKeyError.
func mapWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("ошибка записи в MongoDB: %w", err)
	}
	return &storage.DuplicateKeyError{Key: duplicateKey(err), Err: err}
}

// duplicateKey определяет поле по имени нарушенного индекса в тексте ошибки.
func duplicateKey(err error) string {
	msg := err.Error()
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		msg = we.WriteErrors[0].Message
	}
	for _, key := range uniqueKeys {
		if strings.Contains(msg, "uniq_"+key) {
			return key
		}
	}
	return ""
}
