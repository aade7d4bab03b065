// Пакет pgstore — хранилище регистраций в PostgreSQL.
// Все запросы — чистый SQL через pgx. Схема создаётся миграциями пакета database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/storage"
)

// dbtx — общий интерфейс *pgxpool.Pool и pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// constraintFields — имя уникального индекса → поле записи.
var constraintFields = map[string]string{
	"uniq_registrations_registration_number": "registrationNumber",
	"uniq_registrations_email":               "email",
	"uniq_registrations_mobile":              "mobile",
}

const columns = `id, full_name, registration_number, email, year, section,
	mobile, whatsapp_joined, registered_at`

// Store — хранилище в PostgreSQL поверх пула pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// New создаёт хранилище. Пул принадлежит вызывающему, но закрывается в Close.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load возвращает записи в порядке вставки.
func (s *Store) Load(ctx context.Context) ([]model.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations ORDER BY seq`, columns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения регистраций: %w", err)
	}
	defer rows.Close()

	recs := []model.Registration{}
	for rows.Next() {
		var (
			r  model.Registration
			at time.Time
		)
		if err := rows.Scan(
			&r.ID, &r.FullName, &r.RegistrationNumber, &r.Email, &r.Year,
			&r.Section, &r.Mobile, &r.WhatsappJoined, &at,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования регистрации: %w", err)
		}
		r.Timestamp = model.FormatTimestamp(at)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации регистраций: %w", err)
	}
	return recs, nil
}

// Append вставляет одну запись.
func (s *Store) Append(ctx context.Context, rec model.Registration) error {
	return insert(ctx, s.pool, rec)
}

// ReplaceAll заменяет набор записей в одной транзакции.
func (s *Store) ReplaceAll(ctx context.Context, recs []model.Registration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if _, err := tx.Exec(ctx, `DELETE FROM registrations`); err != nil {
		return fmt.Errorf("ошибка очистки таблицы: %w", err)
	}
	for _, rec := range recs {
		if err := insert(ctx, tx, rec); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Clear удаляет все записи.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM registrations`); err != nil {
		return fmt.Errorf("ошибка очистки таблицы: %w", err)
	}
	return nil
}

// Count возвращает количество записей.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM registrations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта регистраций: %w", err)
	}
	return n, nil
}

// Ping проверяет подключение.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул.
func (s *Store) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

func insert(ctx context.Context, db dbtx, rec model.Registration) error {
	at, err := model.ParseTimestamp(rec.Timestamp)
	if err != nil {
		return fmt.Errorf("некорректное время регистрации %q: %w", rec.Timestamp, err)
	}

	query := fmt.Sprintf(`INSERT INTO registrations (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, columns)

	_, err = db.Exec(ctx, query,
		rec.ID, rec.FullName, rec.RegistrationNumber, rec.Email, rec.Year,
		rec.Section, rec.Mobile, rec.WhatsappJoined, at,
	)
	if err != nil {
		if key, ok := uniqueViolation(err); ok {
			return &storage.DuplicateKeyError{Key: key, Err: err}
		}
		return fmt.Errorf("ошибка вставки регистрации: %w", err)
	}
	return nil
}

// uniqueViolation проверяет нарушение уникальности и возвращает поле записи.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}
	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return field, true
	}
	for name, field := range constraintFields {
		if strings.Contains(pgErr.Message, name) {
			return field, true
		}
	}
	return "", true
}
