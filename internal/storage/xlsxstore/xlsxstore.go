// Пакет xlsxstore — хранилище регистраций в рабочей книге Excel.
// Книга перечитывается и перезаписывается целиком при каждой мутации
// (через atomicfile: сбой посреди записи не портит прежний файл).
package xlsxstore

import (
	"context"
	"fmt"
	"os"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/spreadsheet"
)

// DefaultFileName — имя книги в директории данных.
const DefaultFileName = "cybernova_registrations.xlsx"

// Store — хранилище в xlsx-файле.
type Store struct {
	path string
}

// New открывает книгу по пути path; создаёт книгу с заголовком, если её нет.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := spreadsheet.WriteFile(path, nil); err != nil {
			return nil, fmt.Errorf("не удалось создать %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("ошибка доступа к %s: %w", path, err)
	}

	return s, nil
}

// Path возвращает путь к книге.
func (s *Store) Path() string {
	return s.path
}

// Load читает строки начиная со второй.
// Идентификатор записи в книге не хранится: у загруженных записей ID пуст.
func (s *Store) Load(_ context.Context) ([]model.Registration, error) {
	recs, err := spreadsheet.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Registration{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения книги: %w", err)
	}
	return recs, nil
}

// Append добавляет строку в конец листа.
func (s *Store) Append(ctx context.Context, rec model.Registration) error {
	recs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.ReplaceAll(ctx, append(recs, rec))
}

// ReplaceAll перезаписывает книгу набором recs.
func (s *Store) ReplaceAll(_ context.Context, recs []model.Registration) error {
	if err := spreadsheet.WriteFile(s.path, recs); err != nil {
		return fmt.Errorf("ошибка записи книги %s: %w", s.path, err)
	}
	return nil
}

// Clear оставляет в книге только заголовок.
func (s *Store) Clear(ctx context.Context) error {
	return s.ReplaceAll(ctx, nil)
}

// Ping проверяет, что книга существует.
func (s *Store) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("книга %s недоступна: %w", s.path, err)
	}
	return nil
}

// Close — ресурсов не удерживает.
func (s *Store) Close(_ context.Context) error {
	return nil
}
