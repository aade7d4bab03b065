// Пакет jsonstore — хранилище регистраций в одном JSON-файле (массив записей).
// Каждая мутация перечитывает файл и перезаписывает его целиком атомарно.
// Конкурентные мутации должны сериализоваться вызывающим (gate.Gate).
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/atomicfile"
)

// DefaultFileName — имя файла в директории данных.
const DefaultFileName = "registrations.json"

// Store — файловое JSON-хранилище.
type Store struct {
	path string
}

// New открывает хранилище по пути path; создаёт пустой файл, если его нет.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(nil); err != nil {
			return nil, fmt.Errorf("не удалось создать %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("ошибка доступа к %s: %w", path, err)
	}

	return s, nil
}

// Path возвращает путь к файлу.
func (s *Store) Path() string {
	return s.path
}

// Load читает все записи в порядке записи.
func (s *Store) Load(_ context.Context) ([]model.Registration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Registration{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Registration{}, nil
	}

	var recs []model.Registration
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", s.path, err)
	}
	if recs == nil {
		recs = []model.Registration{}
	}
	return recs, nil
}

// Append добавляет запись в конец массива.
func (s *Store) Append(ctx context.Context, rec model.Registration) error {
	recs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.write(append(recs, rec))
}

// ReplaceAll перезаписывает файл набором recs.
func (s *Store) ReplaceAll(_ context.Context, recs []model.Registration) error {
	return s.write(recs)
}

// Clear записывает пустой массив.
func (s *Store) Clear(_ context.Context) error {
	return s.write(nil)
}

// Ping проверяет, что файл доступен для чтения.
func (s *Store) Ping(_ context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("файл %s недоступен: %w", s.path, err)
	}
	return f.Close()
}

// Close — ресурсов не удерживает.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) write(recs []model.Registration) error {
	if recs == nil {
		recs = []model.Registration{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации записей: %w", err)
	}
	if err := atomicfile.WriteBytes(s.path, data); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	return nil
}
