// Пакет atomicfile — атомарная перезапись файлов.
// Паттерн: содержимое → temp файл в той же директории → fsync → rename.
// При любой ошибке прежний файл остаётся нетронутым.
package atomicfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// filePerm — права на создаваемые файлы данных.
const filePerm = 0o640

// WriteFunc записывает содержимое файла в w.
type WriteFunc func(w io.Writer) error

// Write атомарно заменяет файл path содержимым, которое пишет fn.
// Директория создаётся, если не существует.
func Write(path string, fn WriteFunc) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	// Temp в той же директории: rename в пределах одной ФС атомарен
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	cleanup := func() {
		f.Close()
		os.Remove(tmpPath)
	}

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		cleanup()
		return fmt.Errorf("ошибка записи: %w", err)
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Chmod(filePerm); err != nil {
		cleanup()
		return fmt.Errorf("ошибка установки прав: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	syncDir(dir)
	return nil
}

// WriteBytes атомарно записывает data в path.
func WriteBytes(path string, data []byte) error {
	return Write(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// syncDir фиксирует запись о переименовании в каталоге.
// Ошибка игнорируется: не все ФС поддерживают fsync директории.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
