// Пакет spreadsheet — формат рабочей книги с регистрациями.
// Один и тот же формат используют xlsx-хранилище, экспорт (secondary sync)
// и выгрузка для администратора: лист "Registrations", строка 1 — заголовок
// (жирный шрифт, голубая заливка), данные начинаются со строки 2.
package spreadsheet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/atomicfile"
)

// SheetName — имя листа с регистрациями.
const SheetName = "Registrations"

// ContentType — MIME-тип xlsx.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// headerFill — цвет заливки заголовка.
const headerFill = "00FFFF"

// columnWidths — ширина столбцов в порядке model.Columns.
var columnWidths = []float64{25, 20, 30, 10, 10, 15, 12, 26}

// Build создаёт рабочую книгу с заголовком и записями в порядке recs.
// Вызывающий обязан закрыть книгу.
func Build(recs []model.Registration) (*excelize.File, error) {
	f := excelize.NewFile()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка переименования листа: %w", err)
	}

	if err := writeHeader(f); err != nil {
		f.Close()
		return nil, err
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := rec.Row()
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("ошибка записи строки %d: %w", i+2, err)
		}
	}

	return f, nil
}

// Write сериализует записи в xlsx и пишет в w.
func Write(w io.Writer, recs []model.Registration) error {
	f, err := Build(recs)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ошибка сериализации книги: %w", err)
	}
	return nil
}

// WriteFile атомарно перезаписывает книгу по пути path.
func WriteFile(path string, recs []model.Registration) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		return Write(w, recs)
	})
}

// Read разбирает книгу из r. Пустые строки пропускаются.
func Read(r io.Reader) ([]model.Registration, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия книги: %w", err)
	}
	defer f.Close()

	return readRows(f)
}

// ReadFile читает книгу из файла.
// Отсутствующий файл возвращает ошибку, совместимую с os.IsNotExist.
func ReadFile(path string) ([]model.Registration, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	recs, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func readRows(f *excelize.File) ([]model.Registration, error) {
	sheet := SheetName
	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		// Книга создана сторонним инструментом: берём первый лист
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheet, err)
	}

	recs := make([]model.Registration, 0, len(rows))
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		recs = append(recs, model.FromRow(row))
	}
	return recs, nil
}

func writeHeader(f *excelize.File) error {
	header := append([]string(nil), model.Columns...)
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return fmt.Errorf("ошибка создания стиля заголовка: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(model.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("ошибка применения стиля заголовка: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("ошибка установки ширины столбца %s: %w", col, err)
		}
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
