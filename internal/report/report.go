// Package report post-processes the accounting exports downloaded from the
// ERP portal: the raw files repeat rows across receptions and carry every
// emission date, so runs clean them before anyone reads them.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// keyColumns define what makes two report rows the same document. A row is a
// duplicate only when every one of these matches.
var keyColumns = []string{
	"Número de Orden de Compra (OC)",
	"Ruc",
	"Factura",
	"Recepciones",
	"Secuencia de pre-registro",
}

// emissionDateColumn is the column FilterByDate matches against.
const emissionDateColumn = "Fecha de emisión de CP"

// Deduplicate reads an accounting export and writes a sibling file with the
// duplicate rows removed, keeping each document's first occurrence. The
// cleaned file is named after the input with a _limpio suffix; the original
// is left untouched. Returns the cleaned path and how many rows were
// dropped.
func Deduplicate(inputPath string) (string, int, error) {
	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return "", 0, fmt.Errorf("opening report %q: %w", inputPath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", 0, fmt.Errorf("reading report rows: %w", err)
	}
	if len(rows) == 0 {
		return "", 0, fmt.Errorf("report %q is empty", inputPath)
	}

	keyIdx, err := resolveColumns(rows[0], keyColumns)
	if err != nil {
		return "", 0, err
	}

	out := excelize.NewFile()
	defer out.Close()
	outSheet := out.GetSheetName(0)

	seen := make(map[string]struct{}, len(rows))
	written := 0
	removed := 0

	writeRow := func(row []string) error {
		written++
		cell, err := excelize.CoordinatesToCellName(1, written)
		if err != nil {
			return err
		}
		return out.SetSheetRow(outSheet, cell, &row)
	}

	if err := writeRow(rows[0]); err != nil {
		return "", 0, fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rows[1:] {
		key := rowKey(row, keyIdx)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		if err := writeRow(row); err != nil {
			return "", 0, fmt.Errorf("writing cleaned row: %w", err)
		}
	}

	outputPath := cleanedPath(inputPath)
	if err := out.SaveAs(outputPath); err != nil {
		return "", 0, fmt.Errorf("saving cleaned report: %w", err)
	}

	zap.S().Named("report").Infof("cleaned %s: %d duplicate rows removed", filepath.Base(inputPath), removed)
	return outputPath, removed, nil
}

// FilterByDate removes, in place, every data row whose emission date does
// not contain targetDate. Returns how many rows remain. The file may end up
// with only its header when no row matches.
func FilterByDate(path string, targetDate string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("opening report %q: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("reading report rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("report %q is empty", path)
	}

	dateIdx, err := resolveColumns(rows[0], []string{emissionDateColumn})
	if err != nil {
		return 0, err
	}
	col := dateIdx[0]

	kept := 0
	// walk bottom-up so deletions do not shift the rows still to visit
	for rowNum := len(rows); rowNum >= 2; rowNum-- {
		row := rows[rowNum-1]
		value := ""
		if col < len(row) {
			value = row[col]
		}
		if strings.Contains(value, targetDate) {
			kept++
			continue
		}
		if err := f.RemoveRow(sheet, rowNum); err != nil {
			return 0, fmt.Errorf("removing row %d: %w", rowNum, err)
		}
	}

	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("saving filtered report: %w", err)
	}

	logger := zap.S().Named("report")
	if kept == 0 {
		logger.Warnf("no rows in %s match date %s, only headers remain", filepath.Base(path), targetDate)
	} else {
		logger.Infof("filtered %s: %d rows kept for date %s", filepath.Base(path), kept, targetDate)
	}
	return kept, nil
}

// resolveColumns maps header names to zero-based column indexes.
func resolveColumns(header []string, names []string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		found := -1
		for i, cell := range header {
			if strings.TrimSpace(cell) == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("column %q not found in report header", name)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

// rowKey builds the duplicate key: the key cells trimmed, uppercased and
// joined. Missing trailing cells count as empty.
func rowKey(row []string, keyIdx []int) string {
	parts := make([]string, len(keyIdx))
	for i, col := range keyIdx {
		if col < len(row) {
			parts[i] = strings.ToUpper(strings.TrimSpace(row[col]))
		}
	}
	return strings.Join(parts, "\x1f")
}

func cleanedPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"_limpio.xlsx")
}
