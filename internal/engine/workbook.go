package engine

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/xuri/excelize/v2"
)

// columnPadding is added to the longest cell of each column.
const columnPadding = 2

// WriteWorkbook writes tables as the sheets of one XLSX workbook, in order.
// Each sheet starts with a header row, and every column is sized to its
// longest cell.
func WriteWorkbook(w io.Writer, tables []schema.Table) error {
	if len(tables) == 0 {
		return ErrNoTables
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("sheet %q: %w", t.Name, err)
		}

		if err := writeSheet(f, t); err != nil {
			return fmt.Errorf("sheet %q: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, t schema.Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for i := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &t.Rows[i]); err != nil {
			return err
		}
	}

	for i, width := range ColumnWidths(t) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(t.Name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidths returns, per column, the character count of the longest
// rendered cell (header included) plus padding, capped at the workbook limit.
func ColumnWidths(t schema.Table) []float64 {
	longest := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		longest[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i >= len(longest) {
				break
			}
			if n := utf8.RuneCountInString(renderCell(v)); n > longest[i] {
				longest[i] = n
			}
		}
	}

	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = min(float64(n+columnPadding), excelize.MaxColumnWidth)
	}
	return widths
}

func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
