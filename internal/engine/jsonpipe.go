package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/tidwall/gjson"
)

// ProcessJSON converts the JSON document at path into a workbook in outDir,
// one sheet per table extracted with l. Nothing is written on failure.
func ProcessJSON(path, outDir string, l layout.Layout) (*schema.JSONReport, error) {
	log := slog.With("pipeline", schema.KindJSON, "input", path)

	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, &InputError{Path: path, Err: ErrInvalidJSON}
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &InputError{Path: path, Err: ErrNotObject}
	}

	tables := ExtractTables(doc, l)
	if len(tables) == 0 {
		return nil, &InputError{Path: path, Err: ErrNoTables}
	}

	out := filepath.Join(outDir, l.Workbook)
	err = WriteAtomic(out, func(w io.Writer) error {
		return WriteWorkbook(w, tables)
	})
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	log.Info("workbook written", "output", out, "tables", len(tables))

	return &schema.JSONReport{
		Message:    jsonMessage(tables, out),
		Tables:     tables,
		OutputFile: out,
	}, nil
}

func jsonMessage(tables []schema.Table, out string) string {
	var b strings.Builder
	b.WriteString("JSON file processed successfully.\n")
	fmt.Fprintf(&b, "Total tables generated: %d\n", len(tables))
	b.WriteString("Tables created:\n")
	for _, t := range tables {
		if t.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", t.Name)
		}
	}
	fmt.Fprintf(&b, "Excel file generated: %s", out)
	return b.String()
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &InputError{Path: path, Err: ErrFileNotFound}
	}
	return data, err
}
