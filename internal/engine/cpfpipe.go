package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/celerix-dev/celerix-extract/pkg/cpf"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

// Summary CSV headers.
const (
	HeaderUnique     = "Quantidade de CPFs"
	HeaderDuplicates = "Quantidade de CPFs Duplicados"
)

const sampleSize = 5

// CPFOptions selects where CPFs are read from and where the summary goes.
type CPFOptions struct {
	Element    string // element local name, e.g. Cli
	Attribute  string // attribute holding the CPF, e.g. Cd
	OutputName string // file name written into the output directory
}

// DefaultCPFOptions returns the options used when none are configured.
func DefaultCPFOptions() CPFOptions {
	return CPFOptions{
		Element:    "Cli",
		Attribute:  "Cd",
		OutputName: "resultado_cpfs.csv",
	}
}

func (o CPFOptions) withDefaults() CPFOptions {
	def := DefaultCPFOptions()
	if o.Element == "" {
		o.Element = def.Element
	}
	if o.Attribute == "" {
		o.Attribute = def.Attribute
	}
	if o.OutputName == "" {
		o.OutputName = def.OutputName
	}
	return o
}

// CountCPFs scans the XML document at path for CPFs, tallies the valid ones
// and writes the summary CSV into outDir. Nothing is written on failure.
func CountCPFs(path, outDir string, opts CPFOptions) (*schema.CPFReport, error) {
	opts = opts.withDefaults()
	log := slog.With("pipeline", schema.KindCPF, "input", path)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &InputError{Path: path, Err: ErrFileNotFound}
	}
	if err != nil {
		return nil, err
	}
	values, err := ScanAttributes(f, opts.Element, opts.Attribute)
	f.Close()
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	var tally cpf.Tally
	for _, v := range values {
		if cpf.Valid(v) {
			tally.Add(v)
		}
	}
	unique := tally.Unique()
	dups := tally.Duplicates()
	log.Debug("scan complete", "values", len(values), "unique", len(unique), "duplicates", len(dups))

	out := filepath.Join(outDir, opts.OutputName)
	err = WriteAtomic(out, func(w io.Writer) error {
		return WriteSummaryCSV(w, unique, dups)
	})
	if err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	log.Info("summary written", "output", out, "unique", len(unique), "duplicates", len(dups))

	return &schema.CPFReport{
		Message:         cpfMessage(unique, dups, out),
		TotalUnique:     len(unique),
		TotalDuplicates: len(dups),
		Unique:          unique,
		Duplicates:      dups,
		OutputFile:      out,
	}, nil
}

// WriteSummaryCSV writes the two-column summary: totals on the first data
// row, then unique CPFs beside duplicated ones. The shorter column is padded
// with empty cells.
func WriteSummaryCSV(w io.Writer, unique []string, dups []cpf.Duplicate) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{HeaderUnique, HeaderDuplicates},
		{fmt.Sprintf("Total: %d", len(unique)), fmt.Sprintf("Total: %d", len(dups))},
	}
	for i := 0; i < max(len(unique), len(dups)); i++ {
		var left, right string
		if i < len(unique) {
			left = unique[i]
		}
		if i < len(dups) {
			right = dups[i].String()
		}
		records = append(records, []string{left, right})
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func cpfMessage(unique []string, dups []cpf.Duplicate, out string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total unique valid CPFs: %d\n", len(unique))
	if len(unique) > 0 {
		fmt.Fprintf(&b, "Sample CPFs: %s\n", strings.Join(unique[:min(len(unique), sampleSize)], ", "))
	}
	fmt.Fprintf(&b, "Total duplicated CPFs: %d\n", len(dups))
	if len(dups) > 0 {
		parts := make([]string, len(dups))
		for i, d := range dups {
			parts[i] = d.String()
		}
		fmt.Fprintf(&b, "Duplicated CPFs: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "CSV file generated: %s", out)
	return b.String()
}
