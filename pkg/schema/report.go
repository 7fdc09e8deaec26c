// Package schema defines the records shared by the pipelines, the SDK, and the daemon.
package schema

import (
	"time"

	"github.com/celerix-dev/celerix-extract/pkg/cpf"
)

// Table is one named output table. For workbooks each table becomes a sheet.
// Cells hold strings, int64, float64, bool, or nil for an empty cell.
type Table struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
}

// JSONReport is the outcome of flattening a JSON document into a workbook.
type JSONReport struct {
	Message    string  `json:"message"`
	Tables     []Table `json:"tables"`
	OutputFile string  `json:"output_file"`
}

// CPFReport is the outcome of counting CPFs in an XML document.
type CPFReport struct {
	Message         string          `json:"message"`
	TotalUnique     int             `json:"total_unique"`
	TotalDuplicates int             `json:"total_duplicates"`
	Unique          []string        `json:"unique"`
	Duplicates      []cpf.Duplicate `json:"duplicates"`
	OutputFile      string          `json:"output_file"`
}

// Pipeline kinds.
const (
	KindJSON = "json"
	KindCPF  = "cpf"
)

// Job statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Job records one daemon run for the run history.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	InputName string    `json:"input_name"`
	Status    string    `json:"status"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Artifact  string    `json:"artifact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
