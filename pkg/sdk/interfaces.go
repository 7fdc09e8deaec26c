package sdk

import (
	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

// Pipeline failures, shared with the engine so errors.Is works the same for
// local and remote runs.
var (
	ErrFileNotFound = engine.ErrFileNotFound
	ErrInvalidJSON  = engine.ErrInvalidJSON
	ErrNotObject    = engine.ErrNotObject
	ErrInvalidXML   = engine.ErrInvalidXML
	ErrNoTables     = engine.ErrNoTables
)

// --- Functional Interfaces (Interface Segregation) ---

// WorkbookExtractor converts a JSON document into a workbook.
type WorkbookExtractor interface {
	ExtractJSON(path, outDir string) (*schema.JSONReport, error)
}

// CPFCounter counts the CPFs of an XML document into a summary CSV.
type CPFCounter interface {
	CountCPFs(path, outDir string) (*schema.CPFReport, error)
}

// CPFValidator checks a single CPF.
type CPFValidator interface {
	ValidateCPF(value string) (bool, error)
}

// --- Composite Interfaces ---

// Extractor is the primary interface for running the pipelines.
// Output files always land in outDir on the caller's machine.
type Extractor interface {
	WorkbookExtractor
	CPFCounter
	CPFValidator
}
