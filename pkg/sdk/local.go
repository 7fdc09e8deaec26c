package sdk

import (
	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/celerix-dev/celerix-extract/pkg/cpf"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

// Local runs the pipelines in-process.
type Local struct {
	Layout layout.Layout
	CPF    engine.CPFOptions
}

// NewLocal returns an embedded Extractor.
func NewLocal(l layout.Layout, opts engine.CPFOptions) *Local {
	return &Local{Layout: l, CPF: opts}
}

func (l *Local) ExtractJSON(path, outDir string) (*schema.JSONReport, error) {
	return engine.ProcessJSON(path, outDir, l.Layout)
}

func (l *Local) CountCPFs(path, outDir string) (*schema.CPFReport, error) {
	return engine.CountCPFs(path, outDir, l.CPF)
}

func (l *Local) ValidateCPF(value string) (bool, error) {
	return cpf.Valid(value), nil
}
