package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestProcessJSON(t *testing.T) {
	outDir := t.TempDir()

	report, err := ProcessJSON("testdata/issuer.json", outDir, layout.Default())
	require.NoError(t, err)

	out := filepath.Join(outDir, "resultado_json.xlsx")
	assert.Equal(t, out, report.OutputFile)
	assert.FileExists(t, out)
	assert.NoFileExists(t, out+".tmp")
	require.Len(t, report.Tables, 4)

	assert.Contains(t, report.Message, "JSON file processed successfully.")
	assert.Contains(t, report.Message, "Total tables generated: 4")
	assert.Contains(t, report.Message, "- Configurações Bins: bins with requestor_id and range settings")
	assert.Contains(t, report.Message, "Excel file generated: "+out)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Dados Emissor", "Metodos de Autenticação", "Configurações Bins", "Configurações Arte"}, f.GetSheetList())
	rows, err := f.GetRows("Configurações Bins")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"510000", "R2", "1", "2", "PC3", "42"}, rows[3])
}

func TestProcessJSON_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "malformed", content: `{"a": `, want: ErrInvalidJSON},
		{name: "empty file", content: ``, want: ErrInvalidJSON},
		{name: "top-level array", content: `[1, 2, 3]`, want: ErrNotObject},
		{name: "top-level scalar", content: `"text"`, want: ErrNotObject},
		{name: "empty object", content: `{}`, want: ErrNoTables},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.json")
			require.NoError(t, os.WriteFile(in, []byte(tt.content), 0644))

			report, err := ProcessJSON(in, dir, layout.Default())
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.want)
			assert.NoFileExists(t, filepath.Join(dir, "resultado_json.xlsx"))
		})
	}
}

func TestProcessJSON_MissingFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nope.json")

	_, err := ProcessJSON(in, dir, layout.Default())
	require.ErrorIs(t, err, ErrFileNotFound)

	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, in, inErr.Path)
	assert.Equal(t, "Error: the file '"+in+"' was not found.", Message(err))
	assert.NoFileExists(t, filepath.Join(dir, "resultado_json.xlsx"))
}

func TestProcessJSON_MissingOutputDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "missing")

	_, err := ProcessJSON("testdata/issuer.json", outDir, layout.Default())
	require.Error(t, err)
	assert.Equal(t, CodeInternal, Code(err))
}
