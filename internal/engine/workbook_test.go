package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestColumnWidths(t *testing.T) {
	tbl := schema.Table{
		Columns: []string{"Chave", "Valor"},
		Rows: [][]any{
			{"ab", nil},
			{"ação longa", int64(123456)},
			{"x", 1.5},
		},
	}
	assert.Equal(t, []float64{12, 8}, ColumnWidths(tbl))

	wide := schema.Table{
		Columns: []string{"A"},
		Rows:    [][]any{{strings.Repeat("w", 300)}},
	}
	assert.Equal(t, []float64{excelize.MaxColumnWidth}, ColumnWidths(wide))
}

func TestWriteWorkbook(t *testing.T) {
	tables := []schema.Table{
		{
			Name:    "Dados Emissor",
			Columns: []string{"Chave", "Valor"},
			Rows:    [][]any{{"issuer_id", "ISS1"}, {"limits_daily", "1000"}},
		},
		{
			Name:    "Configurações Arte",
			Columns: []string{"product_id", "image_id"},
			Rows:    [][]any{{"P1", "IMG1"}, {"P2", int64(7)}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, tables))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Dados Emissor", "Configurações Arte"}, f.GetSheetList())

	rows, err := f.GetRows("Dados Emissor")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Chave", "Valor"}, {"issuer_id", "ISS1"}, {"limits_daily", "1000"}}, rows)

	rows, err = f.GetRows("Configurações Arte")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"product_id", "image_id"}, {"P1", "IMG1"}, {"P2", "7"}}, rows)

	width, err := f.GetColWidth("Dados Emissor", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("limits_daily")+2), width)

	width, err = f.GetColWidth("Configurações Arte", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("image_id")+2), width)
}

func TestWriteWorkbook_NoTables(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteWorkbook(&buf, nil), ErrNoTables)
	assert.Zero(t, buf.Len())
}
