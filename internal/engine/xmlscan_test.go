package engine

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAttributes(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want []string
	}{
		{
			name: "nested elements in document order",
			xml:  `<Doc><Cli Cd="1"/><G><Cli Cd="2"><Cli Cd="3"/></Cli></G></Doc>`,
			want: []string{"1", "2", "3"},
		},
		{
			name: "root element is not matched",
			xml:  `<Cli Cd="1"><Cli Cd="2"/></Cli>`,
			want: []string{"2"},
		},
		{
			name: "empty and missing attributes are skipped",
			xml:  `<Doc><Cli Cd=""/><Cli Other="x"/><Cli Cd="4"/></Doc>`,
			want: []string{"4"},
		},
		{
			name: "element namespaces are ignored",
			xml:  `<x:Doc xmlns:x="urn:a"><x:Cli Cd="5"/><Cli xmlns:y="urn:y" y:Cd="6"/></x:Doc>`,
			want: []string{"5"},
		},
		{
			name: "byte order mark",
			xml:  "\xef\xbb\xbf<Doc><Cli Cd=\"52998224725\"/></Doc>",
			want: []string{"52998224725"},
		},
		{
			name: "byte order mark before declaration",
			xml:  "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?>\r\n<Doc><Cli Cd=\"52998224725\"/></Doc>",
			want: []string{"52998224725"},
		},
		{
			name: "no matches",
			xml:  "<?xml version=\"1.0\"?>\n<!-- none -->\n<Doc><Other Cd=\"1\"/></Doc>\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanAttributes(strings.NewReader(tt.xml), "Cli", "Cd")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanAttributes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "empty document", xml: ""},
		{name: "whitespace only", xml: "  \n"},
		{name: "mismatched tags", xml: `<Doc><Cli></Doc>`},
		{name: "unclosed root", xml: `<Doc><Cli Cd="1"/>`},
		{name: "multiple roots", xml: `<A/><B/>`},
		{name: "text outside root", xml: `junk<Doc/>`},
		{name: "broken attribute", xml: `<Doc><Cli Cd=1/></Doc>`},
		{name: "byte order mark only", xml: "\xef\xbb\xbf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanAttributes(strings.NewReader(tt.xml), "Cli", "Cd")
			assert.ErrorIs(t, err, ErrInvalidXML)
		})
	}
}

func TestScanAttributes_Charset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><Doc><Cli Nome=\"Jo\xe3o\"/></Doc>"

	got, err := ScanAttributes(strings.NewReader(doc), "Cli", "Nome")
	require.NoError(t, err)
	assert.Equal(t, []string{"João"}, got)
}

func TestScanAttributes_ReadFailure(t *testing.T) {
	boom := errors.New("disk gone")

	_, err := ScanAttributes(iotest.ErrReader(boom), "Cli", "Cd")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidXML)

	r := io.MultiReader(strings.NewReader(`<Doc><Cli Cd="1"/>`), iotest.ErrReader(boom))
	_, err = ScanAttributes(r, "Cli", "Cd")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidXML)
}
