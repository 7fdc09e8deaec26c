package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{
			name:    "file not found",
			err:     &InputError{Path: "in.json", Err: ErrFileNotFound},
			code:    CodeFileNotFound,
			message: "Error: the file 'in.json' was not found.",
		},
		{
			name:    "invalid json",
			err:     &InputError{Path: "in.json", Err: ErrInvalidJSON},
			code:    CodeInvalidJSON,
			message: "Error: invalid or malformed JSON file.",
		},
		{
			name:    "not an object",
			err:     &InputError{Path: "in.json", Err: ErrNotObject},
			code:    CodeNotObject,
			message: "Error: expected a JSON object at the top level.",
		},
		{
			name:    "wrapped invalid xml",
			err:     &InputError{Path: "in.xml", Err: fmt.Errorf("%w: unexpected EOF", ErrInvalidXML)},
			code:    CodeInvalidXML,
			message: "Error: invalid or malformed XML file.",
		},
		{
			name:    "no tables",
			err:     ErrNoTables,
			code:    CodeNoTables,
			message: "Error: no tables could be extracted from the JSON file.",
		},
		{
			name:    "unclassified",
			err:     errors.New("disk full"),
			code:    CodeInternal,
			message: "Unexpected error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
			assert.Equal(t, tt.message, Message(tt.err))
		})
	}

	assert.Empty(t, Message(nil))
}

func TestFromCode(t *testing.T) {
	for _, code := range []string{CodeFileNotFound, CodeInvalidJSON, CodeNotObject, CodeInvalidXML, CodeNoTables} {
		err := FromCode(code)
		require.Error(t, err, code)
		assert.Equal(t, code, Code(err))
	}
	assert.NoError(t, FromCode(CodeInternal))
	assert.NoError(t, FromCode("bogus"))
}

func TestInputError(t *testing.T) {
	err := fmt.Errorf("run: %w", &InputError{Path: "a.xml", Err: ErrInvalidXML})

	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "a.xml", inErr.Path)
	assert.ErrorIs(t, err, ErrInvalidXML)
	assert.Equal(t, "run: a.xml: invalid or malformed XML", err.Error())
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	t.Run("success", func(t *testing.T) {
		err := WriteAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		})
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(content))
		assert.NoFileExists(t, path+".tmp")
	})

	t.Run("failure leaves no file", func(t *testing.T) {
		failed := filepath.Join(dir, "failed.txt")
		boom := errors.New("boom")

		err := WriteAtomic(failed, func(w io.Writer) error {
			io.WriteString(w, "partial")
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoFileExists(t, failed)
		assert.NoFileExists(t, failed+".tmp")
	})

	t.Run("failure keeps previous file", func(t *testing.T) {
		err := WriteAtomic(path, func(w io.Writer) error {
			return errors.New("boom")
		})
		require.Error(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(content))
	})
}
