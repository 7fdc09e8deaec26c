// Package layout describes which parts of a JSON document become workbook tables.
package layout

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Table kinds.
const (
	KindPairs = "pairs"
	KindRows  = "rows"
)

// MaxSheetName is the longest sheet name a workbook accepts.
const MaxSheetName = 31

// invalidSheetChars may not appear in a sheet name.
const invalidSheetChars = `:\/?*[]`

// ErrInvalidLayout is returned by Validate and Load for unusable layouts.
var ErrInvalidLayout = errors.New("invalid layout")

// Layout is the set of extraction rules applied to one JSON document.
type Layout struct {
	Workbook    string  `yaml:"workbook"`
	Separator   string  `yaml:"separator"`
	KeyColumn   string  `yaml:"key_column"`
	ValueColumn string  `yaml:"value_column"`
	Tables      []Table `yaml:"tables"`
}

// Table is one extraction rule.
//
// A pairs table flattens the object found at Path into key/value rows,
// skipping the members listed in Exclude and appending the members of Merge.
// A rows table expands the array found at Path level by level; every leaf of
// the expansion becomes one row.
type Table struct {
	Sheet       string   `yaml:"sheet"`
	Description string   `yaml:"description"`
	Kind        string   `yaml:"kind"`
	Path        []string `yaml:"path,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Merge       *Merge   `yaml:"merge,omitempty"`
	Levels      []Level  `yaml:"levels,omitempty"`
}

// Merge pulls selected members of another object into a pairs table.
// From is resolved from the document root, not from the table's Path.
type Merge struct {
	From []string `yaml:"from"`
	Keys []string `yaml:"keys"`
}

// Level is one step of a rows expansion. Fields are read from each item;
// Children names the array inside the item that feeds the next level.
type Level struct {
	Fields   []Field `yaml:"fields"`
	Children string  `yaml:"children,omitempty"`
}

// Field maps an item key to an output column.
type Field struct {
	Column string `yaml:"column"`
	Key    string `yaml:"key"`
}

// Columns returns the output columns of a rows table in level order.
func (t Table) Columns() []string {
	var cols []string
	for _, l := range t.Levels {
		for _, f := range l.Fields {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// Load reads a YAML layout file. Settings left empty fall back to Default.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML layout and validates it.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	def := Default()
	if l.Workbook == "" {
		l.Workbook = def.Workbook
	}
	if l.Separator == "" {
		l.Separator = def.Separator
	}
	if l.KeyColumn == "" {
		l.KeyColumn = def.KeyColumn
	}
	if l.ValueColumn == "" {
		l.ValueColumn = def.ValueColumn
	}
	if l.Tables == nil {
		l.Tables = def.Tables
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Marshal encodes l as YAML.
func (l Layout) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// Validate checks that every rule can be applied and that sheet names are
// acceptable to a workbook.
func (l Layout) Validate() error {
	if l.Workbook == "" {
		return fmt.Errorf("%w: workbook name is empty", ErrInvalidLayout)
	}

	seen := make(map[string]struct{}, len(l.Tables))
	for i, t := range l.Tables {
		if t.Sheet == "" {
			return fmt.Errorf("%w: table %d has no sheet name", ErrInvalidLayout, i)
		}
		if utf8.RuneCountInString(t.Sheet) > MaxSheetName {
			return fmt.Errorf("%w: sheet %q exceeds %d characters", ErrInvalidLayout, t.Sheet, MaxSheetName)
		}
		if strings.ContainsAny(t.Sheet, invalidSheetChars) {
			return fmt.Errorf("%w: sheet %q contains one of %s", ErrInvalidLayout, t.Sheet, invalidSheetChars)
		}
		if _, dup := seen[t.Sheet]; dup {
			return fmt.Errorf("%w: duplicate sheet %q", ErrInvalidLayout, t.Sheet)
		}
		seen[t.Sheet] = struct{}{}

		switch t.Kind {
		case KindPairs:
			if t.Merge != nil && len(t.Merge.Keys) == 0 {
				return fmt.Errorf("%w: sheet %q merges no keys", ErrInvalidLayout, t.Sheet)
			}
		case KindRows:
			if len(t.Path) == 0 {
				return fmt.Errorf("%w: sheet %q has no path", ErrInvalidLayout, t.Sheet)
			}
			if len(t.Levels) == 0 {
				return fmt.Errorf("%w: sheet %q has no levels", ErrInvalidLayout, t.Sheet)
			}
			for j, lvl := range t.Levels[:len(t.Levels)-1] {
				if lvl.Children == "" {
					return fmt.Errorf("%w: sheet %q level %d has no children key", ErrInvalidLayout, t.Sheet, j)
				}
			}
			if len(t.Columns()) == 0 {
				return fmt.Errorf("%w: sheet %q has no columns", ErrInvalidLayout, t.Sheet)
			}
		default:
			return fmt.Errorf("%w: sheet %q has unknown kind %q", ErrInvalidLayout, t.Sheet, t.Kind)
		}
	}
	return nil
}
