package engine

import (
	"strconv"

	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/celerix-dev/celerix-extract/pkg/flatten"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/tidwall/gjson"
)

// ExtractTables applies every rule of l to doc, in rule order. Rules whose
// source is absent or yields no rows are skipped.
func ExtractTables(doc gjson.Result, l layout.Layout) []schema.Table {
	var tables []schema.Table
	for _, rule := range l.Tables {
		var (
			t  schema.Table
			ok bool
		)
		switch rule.Kind {
		case layout.KindPairs:
			t, ok = pairsTable(doc, rule, l)
		case layout.KindRows:
			t, ok = rowsTable(doc, rule)
		}
		if ok {
			tables = append(tables, t)
		}
	}
	return tables
}

func pairsTable(doc gjson.Result, rule layout.Table, l layout.Layout) (schema.Table, bool) {
	src, ok := flatten.Lookup(doc, rule.Path)
	if !ok {
		return schema.Table{}, false
	}

	var pairs []flatten.Pair
	if len(rule.Exclude) == 0 && rule.Merge == nil {
		pairs = flatten.Flatten(src, l.Separator)
	} else {
		pairs = flatten.FlattenMembers(selectMembers(doc, src, rule), l.Separator)
	}
	if len(pairs) == 0 {
		return schema.Table{}, false
	}

	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{p.Key, p.Value}
	}
	return schema.Table{
		Name:        rule.Sheet,
		Description: rule.Description,
		Columns:     []string{l.KeyColumn, l.ValueColumn},
		Rows:        rows,
	}, true
}

// selectMembers drops excluded members of src, then merges the configured
// keys of the Merge object. A merged key already present keeps its position
// and takes the merged value.
func selectMembers(doc, src gjson.Result, rule layout.Table) []flatten.Member {
	excluded := make(map[string]struct{}, len(rule.Exclude))
	for _, k := range rule.Exclude {
		excluded[k] = struct{}{}
	}

	var members []flatten.Member
	for _, m := range flatten.Members(src) {
		if _, skip := excluded[m.Key]; !skip {
			members = append(members, m)
		}
	}

	if rule.Merge == nil {
		return members
	}
	from, ok := flatten.Lookup(doc, rule.Merge.From)
	if !ok {
		return members
	}

	for _, key := range rule.Merge.Keys {
		v, ok := flatten.Child(from, key)
		if !ok {
			continue
		}
		members = upsert(members, flatten.Member{Key: key, Value: v})
	}
	return members
}

func upsert(members []flatten.Member, m flatten.Member) []flatten.Member {
	for i := range members {
		if members[i].Key == m.Key {
			members[i].Value = m.Value
			return members
		}
	}
	return append(members, m)
}

func rowsTable(doc gjson.Result, rule layout.Table) (schema.Table, bool) {
	src, ok := flatten.Lookup(doc, rule.Path)
	if !ok || len(rule.Levels) == 0 {
		return schema.Table{}, false
	}

	var rows [][]any
	expand(flatten.Items(src), rule.Levels, nil, &rows)
	if len(rows) == 0 {
		return schema.Table{}, false
	}

	return schema.Table{
		Name:        rule.Sheet,
		Description: rule.Description,
		Columns:     rule.Columns(),
		Rows:        rows,
	}, true
}

// expand emits one row per item of the last level, prefixed by the fields
// collected from its ancestors. Items that are not objects are skipped.
func expand(items []gjson.Result, levels []layout.Level, prefix []any, rows *[][]any) {
	level := levels[0]
	for _, item := range items {
		if !item.IsObject() {
			continue
		}

		row := append(prefix[:len(prefix):len(prefix)], fieldValues(item, level.Fields)...)
		if len(levels) == 1 {
			*rows = append(*rows, row)
			continue
		}

		children, _ := flatten.Child(item, level.Children)
		expand(flatten.Items(children), levels[1:], row, rows)
	}
}

func fieldValues(item gjson.Result, fields []layout.Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		if v, ok := flatten.Child(item, f.Key); ok {
			out[i] = cellValue(v)
		}
	}
	return out
}

// cellValue converts a JSON value to a typed cell.
func cellValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i
		}
		return v.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.JSON:
		return v.Raw
	default:
		return nil
	}
}
