// Package flatten turns nested JSON into ordered (path, value) pairs.
//
// Traversal follows document order: object members in the order they are
// written, array elements by index. Paths are built by joining member keys and
// array indexes with a separator:
//
//	{"a": {"b": 1, "c": [2, 3]}}  ->  a_b=1  a_c_0=2  a_c_1=3
package flatten

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// DefaultSeparator joins path segments when none is configured.
const DefaultSeparator = "_"

// Pair is one flattened leaf.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Flatten walks v and returns one Pair per scalar leaf.
// A scalar v has no path of its own and yields nothing.
func Flatten(v gjson.Result, sep string) []Pair {
	return FlattenPrefix(v, "", sep)
}

// FlattenPrefix is Flatten with every path rooted under prefix.
func FlattenPrefix(v gjson.Result, prefix, sep string) []Pair {
	var out []Pair
	walk(v, prefix, sep, &out)
	return out
}

// FlattenMembers flattens an already selected list of object members, as if
// they were the members of one object.
func FlattenMembers(members []Member, sep string) []Pair {
	var out []Pair
	for _, m := range members {
		visit(m.Value, join("", m.Key, sep), sep, &out)
	}
	return out
}

func walk(v gjson.Result, prefix, sep string, out *[]Pair) {
	switch {
	case v.IsObject():
		for _, m := range Members(v) {
			visit(m.Value, join(prefix, m.Key, sep), sep, out)
		}
	case v.IsArray():
		i := 0
		v.ForEach(func(_, item gjson.Result) bool {
			visit(item, join(prefix, strconv.Itoa(i), sep), sep, out)
			i++
			return true
		})
	}
}

func visit(v gjson.Result, path, sep string, out *[]Pair) {
	if v.IsObject() || v.IsArray() {
		walk(v, path, sep, out)
		return
	}
	*out = append(*out, Pair{Key: path, Value: Scalar(v)})
}

func join(prefix, segment, sep string) string {
	if prefix == "" {
		return segment
	}
	return prefix + sep + segment
}

// Scalar renders a leaf value. Strings come back unquoted and unescaped;
// numbers, booleans and null keep their JSON literal text, so a boolean is
// "true" or "false" and null is "null".
// A number is not reformatted: 1.50 stays "1.50".
func Scalar(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}
