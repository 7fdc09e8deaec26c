package flatten

import (
	"github.com/tidwall/gjson"
)

// Member is one key/value entry of a JSON object.
type Member struct {
	Key   string
	Value gjson.Result
}

// Members lists the members of obj in document order. A key written more than
// once keeps the position of its first occurrence and the value of its last.
// Non-objects have no members.
func Members(obj gjson.Result) []Member {
	if !obj.IsObject() {
		return nil
	}

	var out []Member
	index := make(map[string]int)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if i, ok := index[key]; ok {
			out[i].Value = v
			return true
		}
		index[key] = len(out)
		out = append(out, Member{Key: key, Value: v})
		return true
	})
	return out
}

// Child returns the member of obj named key. Keys are matched literally, so
// dots and wildcards in key carry no path meaning.
func Child(obj gjson.Result, key string) (gjson.Result, bool) {
	if !obj.IsObject() {
		return gjson.Result{}, false
	}

	var found gjson.Result
	ok := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found, ok = v, true
		}
		return true
	})
	return found, ok
}

// Lookup follows path through nested objects starting at root.
// An empty path returns root itself.
func Lookup(root gjson.Result, path []string) (gjson.Result, bool) {
	cur := root
	for _, key := range path {
		next, ok := Child(cur, key)
		if !ok {
			return gjson.Result{}, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the elements of arr in index order. Non-arrays have no items.
func Items(arr gjson.Result) []gjson.Result {
	if !arr.IsArray() {
		return nil
	}
	return arr.Array()
}
