package cpf

import "strconv"

// Duplicate is a value seen more than once.
type Duplicate struct {
	CPF   string `json:"cpf"`
	Count int    `json:"count"`
}

// String renders d as "cpf (xN)".
func (d Duplicate) String() string {
	return d.CPF + " (x" + strconv.Itoa(d.Count) + ")"
}

// Tally is a multiset that remembers the order in which values first appeared.
// The zero value is ready to use.
type Tally struct {
	counts map[string]int
	order  []string
}

// Add records one occurrence of v.
func (t *Tally) Add(v string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

// Count returns how many times v was added.
func (t *Tally) Count(v string) int {
	return t.counts[v]
}

// Len returns the number of distinct values.
func (t *Tally) Len() int {
	return len(t.order)
}

// Unique returns each distinct value once, in first-seen order.
func (t *Tally) Unique() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Duplicates returns the values added more than once, in first-seen order.
func (t *Tally) Duplicates() []Duplicate {
	var out []Duplicate
	for _, v := range t.order {
		if n := t.counts[v]; n > 1 {
			out = append(out, Duplicate{CPF: v, Count: n})
		}
	}
	return out
}
