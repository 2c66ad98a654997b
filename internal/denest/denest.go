// Package denest flattens nested documents into single level records keyed by dash joined paths,
// and provides lookups over those records by partial key match.
package denest

import (
	"iter"
	"strconv"
)

const (
	// Separator joins the path segments of a denested key.
	Separator = "-"

	// MaxDepth is the deepest nesting Denest descends into.
	// Subtrees below it are dropped and the record is marked as truncated.
	MaxDepth = 512
)

// Record is a flat, insertion ordered mapping from path to scalar value.
type Record struct {
	keys      []string
	values    map[string]Value
	truncated bool
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set stores v under key.
// Overwriting an existing key keeps its original position.
func (r *Record) Set(key string, v Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of entries.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Truncated reports whether subtrees deeper than MaxDepth were dropped from the record.
func (r *Record) Truncated() bool {
	return r != nil && r.truncated
}

// All iterates over the entries in insertion order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil {
			return
		}
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// Denest flattens v into a new Record.
//
// Leaves of mappings are stored under their dash joined key path and sequence items under their index.
// A bare scalar is stored under the empty key.
func Denest(v Value) *Record {
	r := NewRecord()
	Into(r, v)
	return r
}

// Into flattens v into an existing Record.
func Into(r *Record, v Value) {
	walk(r, v, "", 0)
}

// walk carries name with a leading separator which is stripped when a leaf is stored.
func walk(r *Record, v Value, name string, depth int) {
	if depth > MaxDepth {
		r.truncated = true
		return
	}

	switch v.kind {
	case KindMapping:
		for _, p := range v.pairs {
			child := name + Separator + p.Key
			if p.Value.IsContainer() {
				walk(r, p.Value, child, depth+1)
				continue
			}
			r.Set(child[1:], p.Value)
		}
	case KindSequence:
		for i, item := range v.items {
			walk(r, item, name+Separator+strconv.Itoa(i), depth+1)
		}
	default:
		if name == "" {
			r.Set("", v)
			return
		}
		r.Set(name[1:], v)
	}
}
