package denest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Kind is the shape of a Value.
type Kind int

const (
	// KindScalar is a leaf: a string, a number, a boolean or null.
	KindScalar Kind = iota
	// KindMapping is an ordered set of key/value pairs.
	KindMapping
	// KindSequence is an ordered list of values.
	KindSequence
)

// Pair is one entry of a mapping.
type Pair struct {
	Key   string
	Value Value
}

// Value is a decoded document node.
// The zero value is a null scalar.
type Value struct {
	kind   Kind
	scalar any
	pairs  []Pair
	items  []Value
}

// Scalar returns a leaf Value.
// Supported types are string, json.Number, bool, nil and Go numeric types.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Mapping returns a mapping Value keeping pairs in the given order.
func Mapping(pairs ...Pair) Value {
	return Value{kind: KindMapping, pairs: pairs}
}

// Sequence returns a sequence Value.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsContainer reports whether v is a mapping or a sequence.
func (v Value) IsContainer() bool {
	return v.kind == KindMapping || v.kind == KindSequence
}

// Len returns the number of pairs or items of a container, and 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindMapping:
		return len(v.pairs)
	case KindSequence:
		return len(v.items)
	}
	return 0
}

// Pairs returns the pairs of a mapping, in document order.
func (v Value) Pairs() []Pair {
	return v.pairs
}

// Items returns the items of a sequence.
func (v Value) Items() []Value {
	return v.items
}

// Raw returns the underlying scalar value.
func (v Value) Raw() any {
	return v.scalar
}

// Get returns the value stored under key in a mapping.
// When the key is duplicated, the last occurrence wins as in a JSON object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	for i := len(v.pairs) - 1; i >= 0; i-- {
		if v.pairs[i].Key == key {
			return v.pairs[i].Value, true
		}
	}
	return Value{}, false
}

// Path walks successive mapping keys and returns the value found at the end.
func (v Value) Path(keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Index returns the i-th item of a sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// String returns the string form of a scalar.
// Containers render as an empty string.
func (v Value) String() string {
	if v.kind != KindScalar {
		return ""
	}
	return scalarString(v.scalar)
}

func scalarString(s any) string {
	switch t := s.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// FromAny converts generic decoded Go data into a Value.
// Map keys are sorted since Go maps carry no order.
func FromAny(in any) Value {
	switch t := in.(type) {
	case Value:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]Pair, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, Pair{Key: k, Value: FromAny(t[k])})
		}
		return Mapping(pairs...)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, FromAny(item))
		}
		return Sequence(items...)
	case []string:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, Scalar(item))
		}
		return Sequence(items...)
	default:
		return Scalar(t)
	}
}

// maxParseDepth bounds the nesting accepted by Parse.
const maxParseDepth = 10000

// ErrTooDeep is returned when a document nests deeper than Parse accepts.
var ErrTooDeep = errors.New("document nesting is too deep")

// Parse decodes a JSON document into a Value.
// Object keys keep their document order and numbers keep their literal text.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return Scalar(tok), nil
	}
	if depth >= maxParseDepth {
		return Value{}, ErrTooDeep
	}

	switch delim {
	case '{':
		pairs := make([]Pair, 0)
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return Value{}, err
			}
			key, ok := kt.(string)
			if !ok {
				return Value{}, fmt.Errorf("unexpected object key %v", kt)
			}
			v, err := parseValue(dec, depth+1)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: key, Value: v})
		}
		if _, err := dec.Token(); err != nil {
			return Value{}, err
		}
		return Mapping(pairs...), nil
	case '[':
		items := make([]Value, 0)
		for dec.More() {
			v, err := parseValue(dec, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return Value{}, err
		}
		return Sequence(items...), nil
	}

	return Value{}, fmt.Errorf("unexpected delimiter %q", delim)
}

// Float returns the scalar as a float64 if it holds a number or a numeric string.
func (v Value) Float() (float64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	switch t := v.scalar.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
