package metrics

import (
	"bytes"
	"encoding/json"
)

// Record is one per-tick sample: an insertion-ordered mapping from metric
// key to scalar value. The key set may vary tick to tick; positional
// output formats handle that via the writer's frozen schema.
type Record struct {
	keys   []string
	values map[string]interface{}
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{
		values: make(map[string]interface{}),
	}
}

// Set stores a value, appending the key to the order on first use.
func (r *Record) Set(key string, value interface{}) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Value returns the value for key and whether it is present.
func (r *Record) Value(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the metric keys in insertion order.
func (r *Record) Keys() []string {
	return r.keys
}

// Len returns the number of metrics in the record.
func (r *Record) Len() int {
	return len(r.keys)
}

// MarshalJSON serializes the record as a JSON object preserving insertion
// order, containing only the keys present in this record.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
