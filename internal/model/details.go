package model

import (
	"bytes"
	"encoding/json"
)

// Detail is a single structured diagnostic fact attached to a check result.
type Detail struct {
	Key   string
	Value any
}

// Details is an insertion-ordered set of diagnostic facts. Ordering matters:
// two runs against the same host state must render byte-identical reports.
type Details []Detail

// Set appends the key/value pair, replacing the value in place when the key
// was already recorded.
func (d *Details) Set(key string, value any) {
	for i := range *d {
		if (*d)[i].Key == key {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, Detail{Key: key, Value: value})
}

// Get returns the value recorded for key, if any.
func (d Details) Get(key string) (any, bool) {
	for _, entry := range d {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Bool returns the boolean recorded for key, or false when absent or not a bool.
func (d Details) Bool(key string) bool {
	value, ok := d.Get(key)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// Len returns the number of recorded facts.
func (d Details) Len() int {
	return len(d)
}

// MarshalJSON renders the details as a JSON object preserving insertion order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
