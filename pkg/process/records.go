package process

import (
	"slices"
	"strconv"
)

// RecordSet is an insertion-ordered multi-value dictionary holding the time
// series an engine extracts from its log output. Each key maps to the full
// series of values seen so far, oldest first.
type RecordSet struct {
	keys   []string
	values map[string][]string
}

// NewRecordSet returns an empty record store.
func NewRecordSet() *RecordSet {
	return &RecordSet{values: make(map[string][]string)}
}

// Append adds one value to the series for key, creating the series on first
// use.
func (r *RecordSet) Append(key, value string) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}

	r.values[key] = append(r.values[key], value)
}

// Keys returns the record keys in first-seen order.
func (r *RecordSet) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of distinct record keys.
func (r *RecordSet) Len() int {
	return len(r.keys)
}

// Latest returns the most recent value for key.
func (r *RecordSet) Latest(key string) (string, bool) {
	series, ok := r.values[key]
	if !ok || len(series) == 0 {
		return "", false
	}

	return series[len(series)-1], true
}

// Series returns a copy of the full series for key, oldest first.
func (r *RecordSet) Series(key string) []string {
	return slices.Clone(r.values[key])
}

// LatestFloat returns the most recent value for key parsed as a float.
func (r *RecordSet) LatestFloat(key string) (float64, bool) {
	raw, ok := r.Latest(key)
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// LatestInt returns the most recent value for key parsed as an integer.
func (r *RecordSet) LatestInt(key string) (int64, bool) {
	raw, ok := r.Latest(key)
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// FloatSeries returns the full series for key parsed as floats. It reports
// false when the key is absent or any value fails to parse.
func (r *RecordSet) FloatSeries(key string) ([]float64, bool) {
	series, ok := r.values[key]
	if !ok {
		return nil, false
	}

	out := make([]float64, len(series))

	for i, raw := range series {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}

		out[i] = v
	}

	return out, true
}

// Snapshot returns a deep copy of every series keyed by record name.
func (r *RecordSet) Snapshot() map[string][]string {
	out := make(map[string][]string, len(r.keys))

	for _, key := range r.keys {
		out[key] = slices.Clone(r.values[key])
	}

	return out
}
