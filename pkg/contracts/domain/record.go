package domain

// RawRecord is one data row of a sheet keyed by the header labels found
// above it. Keys keep header order; values may be absent.
type RawRecord struct {
	keys   []string
	values map[string]Cell
}

// NewRawRecord creates an empty record
func NewRawRecord() RawRecord {
	return RawRecord{values: make(map[string]Cell)}
}

// RecordOf builds a record from alternating label/cell pairs, mostly useful
// for callers that already hold keyed data.
func RecordOf(pairs ...any) RawRecord {
	r := NewRawRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		label, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case Cell:
			r.Set(label, v)
		case string:
			r.Set(label, TextCell(v))
		case float64:
			r.Set(label, NumberCell(v))
		case int:
			r.Set(label, NumberCell(float64(v)))
		case nil:
			r.Set(label, EmptyCell())
		}
	}
	return r
}

// Set stores a value under label. A label seen before keeps its original
// position and takes the new value.
func (r *RawRecord) Set(label string, c Cell) {
	if r.values == nil {
		r.values = make(map[string]Cell)
	}
	if _, ok := r.values[label]; !ok {
		r.keys = append(r.keys, label)
	}
	r.values[label] = c
}

// Get returns the cell stored under label, absent if unknown
func (r RawRecord) Get(label string) Cell {
	return r.values[label]
}

// Keys returns the labels in header order
func (r RawRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of labels
func (r RawRecord) Len() int {
	return len(r.keys)
}

// SheetRows pairs a sheet name with the records extracted from it
type SheetRows struct {
	Name    string      `json:"name"`
	Records []RawRecord `json:"-"`
}
