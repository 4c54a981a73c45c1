package pipeline

import "github.com/danthegoodman1/icedb/load_config"

// NullSurrogate is the surrogate key of a null member in every dictionary.
const NullSurrogate int32 = 1

// Dictionary hands out surrogate keys in first-seen order, starting after
// NullSurrogate. It is local to one task.
type Dictionary struct {
	keys map[string]int32
	next int32
}

func NewDictionary() *Dictionary {
	return &Dictionary{keys: make(map[string]int32), next: NullSurrogate + 1}
}

func (d *Dictionary) Surrogate(value string) int32 {
	if k, ok := d.keys[value]; ok {
		return k
	}
	k := d.next
	d.keys[value] = k
	d.next++
	return k
}

// Size counts distinct non-null members.
func (d *Dictionary) Size() int {
	return len(d.keys)
}

// isDictionaryField reports whether f's values are replaced by surrogates.
func isDictionaryField(f load_config.DataField) bool {
	return f.Column.IsDictionary && !f.Column.IsComplex && !f.IsMeasure
}
