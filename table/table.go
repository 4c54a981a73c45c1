package table

type (
	// Row is one record flowing through the pipeline. Vals follow the
	// configuration's DataField order.
	Row struct {
		// Num is the row's position in its input, starting at 1
		Num  int64
		Vals []any
		// Err is set on a record that is malformed as a whole, such as one
		// with the wrong number of fields
		Err error
	}

	// Batch is the unit a stage hands to the next one.
	Batch struct {
		Rows []Row
	}
)

func NewBatch(capacity int) *Batch {
	return &Batch{Rows: make([]Row, 0, capacity)}
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

func (b *Batch) Append(r Row) {
	b.Rows = append(b.Rows, r)
}
