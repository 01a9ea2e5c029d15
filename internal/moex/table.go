package moex

// Table is the columnar payload shape every ISS block arrives in:
// an ordered list of column names plus positional rows.
type Table struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Data) == 0
}

// Accessor resolves column names to row positions. The index is built once
// per payload; feeds that omit optional columns resolve to nil, never error.
type Accessor struct {
	index map[string]int
}

func NewAccessor(t *Table) *Accessor {
	if t == nil {
		return &Accessor{index: map[string]int{}}
	}
	index := make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		index[name] = i
	}
	return &Accessor{index: index}
}

// Get returns the value of the named column in row, or nil when the column
// is not part of the payload or the row is short.
func (a *Accessor) Get(row []any, column string) any {
	idx, ok := a.index[column]
	if !ok || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func (a *Accessor) Has(column string) bool {
	_, ok := a.index[column]
	return ok
}
