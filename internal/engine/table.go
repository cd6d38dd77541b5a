package engine

import (
	"github.com/minsql/minsql/internal/parser"
	"github.com/minsql/minsql/pkg"
)

// Table owns the ordered rows for one schema along with the bookkeeping
// that keeps constraints cheap: a live-value set per unique column and a
// hash index per indexed column. Between operations every set and index
// exactly reflects the current rows; that is the central invariant here.
type Table struct {
	Name    string
	columns []Column

	rows    []Row
	unique  map[string]pkg.Set[string]
	indexes map[string]*Index
}

// NewTable builds an empty table. Primary key columns are normalized to
// unique + not-null, and the primary key gets an index up front.
func NewTable(name string, columns []Column) (*Table, error) {
	t := &Table{
		Name:    name,
		columns: make([]Column, len(columns)),
		unique:  map[string]pkg.Set[string]{},
		indexes: map[string]*Index{},
	}

	seen := pkg.Set[string]{}
	for i, col := range columns {
		if seen.Has(col.Name) {
			return nil, NewQueryError(ErrConstraintViolation,
				"Duplicate column %s in table %s", col.Name, name)
		}
		seen.Add(col.Name)

		if col.PrimaryKey {
			col.Unique = true
			col.NotNull = true
			t.indexes[col.Name] = NewIndex(col.Name)
		}
		if col.Unique {
			t.unique[col.Name] = pkg.Set[string]{}
		}
		t.columns[i] = col
	}
	return t, nil
}

// Columns returns the schema in declaration order.
func (t *Table) Columns() []Column { return t.columns }

func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.columns {
		if t.columns[i].Name == name {
			return &t.columns[i], true
		}
	}
	return nil, false
}

func (t *Table) PrimaryKey() *Column {
	for i := range t.columns {
		if t.columns[i].PrimaryKey {
			return &t.columns[i]
		}
	}
	return nil
}

func (t *Table) Len() int { return len(t.rows) }

// IndexedColumns lists the columns currently carrying an index.
func (t *Table) IndexedColumns() []string {
	names := []string{}
	for name := range t.indexes {
		names = append(names, name)
	}
	return names
}

func (t *Table) Index(column string) (*Index, bool) {
	ix, ok := t.indexes[column]
	return ix, ok
}

// Rows returns copies of all rows in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out[i] = copyRow(row)
	}
	return out
}

func copyRow(row Row) Row {
	out := Row{}
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Insert validates every declared column of data, rejects duplicates on
// unique columns, then appends the row and updates sets and indexes.
// Validation is fully separated from mutation: a failing column leaves
// the table untouched.
func (t *Table) Insert(data Row) (Row, error) {
	row := Row{}
	for i := range t.columns {
		col := &t.columns[i]
		value := data.Get(col.Name)
		if err := col.Validate(value); err != nil {
			return nil, err
		}
		if col.Unique && value != nil && t.unique[col.Name].Has(formatIndexValue(value)) {
			if col.PrimaryKey {
				return nil, NewQueryError(ErrConstraintViolation,
					"Duplicate primary key value %v for column %s", value, col.Name)
			}
			return nil, NewQueryError(ErrConstraintViolation,
				"Duplicate value %v for unique column %s", value, col.Name)
		}
		row.Set(col.Name, value)
	}

	pos := len(t.rows)
	t.rows = append(t.rows, row)
	for name, set := range t.unique {
		if v := row.Get(name); v != nil {
			set.Add(formatIndexValue(v))
		}
	}
	for _, ix := range t.indexes {
		ix.Add(row.Get(ix.Column), pos)
	}
	return copyRow(row), nil
}

// matchPositions resolves a WHERE clause to row positions. An equality
// comparison on an indexed column is answered by the index; everything
// else is a full scan. A null comparand always scans, since nulls are
// never indexed but do compare equal to stored nulls.
func (t *Table) matchPositions(where *parser.WhereClause) ([]int, error) {
	if _, ok := t.Column(where.Column); !ok {
		return nil, UnknownColumnError(t.Name, where.Column)
	}

	if where.Operator == "=" && where.Value != nil {
		if ix, ok := t.indexes[where.Column]; ok {
			return ix.Find(where.Value), nil
		}
	}

	var positions []int
	for pos, row := range t.rows {
		ok, err := compareValues(row.Get(where.Column), where.Operator, where.Value)
		if err != nil {
			return nil, err
		}
		if ok {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}

// Select returns projected copies of the rows matching where (all rows
// when where is nil), in insertion order.
func (t *Table) Select(columns []string, where *parser.WhereClause) ([]Row, error) {
	project := columns
	if len(columns) == 1 && columns[0] == "*" {
		project = nil
	}
	for _, name := range project {
		if _, ok := t.Column(name); !ok {
			return nil, UnknownColumnError(t.Name, name)
		}
	}

	var positions []int
	if where == nil {
		positions = make([]int, len(t.rows))
		for i := range t.rows {
			positions[i] = i
		}
	} else {
		var err error
		positions, err = t.matchPositions(where)
		if err != nil {
			return nil, err
		}
	}

	result := []Row{}
	for _, pos := range positions {
		row := t.rows[pos]
		if project == nil {
			result = append(result, copyRow(row))
			continue
		}
		out := Row{}
		for _, name := range project {
			out.Set(name, row.Get(name))
		}
		result = append(result, out)
	}
	return result, nil
}

// Update applies the assignments to every matching row, one row at a
// time with validate-then-apply per row. A conflict on a later row does
// not roll back rows already rewritten; the count of applied rows is
// returned alongside the error in that case.
func (t *Table) Update(assignments []parser.Assignment, where *parser.WhereClause) (int, error) {
	if where == nil {
		return 0, MissingWhereClauseError("UPDATE")
	}
	for _, a := range assignments {
		if _, ok := t.Column(a.Column); !ok {
			return 0, UnknownColumnError(t.Name, a.Column)
		}
	}

	positions, err := t.matchPositions(where)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, pos := range positions {
		row := t.rows[pos]

		for _, a := range assignments {
			col, _ := t.Column(a.Column)
			if err := col.Validate(a.Value); err != nil {
				return count, err
			}
			if col.Unique && a.Value != nil {
				oldKey := formatIndexValue(row.Get(col.Name))
				newKey := formatIndexValue(a.Value)
				if newKey != oldKey && t.unique[col.Name].Has(newKey) {
					return count, NewQueryError(ErrConstraintViolation,
						"Duplicate value %v for unique column %s", a.Value, col.Name)
				}
			}
		}

		for _, a := range assignments {
			col, _ := t.Column(a.Column)
			old := row.Get(col.Name)
			if col.Unique {
				if old != nil {
					t.unique[col.Name].Remove(formatIndexValue(old))
				}
				if a.Value != nil {
					t.unique[col.Name].Add(formatIndexValue(a.Value))
				}
			}
			if ix, ok := t.indexes[col.Name]; ok {
				ix.Remove(old, pos)
				ix.Add(a.Value, pos)
			}
			row.Set(col.Name, a.Value)
		}
		count++
	}
	return count, nil
}

// Delete removes every matching row and returns how many went away.
// Removal shifts the positions of all later rows, so every index is
// rebuilt from scratch instead of patched.
func (t *Table) Delete(where *parser.WhereClause) (int, error) {
	if where == nil {
		return 0, MissingWhereClauseError("DELETE")
	}

	positions, err := t.matchPositions(where)
	if err != nil {
		return 0, err
	}
	if len(positions) == 0 {
		return 0, nil
	}

	doomed := pkg.Set[int]{}
	for _, pos := range positions {
		doomed.Add(pos)
	}

	kept := make([]Row, 0, len(t.rows)-len(positions))
	for pos, row := range t.rows {
		if !doomed.Has(pos) {
			kept = append(kept, row)
			continue
		}
		for name, set := range t.unique {
			if v := row.Get(name); v != nil {
				set.Remove(formatIndexValue(v))
			}
		}
	}
	t.rows = kept

	for _, ix := range t.indexes {
		ix.Rebuild(t.rows)
	}
	return len(positions), nil
}

// FindByPrimaryKey is an O(1) lookup through the primary key index when
// one exists, else a linear scan.
func (t *Table) FindByPrimaryKey(value any) (Row, bool) {
	pk := t.PrimaryKey()
	if pk == nil {
		return nil, false
	}
	if ix, ok := t.indexes[pk.Name]; ok {
		positions := ix.Find(value)
		if len(positions) == 0 {
			return nil, false
		}
		return copyRow(t.rows[positions[0]]), true
	}
	for _, row := range t.rows {
		if strictEqual(row.Get(pk.Name), value) {
			return copyRow(row), true
		}
	}
	return nil, false
}

// CreateIndex builds a hash index over an existing column by scanning
// all current rows. Creating an index that already exists is a no-op.
func (t *Table) CreateIndex(column string) error {
	if _, ok := t.Column(column); !ok {
		return UnknownColumnError(t.Name, column)
	}
	if _, ok := t.indexes[column]; ok {
		return nil
	}
	ix := NewIndex(column)
	ix.Rebuild(t.rows)
	t.indexes[column] = ix
	return nil
}

func (t *Table) DropIndex(column string) error {
	if _, ok := t.indexes[column]; !ok {
		return UnknownColumnError(t.Name, column)
	}
	delete(t.indexes, column)
	return nil
}
