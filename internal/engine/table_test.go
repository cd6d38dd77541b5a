package engine_test

import (
	"testing"

	. "github.com/minsql/minsql/internal/engine"
	"github.com/minsql/minsql/internal/parser"
	"gotest.tools/assert"
)

func usersTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("users", []Column{
		{Name: "id", Type: TypeInt, PrimaryKey: true},
		{Name: "name", Type: TypeText, NotNull: true},
		{Name: "email", Type: TypeText, Unique: true},
		{Name: "active", Type: TypeBool},
	})
	assert.NilError(t, err)
	return table
}

func insertUser(t *testing.T, table *Table, id int64, name string, email any) {
	t.Helper()
	_, err := table.Insert(Row{"id": id, "name": name, "email": email, "active": true})
	assert.NilError(t, err)
}

func eq(column string, value any) *parser.WhereClause {
	return &parser.WhereClause{Column: column, Operator: "=", Value: value}
}

func TestNewTable(t *testing.T) {
	t.Run("primary key implies unique and not null", func(t *testing.T) {
		table := usersTable(t)

		pk := table.PrimaryKey()
		assert.Assert(t, pk != nil)
		assert.Equal(t, pk.Name, "id")
		assert.Assert(t, pk.Unique)
		assert.Assert(t, pk.NotNull)
	})

	t.Run("primary key gets an index up front", func(t *testing.T) {
		table := usersTable(t)

		_, ok := table.Index("id")
		assert.Assert(t, ok)
	})

	t.Run("duplicate column names rejected", func(t *testing.T) {
		_, err := NewTable("t", []Column{
			{Name: "a", Type: TypeInt},
			{Name: "a", Type: TypeText},
		})
		assert.ErrorContains(t, err, "Duplicate column")
	})
}

func TestInsert(t *testing.T) {
	t.Run("valid rows accumulate in order", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")
		insertUser(t, table, 2, "Bob", "b@x.io")

		rows, err := table.Select([]string{"*"}, nil)
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 2)
		assert.Equal(t, rows[0].Get("name"), "Alice")
		assert.Equal(t, rows[1].Get("name"), "Bob")
	})

	t.Run("duplicate primary key leaves table unchanged", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		_, err := table.Insert(Row{"id": int64(1), "name": "Bob", "email": "b@x.io"})
		assert.ErrorContains(t, err, "Duplicate primary key")
		assert.Assert(t, IsKind(err, ErrConstraintViolation))

		assert.Equal(t, table.Len(), 1)
		row, found := table.FindByPrimaryKey(int64(1))
		assert.Assert(t, found)
		assert.Equal(t, row.Get("name"), "Alice")
	})

	t.Run("not null violation rejects atomically", func(t *testing.T) {
		table := usersTable(t)

		_, err := table.Insert(Row{"id": int64(1), "name": nil})
		assert.ErrorContains(t, err, "cannot be null")
		assert.Equal(t, table.Len(), 0)

		ix, _ := table.Index("id")
		assert.Equal(t, len(ix.Entries()), 0)
	})

	t.Run("type violation rejects atomically", func(t *testing.T) {
		table := usersTable(t)

		_, err := table.Insert(Row{"id": "one", "name": "Alice"})
		assert.ErrorContains(t, err, "Invalid value")
		assert.Equal(t, table.Len(), 0)
	})

	t.Run("unique violation names the column", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "same@x.io")

		_, err := table.Insert(Row{"id": int64(2), "name": "Bob", "email": "same@x.io"})
		assert.ErrorContains(t, err, "unique column email")
		assert.Equal(t, table.Len(), 1)
	})

	t.Run("null is allowed on a unique non-pk column twice", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", nil)
		insertUser(t, table, 2, "Bob", nil)

		assert.Equal(t, table.Len(), 2)
	})
}

func TestSelect(t *testing.T) {
	t.Run("unknown requested column", func(t *testing.T) {
		table := usersTable(t)

		_, err := table.Select([]string{"nope"}, nil)
		assert.Assert(t, IsKind(err, ErrUnknownColumn))
	})

	t.Run("projection excludes unrequested columns", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		rows, err := table.Select([]string{"name"}, eq("id", int64(1)))
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 1)
		assert.Equal(t, rows[0].Get("name"), "Alice")
		assert.Assert(t, !rows[0].Has("id"))
	})

	t.Run("returned rows are copies", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		rows, err := table.Select([]string{"*"}, nil)
		assert.NilError(t, err)
		rows[0].Set("name", "Mallory")

		again, err := table.Select([]string{"*"}, nil)
		assert.NilError(t, err)
		assert.Equal(t, again[0].Get("name"), "Alice")
	})

	t.Run("equality comparisons are type sensitive", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		rows, err := table.Select([]string{"*"}, eq("name", int64(5)))
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 0)
	})

	t.Run("ordering operators", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")
		insertUser(t, table, 2, "Bob", "b@x.io")
		insertUser(t, table, 3, "Cara", "c@x.io")

		rows, err := table.Select([]string{"*"}, &parser.WhereClause{Column: "id", Operator: ">=", Value: int64(2)})
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 2)
		assert.Equal(t, rows[0].Get("name"), "Bob")
	})

	t.Run("like is case-insensitive whole-string", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")
		insertUser(t, table, 2, "Alan", "b@x.io")
		insertUser(t, table, 3, "Bob", "c@x.io")

		rows, err := table.Select([]string{"*"}, &parser.WhereClause{Column: "name", Operator: "LIKE", Value: "al%"})
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 2)

		rows, err = table.Select([]string{"*"}, &parser.WhereClause{Column: "name", Operator: "LIKE", Value: "b_b"})
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 1)

		// LIKE against a non-string column is false, not an error
		rows, err = table.Select([]string{"*"}, &parser.WhereClause{Column: "id", Operator: "LIKE", Value: "1"})
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 0)
	})

	t.Run("where equals null matches null rows even on an indexed column", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", nil)
		insertUser(t, table, 2, "Bob", "b@x.io")
		assert.NilError(t, table.CreateIndex("email"))

		rows, err := table.Select([]string{"name"}, eq("email", nil))
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 1)
		assert.Equal(t, rows[0].Get("name"), "Alice")
	})

	t.Run("unsupported operator", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		_, err := table.Select([]string{"*"}, &parser.WhereClause{Column: "id", Operator: "BETWEEN", Value: int64(1)})
		assert.Assert(t, IsKind(err, ErrUnsupportedOperator))
	})
}

func TestUpdate(t *testing.T) {
	set := func(column string, value any) []parser.Assignment {
		return []parser.Assignment{{Column: column, Value: value}}
	}

	t.Run("missing where clause mutates nothing", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		_, err := table.Update(set("name", "Mallory"), nil)
		assert.Assert(t, IsKind(err, ErrMissingWhereClause))

		rows, _ := table.Select([]string{"*"}, nil)
		assert.Equal(t, rows[0].Get("name"), "Alice")
	})

	t.Run("updates matching rows and indexes", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")
		insertUser(t, table, 2, "Bob", "b@x.io")

		count, err := table.Update(set("id", int64(9)), eq("id", int64(2)))
		assert.NilError(t, err)
		assert.Equal(t, count, 1)

		row, found := table.FindByPrimaryKey(int64(9))
		assert.Assert(t, found)
		assert.Equal(t, row.Get("name"), "Bob")

		_, found = table.FindByPrimaryKey(int64(2))
		assert.Assert(t, !found)
	})

	t.Run("unique conflict midway keeps earlier rows updated", func(t *testing.T) {
		table, err := NewTable("t", []Column{
			{Name: "id", Type: TypeInt, PrimaryKey: true},
			{Name: "grp", Type: TypeInt},
			{Name: "email", Type: TypeText, Unique: true},
		})
		assert.NilError(t, err)
		for i, email := range []string{"a@x.io", "b@x.io", "taken@x.io"} {
			_, err := table.Insert(Row{"id": int64(i + 1), "grp": int64(1), "email": email})
			assert.NilError(t, err)
		}

		// rewriting every row's email to the same value conflicts once the
		// first row holds it; the first rewrite is kept, later rows stay put
		count, err := table.Update(set("email", "fresh@x.io"), eq("grp", int64(1)))
		assert.ErrorContains(t, err, "unique column email")
		assert.Equal(t, count, 1)

		rows, _ := table.Select([]string{"email"}, nil)
		assert.Equal(t, rows[0].Get("email"), "fresh@x.io")
		assert.Equal(t, rows[1].Get("email"), "b@x.io")
		assert.Equal(t, rows[2].Get("email"), "taken@x.io")
	})

	t.Run("unknown assignment column", func(t *testing.T) {
		table := usersTable(t)
		_, err := table.Update(set("nope", int64(1)), eq("id", int64(1)))
		assert.Assert(t, IsKind(err, ErrUnknownColumn))
	})
}

func TestDelete(t *testing.T) {
	t.Run("missing where clause", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		_, err := table.Delete(nil)
		assert.Assert(t, IsKind(err, ErrMissingWhereClause))
		assert.Equal(t, table.Len(), 1)
	})

	t.Run("delete rebuilds indexes for shifted positions", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")
		insertUser(t, table, 2, "Bob", "b@x.io")
		insertUser(t, table, 3, "Cara", "c@x.io")

		count, err := table.Delete(eq("id", int64(1)))
		assert.NilError(t, err)
		assert.Equal(t, count, 1)

		rows, err := table.Select([]string{"*"}, eq("id", int64(1)))
		assert.NilError(t, err)
		assert.Equal(t, len(rows), 0)

		// a different still-present key resolves through the rebuilt index
		row, found := table.FindByPrimaryKey(int64(3))
		assert.Assert(t, found)
		assert.Equal(t, row.Get("name"), "Cara")
	})

	t.Run("deleted unique values become available again", func(t *testing.T) {
		table := usersTable(t)
		insertUser(t, table, 1, "Alice", "a@x.io")

		_, err := table.Delete(eq("id", int64(1)))
		assert.NilError(t, err)

		insertUser(t, table, 1, "Anna", "a@x.io")
		assert.Equal(t, table.Len(), 1)
	})
}

// index contents must always equal what a from-scratch rebuild produces
func TestIndexNeverGoesStale(t *testing.T) {
	table := usersTable(t)
	assert.NilError(t, table.CreateIndex("email"))

	step := func() {
		t.Helper()
		for _, column := range table.IndexedColumns() {
			live, _ := table.Index(column)
			fresh := NewIndex(column)
			fresh.Rebuild(table.Rows())
			assert.DeepEqual(t, live.Entries(), fresh.Entries())
		}
	}

	insertUser(t, table, 1, "Alice", "a@x.io")
	step()
	insertUser(t, table, 2, "Bob", "b@x.io")
	insertUser(t, table, 3, "Cara", "c@x.io")
	step()

	_, err := table.Update([]parser.Assignment{{Column: "email", Value: "new@x.io"}}, eq("id", int64(2)))
	assert.NilError(t, err)
	step()

	_, err = table.Delete(eq("id", int64(1)))
	assert.NilError(t, err)
	step()

	insertUser(t, table, 4, "Dan", "d@x.io")
	step()
}

func TestCreateDropIndex(t *testing.T) {
	table := usersTable(t)
	insertUser(t, table, 1, "Alice", "a@x.io")

	assert.NilError(t, table.CreateIndex("email"))
	ix, ok := table.Index("email")
	assert.Assert(t, ok)
	assert.DeepEqual(t, ix.Find("a@x.io"), []int{0})

	// creating twice is a no-op
	assert.NilError(t, table.CreateIndex("email"))

	assert.NilError(t, table.DropIndex("email"))
	_, ok = table.Index("email")
	assert.Assert(t, !ok)

	err := table.CreateIndex("nope")
	assert.Assert(t, IsKind(err, ErrUnknownColumn))
}
