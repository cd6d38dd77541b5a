package catalog_test

import (
	"testing"

	. "github.com/minsql/minsql/internal/catalog"
	"github.com/minsql/minsql/internal/engine"
	"gotest.tools/assert"
)

func TestDatabases(t *testing.T) {
	t.Run("create and duplicate guard", func(t *testing.T) {
		c := New()

		created, err := c.CreateDatabase("app", false)
		assert.NilError(t, err)
		assert.Assert(t, created)

		_, err = c.CreateDatabase("app", false)
		assert.ErrorContains(t, err, "already exists")

		created, err = c.CreateDatabase("app", true)
		assert.NilError(t, err)
		assert.Assert(t, !created)
	})

	t.Run("names come back sorted", func(t *testing.T) {
		c := New()
		for _, name := range []string{"zeta", "alpha", "mid"} {
			_, err := c.CreateDatabase(name, false)
			assert.NilError(t, err)
		}

		assert.DeepEqual(t, c.DatabaseNames(), []string{"alpha", "mid", "zeta"})
	})

	t.Run("drop clears the active database", func(t *testing.T) {
		c := New()
		_, err := c.CreateDatabase("app", false)
		assert.NilError(t, err)
		assert.NilError(t, c.Use("app"))
		assert.Assert(t, c.Active() != nil)

		dropped, err := c.DropDatabase("app", false)
		assert.NilError(t, err)
		assert.Assert(t, dropped)
		assert.Assert(t, c.Active() == nil)

		_, err = c.DropDatabase("app", false)
		assert.ErrorContains(t, err, "does not exist")

		dropped, err = c.DropDatabase("app", true)
		assert.NilError(t, err)
		assert.Assert(t, !dropped)
	})

	t.Run("use unknown database", func(t *testing.T) {
		c := New()
		assert.ErrorContains(t, c.Use("ghost"), "does not exist")
	})
}

func TestTables(t *testing.T) {
	columns := []engine.Column{{Name: "id", Type: engine.TypeInt, PrimaryKey: true}}

	t.Run("operations require an active database", func(t *testing.T) {
		c := New()

		assert.ErrorContains(t, c.CreateTable("t", columns), "no database selected")
		_, err := c.Table("t")
		assert.ErrorContains(t, err, "no database selected")
		_, err = c.TableNames()
		assert.ErrorContains(t, err, "no database selected")
	})

	t.Run("create resolve drop", func(t *testing.T) {
		c := New()
		_, err := c.CreateDatabase("app", false)
		assert.NilError(t, err)
		assert.NilError(t, c.Use("app"))

		assert.NilError(t, c.CreateTable("users", columns))
		assert.ErrorContains(t, c.CreateTable("users", columns), "already exists")

		table, err := c.Table("users")
		assert.NilError(t, err)
		assert.Equal(t, table.Name, "users")

		_, err = c.Table("ghost")
		assert.Assert(t, engine.IsKind(err, engine.ErrUnknownTable))

		assert.NilError(t, c.DropTable("users"))
		err = c.DropTable("users")
		assert.Assert(t, engine.IsKind(err, engine.ErrUnknownTable))
	})

	t.Run("tables are per database", func(t *testing.T) {
		c := New()
		for _, name := range []string{"a", "b"} {
			_, err := c.CreateDatabase(name, false)
			assert.NilError(t, err)
		}
		assert.NilError(t, c.Use("a"))
		assert.NilError(t, c.CreateTable("only_in_a", columns))

		assert.NilError(t, c.Use("b"))
		_, err := c.Table("only_in_a")
		assert.Assert(t, engine.IsKind(err, engine.ErrUnknownTable))

		names, err := c.TableNames()
		assert.NilError(t, err)
		assert.Equal(t, len(names), 0)
	})
}
