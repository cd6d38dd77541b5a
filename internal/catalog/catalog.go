package catalog

import (
	"sort"

	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"

	"github.com/minsql/minsql/internal/engine"
	"github.com/minsql/minsql/pkg"
)

// Database is one named table set.
type Database struct {
	Name   string
	Tables pkg.Map[string, *engine.Table]
}

func NewDatabase(name string) *Database {
	return &Database{Name: name, Tables: pkg.Map[string, *engine.Table]{}}
}

// Catalog maps database names to their table sets and tracks which
// database is active. Databases are kept name-ordered so SHOW DATABASES
// lists them deterministically.
type Catalog struct {
	databases *sorted.SortedMap[string, *Database]
	active    *Database
}

func New() *Catalog {
	return &Catalog{
		databases: sorted.New[string, *Database](0, func(a, b *Database) bool {
			return a.Name < b.Name
		}),
	}
}

// Active returns the currently selected database, nil when none is.
func (c *Catalog) Active() *Database {
	return c.active
}

func (c *Catalog) Database(name string) (*Database, bool) {
	return c.databases.Get(name)
}

func (c *Catalog) CreateDatabase(name string, ifNotExists bool) (bool, error) {
	if c.databases.Has(name) {
		if ifNotExists {
			return false, nil
		}
		return false, errors.Errorf("database %s already exists", name)
	}
	c.databases.Insert(name, NewDatabase(name))
	return true, nil
}

func (c *Catalog) DropDatabase(name string, ifExists bool) (bool, error) {
	if !c.databases.Has(name) {
		if ifExists {
			return false, nil
		}
		return false, errors.Errorf("database %s does not exist", name)
	}
	c.databases.Delete(name)
	if c.active != nil && c.active.Name == name {
		c.active = nil
	}
	return true, nil
}

func (c *Catalog) Use(name string) error {
	db, ok := c.databases.Get(name)
	if !ok {
		return errors.Errorf("database %s does not exist", name)
	}
	c.active = db
	return nil
}

func (c *Catalog) DatabaseNames() []string {
	names := make([]string, 0, c.databases.Len())
	iter, err := c.databases.IterCh()
	if err != nil {
		return names
	}
	defer iter.Close()
	for rec := range iter.Records() {
		names = append(names, rec.Key)
	}
	return names
}

func (c *Catalog) TableNames() ([]string, error) {
	if c.active == nil {
		return nil, errors.New("no database selected")
	}
	names := c.active.Tables.Keys()
	sort.Strings(names)
	return names, nil
}

// Table resolves a table name in the active database.
func (c *Catalog) Table(name string) (*engine.Table, error) {
	if c.active == nil {
		return nil, errors.New("no database selected")
	}
	table, ok := c.active.Tables[name]
	if !ok {
		return nil, engine.UnknownTableError(name)
	}
	return table, nil
}

func (c *Catalog) CreateTable(name string, columns []engine.Column) error {
	if c.active == nil {
		return errors.New("no database selected")
	}
	if c.active.Tables.Has(name) {
		return errors.Errorf("table %s already exists", name)
	}
	table, err := engine.NewTable(name, columns)
	if err != nil {
		return err
	}
	c.active.Tables.Set(name, table)
	return nil
}

func (c *Catalog) DropTable(name string) error {
	if c.active == nil {
		return errors.New("no database selected")
	}
	if !c.active.Tables.Has(name) {
		return engine.UnknownTableError(name)
	}
	c.active.Tables.Delete(name)
	return nil
}
