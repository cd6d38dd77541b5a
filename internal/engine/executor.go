package engine

import (
	"fmt"
	"strings"

	"github.com/minsql/minsql/internal/parser"
	"github.com/minsql/minsql/pkg"
)

// Catalog is the namespace layer the executor resolves tables through.
// Lookups always go through the currently active database, so a USE
// statement naturally changes what later statements operate on.
type Catalog interface {
	Table(name string) (*Table, error)
	CreateTable(name string, columns []Column) error
	DropTable(name string) error
	CreateDatabase(name string, ifNotExists bool) (bool, error)
	DropDatabase(name string, ifExists bool) (bool, error)
	Use(name string) error
	DatabaseNames() []string
	TableNames() ([]string, error)
}

// Result is the uniform envelope every executed statement produces. The
// json field names are wire-stable; existing callers depend on them.
type Result struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data"`
	RowsAffected int    `json:"rows_affected"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}

func failedResult(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

type Executor struct {
	catalog Catalog
}

func NewExecutor(catalog Catalog) *Executor {
	return &Executor{catalog: catalog}
}

// Execute parses and runs a single query string. It never panics or
// returns an error across this boundary: every failure comes back as a
// failed envelope.
func (e *Executor) Execute(query string) Result {
	stmt, err := parser.Parse(query)
	if err != nil {
		return failedResult(err)
	}
	return e.ExecuteStmt(stmt)
}

// ExecuteStmt runs an already-parsed statement.
func (e *Executor) ExecuteStmt(stmt parser.Statement) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			pkg.ErrorLog("recovered executing statement:", r)
			res = Result{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return e.execSelect(s)
	case *parser.InsertStmt:
		return e.execInsert(s)
	case *parser.UpdateStmt:
		return e.execUpdate(s)
	case *parser.DeleteStmt:
		return e.execDelete(s)
	case *parser.CreateTableStmt:
		return e.execCreateTable(s)
	case *parser.DropTableStmt:
		return e.execDropTable(s)
	case *parser.CreateDatabaseStmt:
		return e.execCreateDatabase(s)
	case *parser.DropDatabaseStmt:
		return e.execDropDatabase(s)
	case *parser.UseStmt:
		return e.execUse(s)
	case *parser.ShowStmt:
		return e.execShow(s)
	}
	return failedResult(fmt.Errorf("unhandled statement type %T", stmt))
}

func (e *Executor) execSelect(s *parser.SelectStmt) Result {
	if s.Join != nil {
		return e.execJoin(s)
	}
	table, err := e.catalog.Table(s.Table)
	if err != nil {
		return failedResult(err)
	}
	rows, err := table.Select(s.Columns, s.Where)
	if err != nil {
		return failedResult(err)
	}
	return Result{
		Success:      true,
		Data:         rows,
		RowsAffected: len(rows),
		Message:      fmt.Sprintf("Found %d rows in table %s", len(rows), s.Table),
	}
}

func (e *Executor) execInsert(s *parser.InsertStmt) Result {
	table, err := e.catalog.Table(s.Table)
	if err != nil {
		return failedResult(err)
	}

	data := Row{}
	if s.Columns == nil {
		// positional assignment against the declared column order
		columns := table.Columns()
		if len(s.Values) != len(columns) {
			return failedResult(NewQueryError(ErrArityMismatch,
				"Table %s has %d columns but %d values were supplied",
				s.Table, len(columns), len(s.Values)))
		}
		for i, col := range columns {
			data.Set(col.Name, s.Values[i])
		}
	} else {
		if len(s.Values) != len(s.Columns) {
			return failedResult(NewQueryError(ErrArityMismatch,
				"%d columns listed but %d values supplied", len(s.Columns), len(s.Values)))
		}
		for i, name := range s.Columns {
			if _, ok := table.Column(name); !ok {
				return failedResult(UnknownColumnError(s.Table, name))
			}
			data.Set(name, s.Values[i])
		}
	}

	row, err := table.Insert(data)
	if err != nil {
		return failedResult(err)
	}
	return Result{
		Success:      true,
		Data:         row,
		RowsAffected: 1,
		Message:      fmt.Sprintf("Inserted 1 row into table %s", s.Table),
	}
}

func (e *Executor) execUpdate(s *parser.UpdateStmt) Result {
	table, err := e.catalog.Table(s.Table)
	if err != nil {
		return failedResult(err)
	}
	count, err := table.Update(s.Assignments, s.Where)
	if err != nil {
		return failedResult(err)
	}
	return Result{
		Success:      true,
		RowsAffected: count,
		Message:      fmt.Sprintf("Updated %d rows in table %s", count, s.Table),
	}
}

func (e *Executor) execDelete(s *parser.DeleteStmt) Result {
	table, err := e.catalog.Table(s.Table)
	if err != nil {
		return failedResult(err)
	}
	count, err := table.Delete(s.Where)
	if err != nil {
		return failedResult(err)
	}
	return Result{
		Success:      true,
		RowsAffected: count,
		Message:      fmt.Sprintf("Deleted %d rows from table %s", count, s.Table),
	}
}

func (e *Executor) execCreateTable(s *parser.CreateTableStmt) Result {
	columns := make([]Column, len(s.Columns))
	for i, def := range s.Columns {
		typ, err := ResolveColumnType(def.Type)
		if err != nil {
			return failedResult(err)
		}
		columns[i] = Column{
			Name:       def.Name,
			Type:       typ,
			PrimaryKey: def.PrimaryKey,
			NotNull:    def.NotNull,
			Unique:     def.Unique,
		}
	}
	if err := e.catalog.CreateTable(s.Table, columns); err != nil {
		return failedResult(err)
	}
	return Result{Success: true, Message: fmt.Sprintf("Table %s created", s.Table)}
}

func (e *Executor) execDropTable(s *parser.DropTableStmt) Result {
	if err := e.catalog.DropTable(s.Table); err != nil {
		return failedResult(err)
	}
	return Result{Success: true, Message: fmt.Sprintf("Table %s dropped", s.Table)}
}

func (e *Executor) execCreateDatabase(s *parser.CreateDatabaseStmt) Result {
	created, err := e.catalog.CreateDatabase(s.Name, s.IfNotExists)
	if err != nil {
		return failedResult(err)
	}
	msg := fmt.Sprintf("Database %s created", s.Name)
	if !created {
		msg = fmt.Sprintf("Database %s already exists", s.Name)
	}
	return Result{Success: true, Message: msg}
}

func (e *Executor) execDropDatabase(s *parser.DropDatabaseStmt) Result {
	dropped, err := e.catalog.DropDatabase(s.Name, s.IfExists)
	if err != nil {
		return failedResult(err)
	}
	msg := fmt.Sprintf("Database %s dropped", s.Name)
	if !dropped {
		msg = fmt.Sprintf("Database %s does not exist", s.Name)
	}
	return Result{Success: true, Message: msg}
}

func (e *Executor) execUse(s *parser.UseStmt) Result {
	if err := e.catalog.Use(s.Name); err != nil {
		return failedResult(err)
	}
	return Result{Success: true, Message: fmt.Sprintf("Using database %s", s.Name)}
}

func (e *Executor) execShow(s *parser.ShowStmt) Result {
	switch s.Target {
	case "DATABASES":
		names := e.catalog.DatabaseNames()
		return Result{Success: true, Data: names, Message: fmt.Sprintf("%d databases", len(names))}
	case "TABLES":
		names, err := e.catalog.TableNames()
		if err != nil {
			return failedResult(err)
		}
		return Result{Success: true, Data: names, Message: fmt.Sprintf("%d tables", len(names))}
	}
	return failedResult(fmt.Errorf("unhandled SHOW target %s", s.Target))
}

// splitQualified splits `table.column` into its parts. The column part
// may itself contain no further dots; anything after the first dot is
// treated as the column name.
func splitQualified(name string) (string, string) {
	i := strings.Index(name, ".")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// execJoin runs a single inner join: it builds a temporary index over
// the right table's join column, then makes one pass over the left
// table's rows emitting the cross product of matches. Output columns are
// table-qualified to avoid name collisions.
func (e *Executor) execJoin(s *parser.SelectStmt) Result {
	left, err := e.catalog.Table(s.Table)
	if err != nil {
		return failedResult(err)
	}
	right, err := e.catalog.Table(s.Join.Table)
	if err != nil {
		return failedResult(err)
	}

	leftCol, rightCol, err := resolveJoinColumns(s, left, right)
	if err != nil {
		return failedResult(err)
	}

	rightRows := right.Rows()
	joinIndex := NewIndex(rightCol)
	joinIndex.Rebuild(rightRows)

	joined := []Row{}
	for _, lrow := range left.Rows() {
		key := lrow.Get(leftCol)
		if key == nil {
			continue
		}
		for _, rpos := range joinIndex.Find(key) {
			merged := Row{}
			for k, v := range lrow {
				merged.Set(left.Name+"."+k, v)
			}
			for k, v := range rightRows[rpos] {
				merged.Set(right.Name+"."+k, v)
			}
			joined = append(joined, merged)
		}
	}

	if s.Where != nil && len(joined) > 0 {
		// every joined row carries the same key set, so the filtered
		// column resolves once up front
		name, ok := resolveJoinedColumn(joined[0], s.Where.Column, left.Name, right.Name)
		if !ok {
			return failedResult(UnknownColumnError(s.Table+"/"+s.Join.Table, s.Where.Column))
		}
		var cmpErr error
		joined = pkg.Filter(joined, func(row Row) bool {
			match, err := compareValues(row.Get(name), s.Where.Operator, s.Where.Value)
			if err != nil {
				cmpErr = err
			}
			return match
		})
		if cmpErr != nil {
			return failedResult(cmpErr)
		}
	}

	rows, err := projectJoined(joined, s.Columns, left.Name, right.Name)
	if err != nil {
		return failedResult(err)
	}
	return Result{
		Success:      true,
		Data:         rows,
		RowsAffected: len(rows),
		Message:      fmt.Sprintf("Found %d rows joining %s and %s", len(rows), s.Table, s.Join.Table),
	}
}

// resolveJoinColumns maps the two qualified ON columns onto the left and
// right tables, accepting them in either order.
func resolveJoinColumns(s *parser.SelectStmt, left, right *Table) (string, string, error) {
	lqual, lcol := splitQualified(s.Join.LeftColumn)
	rqual, rcol := splitQualified(s.Join.RightColumn)

	if lqual == right.Name && rqual == left.Name {
		lqual, lcol, rqual, rcol = rqual, rcol, lqual, lcol
	}
	if lqual != left.Name || rqual != right.Name {
		return "", "", UnknownTableError(lqual)
	}
	if _, ok := left.Column(lcol); !ok {
		return "", "", UnknownColumnError(left.Name, lcol)
	}
	if _, ok := right.Column(rcol); !ok {
		return "", "", UnknownColumnError(right.Name, rcol)
	}
	return lcol, rcol, nil
}

// resolveJoinedColumn finds a requested column in a joined row under its
// qualified name, or under either table's qualification when the request
// is unqualified.
func resolveJoinedColumn(row Row, name, leftTable, rightTable string) (string, bool) {
	if row.Has(name) {
		return name, true
	}
	if row.Has(leftTable + "." + name) {
		return leftTable + "." + name, true
	}
	if row.Has(rightTable + "." + name) {
		return rightTable + "." + name, true
	}
	return "", false
}

func projectJoined(rows []Row, columns []string, leftTable, rightTable string) ([]Row, error) {
	if len(columns) == 1 && columns[0] == "*" {
		return rows, nil
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		projected := Row{}
		for _, requested := range columns {
			name, ok := resolveJoinedColumn(row, requested, leftTable, rightTable)
			if !ok {
				return nil, UnknownColumnError(leftTable+"/"+rightTable, requested)
			}
			projected.Set(requested, row.Get(name))
		}
		out = append(out, projected)
	}
	return out, nil
}
