package parser

// Statement is the common interface over all parsed statement kinds.
// A Statement is produced once per query string and never mutated after.
type Statement interface {
	stmtNode()
}

// WhereClause is a single column/operator/value comparison.
type WhereClause struct {
	Column   string
	Operator string
	Value    any
}

// JoinClause is a single INNER JOIN with an equality ON condition.
// Both sides of the condition are dot-qualified column names.
type JoinClause struct {
	Table       string
	LeftColumn  string
	RightColumn string
}

// Assignment is one `col = value` pair in an UPDATE SET clause.
type Assignment struct {
	Column string
	Value  any
}

// ColumnDef is a parsed column definition inside CREATE TABLE.
// Type is kept as the raw (uppercased) type word; resolving it to an
// engine type happens at execution time.
type ColumnDef struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

type SelectStmt struct {
	Table   string
	Columns []string
	Join    *JoinClause
	Where   *WhereClause
}

type InsertStmt struct {
	Table   string
	Columns []string // nil means positional assignment at execution time
	Values  []any
}

type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       *WhereClause // nil is rejected by the executor, not here
}

type DeleteStmt struct {
	Table string
	Where *WhereClause // same as UpdateStmt
}

type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

type DropTableStmt struct {
	Table string
}

type CreateDatabaseStmt struct {
	Name        string
	IfNotExists bool
}

type DropDatabaseStmt struct {
	Name     string
	IfExists bool
}

type UseStmt struct {
	Name string
}

// ShowStmt lists databases or tables; Target is "DATABASES" or "TABLES".
type ShowStmt struct {
	Target string
}

func (*SelectStmt) stmtNode()         {}
func (*InsertStmt) stmtNode()         {}
func (*UpdateStmt) stmtNode()         {}
func (*DeleteStmt) stmtNode()         {}
func (*CreateTableStmt) stmtNode()    {}
func (*DropTableStmt) stmtNode()      {}
func (*CreateDatabaseStmt) stmtNode() {}
func (*DropDatabaseStmt) stmtNode()   {}
func (*UseStmt) stmtNode()            {}
func (*ShowStmt) stmtNode()           {}
