package parser

import (
	"net/http"
	"strings"

	"github.com/minsql/minsql/internal/token"
)

// SyntaxError reports a malformed statement, described by what the
// parser expected to find.
type SyntaxError struct {
	Expected string
}

func (e *SyntaxError) Error() string {
	return "syntax error: expected " + e.Expected
}

func (e *SyntaxError) Status() int { return http.StatusBadRequest }

type parser struct {
	tokens []string
	pos    int
}

// Parse tokenizes a query string and produces its Statement. Dispatch is
// by the first keyword, matched case-insensitively. Each statement parser
// is a straight-line consumption of the expected token shape.
func Parse(query string) (Statement, error) {
	tokens, err := token.Tokenize(query)
	if err != nil {
		return nil, err
	}
	for len(tokens) > 0 && tokens[len(tokens)-1] == ";" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return nil, &SyntaxError{Expected: "a statement"}
	}

	p := &parser{tokens: tokens}
	switch strings.ToUpper(tokens[0]) {
	case "SELECT":
		return p.parseSelect()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "CREATE":
		p.pos++
		switch strings.ToUpper(p.peek()) {
		case "TABLE":
			return p.parseCreateTable()
		case "DATABASE":
			return p.parseCreateDatabase()
		}
		return nil, &SyntaxError{Expected: "TABLE or DATABASE after CREATE"}
	case "DROP":
		p.pos++
		switch strings.ToUpper(p.peek()) {
		case "TABLE":
			return p.parseDropTable()
		case "DATABASE":
			return p.parseDropDatabase()
		}
		return nil, &SyntaxError{Expected: "TABLE or DATABASE after DROP"}
	case "USE":
		return p.parseUse()
	case "SHOW":
		return p.parseShow()
	}
	return nil, &SyntaxError{Expected: "a supported statement keyword"}
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

// matchKeyword consumes the next token when it equals kw case-insensitively.
func (p *parser) matchKeyword(kw string) bool {
	if strings.EqualFold(p.peek(), kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(desc string) (string, error) {
	tok := p.next()
	if tok == "" {
		return "", &SyntaxError{Expected: desc}
	}
	return tok, nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.matchKeyword(kw) {
		return &SyntaxError{Expected: kw}
	}
	return nil
}

func (p *parser) parseSelect() (Statement, error) {
	p.pos++ // SELECT

	stmt := &SelectStmt{}
	for {
		tok := p.peek()
		if tok == "" || strings.EqualFold(tok, "FROM") {
			break
		}
		p.pos++
		stmt.Columns = append(stmt.Columns, tok)
		if !p.matchKeyword(",") {
			break
		}
	}
	if len(stmt.Columns) == 0 {
		return nil, &SyntaxError{Expected: "column list after SELECT"}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expect("table name after FROM")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	joined := p.matchKeyword("JOIN")
	if !joined && p.matchKeyword("INNER") {
		if err := p.expectKeyword("JOIN"); err != nil {
			return nil, err
		}
		joined = true
	}
	if joined {
		join, err := p.parseJoinClause()
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if p.matchKeyword("WHERE") {
		where, err := p.parseWhereClause()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *parser) parseJoinClause() (*JoinClause, error) {
	table, err := p.expect("table name after JOIN")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	left, err := p.expect("qualified column in ON clause")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("="); err != nil {
		return nil, err
	}
	right, err := p.expect("qualified column in ON clause")
	if err != nil {
		return nil, err
	}
	if !strings.Contains(left, ".") || !strings.Contains(right, ".") {
		return nil, &SyntaxError{Expected: "table.column on both sides of ON"}
	}
	return &JoinClause{Table: table, LeftColumn: left, RightColumn: right}, nil
}

// parseWhereClause consumes exactly one column/operator/value comparison.
// The operator token is stored as-is; an unsupported operator is rejected
// during evaluation, not here.
func (p *parser) parseWhereClause() (*WhereClause, error) {
	column, err := p.expect("column name in WHERE clause")
	if err != nil {
		return nil, err
	}
	op, err := p.expect("comparison operator in WHERE clause")
	if err != nil {
		return nil, err
	}
	value, err := p.expect("value in WHERE clause")
	if err != nil {
		return nil, err
	}
	return &WhereClause{Column: column, Operator: strings.ToUpper(op), Value: ParseValue(value)}, nil
}

func (p *parser) parseInsert() (Statement, error) {
	p.pos++ // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expect("table name after INSERT INTO")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Table: table}

	if p.matchKeyword("(") {
		for {
			col, err := p.expect("column name in column list")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if !p.matchKeyword(",") {
				break
			}
		}
		if err := p.expectKeyword(")"); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("("); err != nil {
		return nil, err
	}
	for {
		tok, err := p.expect("value in VALUES list")
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, ParseValue(tok))
		if !p.matchKeyword(",") {
			break
		}
	}
	if err := p.expectKeyword(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseUpdate() (Statement, error) {
	p.pos++ // UPDATE
	table, err := p.expect("table name after UPDATE")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{Table: table}
	for {
		col, err := p.expect("column name in SET clause")
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("="); err != nil {
			return nil, err
		}
		tok, err := p.expect("value in SET clause")
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: ParseValue(tok)})
		if !p.matchKeyword(",") {
			break
		}
	}

	// grammar allows a missing WHERE; the executor rejects it
	if p.matchKeyword("WHERE") {
		where, err := p.parseWhereClause()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *parser) parseDelete() (Statement, error) {
	p.pos++ // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expect("table name after DELETE FROM")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Table: table}
	if p.matchKeyword("WHERE") {
		where, err := p.parseWhereClause()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *parser) parseCreateTable() (Statement, error) {
	p.pos++ // TABLE
	table, err := p.expect("table name after CREATE TABLE")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("("); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Table: table}
	for {
		def, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, *def)
		if !p.matchKeyword(",") {
			break
		}
	}
	if err := p.expectKeyword(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseColumnDef reads `name TYPE` followed by constraint flags in any
// order. Tokens it does not recognize are skipped without error until the
// next comma or closing paren.
func (p *parser) parseColumnDef() (*ColumnDef, error) {
	name, err := p.expect("column name in table definition")
	if err != nil {
		return nil, err
	}
	typ, err := p.expect("column type for " + name)
	if err != nil {
		return nil, err
	}
	def := &ColumnDef{Name: name, Type: strings.ToUpper(typ)}

	for {
		tok := p.peek()
		if tok == "" || tok == "," || tok == ")" {
			break
		}
		p.pos++
		switch strings.ToUpper(tok) {
		case "PRIMARY":
			if p.matchKeyword("KEY") {
				def.PrimaryKey = true
			}
		case "NOT":
			if p.matchKeyword("NULL") {
				def.NotNull = true
			}
		case "UNIQUE":
			def.Unique = true
		}
	}
	return def, nil
}

func (p *parser) parseCreateDatabase() (Statement, error) {
	p.pos++ // DATABASE
	stmt := &CreateDatabaseStmt{}
	if strings.EqualFold(p.peek(), "IF") {
		p.pos++
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.expect("database name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	return stmt, nil
}

func (p *parser) parseDropDatabase() (Statement, error) {
	p.pos++ // DATABASE
	stmt := &DropDatabaseStmt{}
	if strings.EqualFold(p.peek(), "IF") {
		p.pos++
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}
	name, err := p.expect("database name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	return stmt, nil
}

func (p *parser) parseDropTable() (Statement, error) {
	p.pos++ // TABLE
	table, err := p.expect("table name after DROP TABLE")
	if err != nil {
		return nil, err
	}
	return &DropTableStmt{Table: table}, nil
}

func (p *parser) parseUse() (Statement, error) {
	p.pos++ // USE
	name, err := p.expect("database name after USE")
	if err != nil {
		return nil, err
	}
	return &UseStmt{Name: name}, nil
}

func (p *parser) parseShow() (Statement, error) {
	p.pos++ // SHOW
	target, err := p.expect("DATABASES or TABLES after SHOW")
	if err != nil {
		return nil, err
	}
	target = strings.ToUpper(target)
	if target != "DATABASES" && target != "TABLES" {
		return nil, &SyntaxError{Expected: "DATABASES or TABLES after SHOW"}
	}
	return &ShowStmt{Target: target}, nil
}
