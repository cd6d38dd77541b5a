package engine

import "github.com/pkg/errors"

type ColumnType string

const (
	TypeInt  ColumnType = "INT"
	TypeText ColumnType = "TEXT"
	TypeBool ColumnType = "BOOL"
)

// ResolveColumnType maps a raw type word from a column definition to one
// of the three supported scalar types.
func ResolveColumnType(word string) (ColumnType, error) {
	switch word {
	case "INT", "INTEGER":
		return TypeInt, nil
	case "TEXT", "STRING", "VARCHAR":
		return TypeText, nil
	case "BOOL", "BOOLEAN":
		return TypeBool, nil
	}
	return "", errors.Errorf("unsupported column type %s", word)
}

// Column describes one field of a table schema: a declared type plus
// constraint flags. Columns are immutable once their table is created.
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primary_key"`
	NotNull    bool       `json:"not_null"`
	Unique     bool       `json:"unique"`
}

// Validate checks a candidate value against the column's NOT NULL flag
// and declared type. Uniqueness is the owning table's concern since it
// needs the live value sets.
func (c *Column) Validate(value any) error {
	if value == nil {
		if c.NotNull {
			return NewQueryError(ErrConstraintViolation, "Column %s cannot be null", c.Name)
		}
		return nil
	}

	ok := false
	switch c.Type {
	case TypeInt:
		_, ok = value.(int64)
	case TypeText:
		_, ok = value.(string)
	case TypeBool:
		_, ok = value.(bool)
	}
	if !ok {
		return NewQueryError(ErrConstraintViolation,
			"Invalid value %v for column %s of type %s", value, c.Name, c.Type)
	}
	return nil
}
