package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	int_re = regexp.MustCompile(`^-?\d+$`)
	dec_re = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// ParseValue coerces a single value token into a scalar. The tokenizer
// keeps string delimiters, so a quoted token is unambiguously a string.
// A bare non-numeric token is accepted as a string rather than rejected;
// callers depend on this leniency.
func ParseValue(tok string) any {
	switch strings.ToUpper(tok) {
	case "NULL":
		return nil
	case "TRUE":
		return true
	case "FALSE":
		return false
	}

	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		return tok[1 : len(tok)-1]
	}

	if int_re.MatchString(tok) {
		i, err := strconv.ParseInt(tok, 10, 64)
		if err == nil {
			return i
		}
	}

	if dec_re.MatchString(tok) {
		f, err := strconv.ParseFloat(tok, 64)
		if err == nil {
			return f
		}
	}

	return tok
}
