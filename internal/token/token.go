package token

import (
	"fmt"
	"net/http"
	"strings"
)

// LexError reports input the scanner cannot classify, including
// unterminated string literals.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Pos, e.Msg)
}

func (e *LexError) Status() int { return http.StatusBadRequest }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// dot is allowed mid-identifier so `table.column` lexes as one token
func isIdentPart(b byte) bool {
	return isIdentStart(b) || b == '.' || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

const punctuation = "(),.;=><*"

// Tokenize splits query text into lexical tokens, left to right, with
// whitespace skipped. Quoted string tokens keep their surrounding quotes
// so later stages can tell a string literal from a bare identifier.
func Tokenize(input string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(input) {
		b := input[i]

		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			i++

		case b == '\'':
			tok, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next

		// two-character operators win over their one-character prefixes
		case i+1 < len(input) && (input[i:i+2] == ">=" || input[i:i+2] == "<=" ||
			input[i:i+2] == "!=" || input[i:i+2] == "<>"):
			tokens = append(tokens, input[i:i+2])
			i += 2

		case strings.IndexByte(punctuation, b) >= 0:
			tokens = append(tokens, string(b))
			i++

		case isIdentStart(b):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, input[start:i])

		case isDigit(b) || (b == '-' && i+1 < len(input) && isDigit(input[i+1])):
			tokens = append(tokens, scanNumber(input, &i))

		default:
			return nil, &LexError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", b)}
		}
	}
	return tokens, nil
}

// scanString consumes a single-quoted literal starting at input[start].
// Escaped quotes (\') inside the literal are unescaped; the delimiting
// quotes are preserved in the returned token.
func scanString(input string, start int) (string, int, error) {
	var sb strings.Builder
	sb.WriteByte('\'')
	i := start + 1
	for i < len(input) {
		switch input[i] {
		case '\\':
			if i+1 < len(input) && input[i+1] == '\'' {
				sb.WriteByte('\'')
				i += 2
				continue
			}
			sb.WriteByte(input[i])
			i++
		case '\'':
			sb.WriteByte('\'')
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(input[i])
			i++
		}
	}
	return "", 0, &LexError{Pos: start, Msg: "unterminated string literal"}
}

// scanNumber consumes an optionally negative integer or decimal literal.
// The distinction between the two is left to value coercion.
func scanNumber(input string, i *int) string {
	start := *i
	if input[*i] == '-' {
		*i++
	}
	for *i < len(input) && isDigit(input[*i]) {
		*i++
	}
	if *i+1 < len(input) && input[*i] == '.' && isDigit(input[*i+1]) {
		*i++
		for *i < len(input) && isDigit(input[*i]) {
			*i++
		}
	}
	return input[start:*i]
}
