package sqltext

import (
	"strings"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

// CastFunction is the function form CAST expressions are rewritten to.
const CastFunction = "cast_to"

// Normalize back-quotes every name in functions that is immediately followed by `(`, and
// every bare `default` keyword, so that the SQL front-end reads them as plain identifiers.
// Text inside quotes is left alone. Matching is case-insensitive.
func Normalize(text string, functions map[string]struct{}) string {
	var out strings.Builder
	out.Grow(len(text) + 16)
	for i := 0; i < len(text); {
		c := text[i]
		if isQuote(c) {
			end := skipQuoted(text, i)
			out.WriteString(text[i:end])
			i = end
			continue
		}
		if !isIdentStart(c) || (i > 0 && (isIdentPart(text[i-1]) || text[i-1] == '.')) {
			out.WriteByte(c)
			i++
			continue
		}
		j := i
		for j < len(text) && isIdentPart(text[j]) {
			j++
		}
		word := text[i:j]
		lower := strings.ToLower(word)
		_, known := functions[lower]
		switch {
		case known && j < len(text) && text[j] == '(':
			out.WriteString("`" + word + "`")
		case lower == "default" && (j >= len(text) || text[j] != '('):
			out.WriteString("`" + word + "`")
		default:
			out.WriteString(word)
		}
		i = j
	}
	return out.String()
}

// RewriteCasts turns every `CAST(expr AS type)` into `cast_to(expr, 'type')`. The SQL front-end
// only knows the MySQL cast types; the function form lets the compiler accept int, long,
// float, double, string and datetime as well, and report unknown types itself.
func RewriteCasts(text string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		if isQuote(c) {
			end := skipQuoted(text, i)
			out.WriteString(text[i:end])
			i = end
			continue
		}
		if !matchWordCall(text, i, "cast") {
			out.WriteByte(c)
			i++
			continue
		}
		open := strings.IndexByte(text[i:], '(') + i
		closing, err := matchingParen(text, open)
		if err != nil {
			return "", err
		}
		inner := text[open+1 : closing]
		as := lastTopLevelAs(inner)
		if as < 0 {
			return "", &qcerrors.ParseError{Fragment: text[i : closing+1], Reason: "CAST without AS"}
		}
		expr, err := RewriteCasts(strings.TrimSpace(inner[:as]))
		if err != nil {
			return "", err
		}
		typ := strings.Join(strings.Fields(inner[as+len(" as "):]), " ")
		out.WriteString(CastFunction + "(" + expr + ", '" + strings.ToLower(typ) + "')")
		i = closing + 1
	}
	return out.String(), nil
}

// matchWordCall reports whether text[i:] starts with word (any case) as a whole identifier
// followed by optional spaces and `(`.
func matchWordCall(text string, i int, word string) bool {
	if i+len(word) > len(text) || !strings.EqualFold(text[i:i+len(word)], word) {
		return false
	}
	if i > 0 && (isIdentPart(text[i-1]) || text[i-1] == '.' || text[i-1] == '`') {
		return false
	}
	j := i + len(word)
	for j < len(text) && text[j] == ' ' {
		j++
	}
	return j < len(text) && text[j] == '('
}

func matchingParen(text string, open int) (int, error) {
	depth := 0
	for i := open; i < len(text); {
		switch c := text[i]; {
		case isQuote(c):
			i = skipQuoted(text, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return -1, &qcerrors.ParseError{Fragment: text[open:], Reason: "unbalanced parentheses"}
}

// lastTopLevelAs returns the index of the last ` as ` outside parentheses and quotes, or -1.
func lastTopLevelAs(s string) int {
	depth, found := 0, -1
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isQuote(c):
			i = skipQuoted(s, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && isSpace(c) && i+4 <= len(s) && strings.EqualFold(s[i+1:i+3], "as") && isSpace(s[i+3]):
			found = i
		}
		i++
	}
	return found
}

// skipQuoted returns the index just past the quoted run starting at i. A doubled quote
// character inside the run is an escaped quote.
func skipQuoted(text string, i int) int {
	q := text[i]
	for j := i + 1; j < len(text); j++ {
		if text[j] == '\\' && q != '`' {
			j++
			continue
		}
		if text[j] != q {
			continue
		}
		if j+1 < len(text) && text[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(text)
}

func isQuote(c byte) bool { return c == '\'' || c == '"' || c == '`' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
