package store

import (
	"strings"
	"unicode"
)

// ColumnCount returns the number of top-level items in the column list of
// the statement's outermost SELECT. Commas nested in parentheses or quoted
// text do not count. The result is never less than 1.
//
//	ColumnCount("SELECT a, b, c FROM t")                 // 3
//	ColumnCount("SELECT coalesce(a, b), 'x,y' FROM t")   // 2
//	ColumnCount("WITH q AS (SELECT 1, 2) SELECT * FROM q") // 1
func ColumnCount(statement string) int {
	start := findKeyword(statement, "select", 0)
	if start < 0 {
		return 1
	}

	items := 1
	sc := newScanner(statement, start+len("select"))
	for sc.next() {
		if sc.depth > 0 {
			continue
		}
		switch {
		case sc.ch == ',':
			items++
		case sc.atWord("from"):
			return items
		}
	}
	return items
}

// findKeyword locates keyword at nesting depth zero outside of quotes.
func findKeyword(statement, keyword string, from int) int {
	sc := newScanner(statement, from)
	for sc.next() {
		if sc.depth == 0 && sc.atWord(keyword) {
			return sc.pos
		}
	}
	return -1
}

// scanner walks SQL text one byte at a time while tracking parenthesis
// depth and skipping over quoted sections and comments.
type scanner struct {
	src   string
	pos   int
	ch    byte
	depth int
	begun bool
}

func newScanner(src string, pos int) *scanner {
	return &scanner{src: src, pos: pos}
}

// next advances to the next significant byte. Quoted text and comments are
// consumed whole and never reported.
func (s *scanner) next() bool {
	if s.begun {
		s.pos++
	}
	s.begun = true

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\'' || c == '"' || c == '`':
			s.skipQuoted(c)
		case c == '[':
			s.skipQuoted(']')
		case c == '-' && strings.HasPrefix(s.src[s.pos:], "--"):
			if nl := strings.IndexByte(s.src[s.pos:], '\n'); nl >= 0 {
				s.pos += nl + 1
			} else {
				s.pos = len(s.src)
			}
		case c == '/' && strings.HasPrefix(s.src[s.pos:], "/*"):
			if end := strings.Index(s.src[s.pos+2:], "*/"); end >= 0 {
				s.pos += end + 4
			} else {
				s.pos = len(s.src)
			}
		default:
			switch c {
			case '(':
				s.depth++
			case ')':
				if s.depth > 0 {
					s.depth--
				}
			}
			s.ch = c
			return true
		}
	}
	return false
}

// skipQuoted moves past a quoted section. SQL escapes a closing quote by
// doubling it, which the loop handles as two adjacent sections.
func (s *scanner) skipQuoted(quote byte) {
	end := strings.IndexByte(s.src[s.pos+1:], quote)
	if end < 0 {
		s.pos = len(s.src)
		return
	}
	s.pos += end + 2
}

// atWord reports whether a case-insensitive keyword starts at the current
// position with identifier boundaries on both sides.
func (s *scanner) atWord(word string) bool {
	end := s.pos + len(word)
	if end > len(s.src) || !strings.EqualFold(s.src[s.pos:end], word) {
		return false
	}
	if s.pos > 0 && isIdent(s.src[s.pos-1]) {
		return false
	}
	if end < len(s.src) && isIdent(s.src[end]) {
		return false
	}
	return true
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
