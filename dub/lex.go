package dub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeFloat
	typeIdentifier
	typeString
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeEOF
)

const eof = -1

var punctuation = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
}

type token struct {
	typ  tokenType
	pos  int
	text string
}

// stateFn lexes from the current position and returns the next state, or nil
// once the input is consumed or an error was recorded.
type stateFn func(*lexer) stateFn

type lexer struct {
	input string

	width int
	start int
	pos   int

	tokens []token
	err    error
}

// lex splits a command line into tokens. A '#' outside a string starts a
// comment that runs to the end of the line.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	return l.tokens, l.err
}

func lexAny(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof || r == '#':
		l.start, l.pos = len(l.input), len(l.input)
		l.yieldToken(typeEOF)
		return nil
	case unicode.IsSpace(r):
		for unicode.IsSpace(l.peek()) {
			l.next()
		}
		l.start = l.pos
		return lexAny
	case unicode.IsLetter(r):
		return lexIdentifier
	case r == '"':
		return lexString
	case l.isNumber(r):
		l.backup()
		return lexNumber
	default:
		if typ, ok := punctuation[r]; ok {
			l.yieldToken(typ)
			return lexAny
		}
		return l.invalidChar(r)
	}
}

// lexIdentifier accepts dotted keys like lfo1.sync_beats.
func lexIdentifier(l *lexer) stateFn {
	for {
		r := l.next()
		if unicode.IsLetter(r) || isDigit(r) || strings.ContainsRune("_.-", r) {
			continue
		}
		l.backup()
		if !isDelimiter(r) {
			return l.invalidChar(r)
		}
		l.yieldToken(typeIdentifier)
		return lexAny
	}
}

// lexString scans a double quoted string. A backslash escapes the next rune.
func lexString(l *lexer) stateFn {
	for {
		switch l.next() {
		case '\\':
			if l.next() == eof {
				return l.errorf("unterminated string: %s", l.input[l.start:])
			}
		case '"':
			l.yieldToken(typeString)
			return lexAny
		case eof:
			return l.errorf("unterminated string: %s", l.input[l.start:])
		}
	}
}

const digits = "0123456789"

// lexNumber scans an int or a float with an optional sign. Numbers may end
// in the punctuation of match expressions, so '1:4' and '2,3' lex as
// separate tokens.
func lexNumber(l *lexer) stateFn {
	l.accept("-")
	l.take(digits)
	isFloat := l.accept(".")
	l.take(digits)

	if r := l.peek(); !isDelimiter(r) && !strings.ContainsRune("/:,", r) {
		return l.invalidChar(r)
	}
	if isFloat {
		l.yieldToken(typeFloat)
	} else {
		l.yieldToken(typeInt)
	}
	return lexAny
}

func (l *lexer) next() rune {
	if len(l.input) == l.pos {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += l.width
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
	l.width = 0
}

func (l *lexer) yieldToken(t tokenType) {
	l.tokens = append(l.tokens, token{t, l.start, l.input[l.start:l.pos]})
	l.start = l.pos
	l.width = 0
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.err = fmt.Errorf(format, args...)
	return nil
}

func (l *lexer) invalidChar(r rune) stateFn {
	if r == eof {
		return l.errorf("unexpected end of input")
	}
	return l.errorf("unexpected character: %#U at position %d", r, l.pos)
}

func (l *lexer) take(set string) int {
	var n int
	for strings.IndexRune(set, l.next()) >= 0 {
		n++
	}
	l.backup()
	return n
}

func (l *lexer) accept(set string) bool {
	if strings.IndexRune(set, l.next()) >= 0 {
		return true
	}
	l.backup()
	return false
}

// isNumber reports whether r starts a number: a digit, or a '-' or '.'
// that is followed by one.
func (l *lexer) isNumber(r rune) bool {
	if isDigit(r) {
		return true
	}
	rest := l.input[l.pos:]
	switch r {
	case '-':
		return strings.HasPrefix(rest, ".") && len(rest) > 1 && isDigit(rune(rest[1])) ||
			len(rest) > 0 && isDigit(rune(rest[0]))
	case '.':
		return len(rest) > 0 && isDigit(rune(rest[0]))
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDelimiter(r rune) bool {
	return r == eof || r == '#' || unicode.IsSpace(r)
}
