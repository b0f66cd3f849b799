package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string
type MatchExpr struct {
	matchers []matchItem
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) backup() {
	p.pos--
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			s, err := strconv.Unquote(token.text)
			if err != nil {
				return cmd, fmt.Errorf("bad string at position %d: %w", token.pos, err)
			}
			arg = String(s)
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			matchExpr, err := p.matchExpr(p.next())
			if err != nil {
				return cmd, err
			}
			arg = matchExpr
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// matchExpr parses items separated by one or more slashes. Every slash
// moves the following item one subdivision level down. The expression ends
// at the first item not followed by a slash.
func (p *parser) matchExpr(start token) (MatchExpr, error) {
	match := MatchExpr{}
	current := matchItem{}

	for token := start; ; token = p.next() {
		switch token.typ {
		case typeInt:
			if p.peek().typ == typeColon {
				r, err := p.rangeMatch(token)
				if err != nil {
					return match, err
				}
				current.matcher = r
			} else {
				list, err := p.listMatch(token)
				if err != nil {
					return match, err
				}
				current.matcher = list
			}
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return match, unexpected(token)
		}

		if p.peek().typ != typeSlash {
			break
		}
		match.matchers = append(match.matchers, current)
		current = matchItem{level: current.level}
		for p.peek().typ == typeSlash {
			p.next()
			current.level++
		}
	}

	match.matchers = append(match.matchers, current)
	return match, nil
}

func (p *parser) rangeMatch(start token) (rangeMatch, error) {
	from, err := strconv.Atoi(start.text)
	if err != nil {
		return rangeMatch{}, err
	}
	p.next() // colon
	t := p.next()
	if t.typ != typeInt {
		return rangeMatch{}, unexpected(t)
	}
	to, err := strconv.Atoi(t.text)
	if err != nil {
		return rangeMatch{}, err
	}
	return rangeMatch{start: from, end: to}, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	n, err := strconv.Atoi(start.text)
	if err != nil {
		return nil, err
	}
	list := listMatch{n}
	for p.peek().typ == typeComma {
		p.next()
		t := p.next()
		if t.typ != typeInt {
			return list, unexpected(t)
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return list, err
		}
		list = append(list, n)
	}
	return list, nil
}

func unexpected(t token) error {
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
