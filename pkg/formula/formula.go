// Package formula implements the closed expression grammar used by computed
// fields. Expressions reference captured values by field path and combine
// them with literals, a fixed operator set, and a small function table:
//
//	expr    := or
//	or      := and ( "||" and )*
//	and     := cmp ( "&&" cmp )*
//	cmp     := add ( ( "==" | "!=" | "<" | "<=" | ">" | ">=" ) add )?
//	add     := mul ( ( "+" | "-" ) mul )*
//	mul     := unary ( ( "*" | "/" ) unary )*
//	unary   := ( "!" | "-" ) unary | primary
//	primary := number | string | true | false | null
//	         | path | "{" path "}" | func "(" [ expr ( "," expr )* ] ")" | "(" expr ")"
//
// A path is "section_id.field_id". Ids that are not plain words, such as
// "site-info" or "2024_data", are written in braces: {site-info.visits}.
// Bare words are only legal as function names, which keeps every reference
// statically discoverable.
package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/fieldpath"
)

var (
	// ErrSyntax wraps every tokenizer and parser failure.
	ErrSyntax = errors.New("formula: syntax error")
	// ErrType is returned when an operator receives operands it cannot combine.
	ErrType = errors.New("formula: type mismatch")
	// ErrDivideByZero is returned for x / 0.
	ErrDivideByZero = errors.New("formula: division by zero")
	// ErrUnknownFunction is returned when a call names a function outside the
	// built-in table.
	ErrUnknownFunction = errors.New("formula: unknown function")
)

// Lookup resolves a field path to its current value. The boolean reports
// whether the path holds a value at all.
type Lookup func(path string) (any, bool)

// MapLookup adapts a captured-data map into a Lookup.
func MapLookup(data map[string]any) Lookup {
	return func(path string) (any, bool) {
		v, ok := data[path]
		return v, ok
	}
}

// Expression is a parsed formula.
type Expression struct {
	source string
	root   node
	refs   []string
}

// Parse tokenizes and parses src. Empty input is a syntax error.
func Parse(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, tok.raw, tok.pos)
	}
	return &Expression{source: trimmed, root: root, refs: p.refs}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(src string) *Expression {
	expr, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// References parses src and returns the field paths it reads.
func References(src string) ([]string, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return expr.References(), nil
}

// String returns the trimmed source text.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// References returns the unique field paths the expression reads, in order of
// first appearance.
func (e *Expression) References() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.refs...)
}

// Eval evaluates the expression. Paths missing from lookup evaluate to null.
// The result is one of float64, string, bool, []any, or nil.
func (e *Expression) Eval(lookup Lookup) (any, error) {
	if e == nil || e.root == nil {
		return nil, nil
	}
	if lookup == nil {
		lookup = func(string) (any, bool) { return nil, false }
	}
	return e.root.eval(lookup)
}

type parser struct {
	tokens []token
	pos    int
	refs   []string
	seen   map[string]struct{}
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) match(kinds ...tokenKind) (token, bool) {
	tok, ok := p.peek()
	if !ok {
		return token{}, false
	}
	for _, kind := range kinds {
		if tok.kind == kind {
			p.pos++
			return tok, true
		}
	}
	return token{}, false
}

func (p *parser) expect(kind tokenKind, what string) error {
	if _, ok := p.match(kind); ok {
		return nil
	}
	if tok, ok := p.peek(); ok {
		return fmt.Errorf("%w: expected %s, got %q at %d", ErrSyntax, what, tok.raw, tok.pos)
	}
	return fmt.Errorf("%w: expected %s, got end of input", ErrSyntax, what)
}

func (p *parser) addRef(path string) {
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[path]; ok {
		return
	}
	p.seen[path] = struct{}{}
	p.refs = append(p.refs, path)
}

func (p *parser) parseExpression() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(tokenAnd); !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.match(tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte)
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return compareNode{op: op.kind, left: left, right: right}, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokenPlus, tokenMinus)
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = arithNode{op: op.kind, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokenStar, tokenSlash)
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = arithNode{op: op.kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.match(tokenNot, tokenMinus); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op.kind, inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	p.pos++

	switch tok.kind {
	case tokenLParen:
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokenNumber, tokenString, tokenBool, tokenNull:
		return newLiteral(tok), nil
	case tokenIdentifier:
		if _, call := p.match(tokenLParen); call {
			return p.parseCall(tok)
		}
		if _, err := fieldpath.FromPath(tok.raw); err != nil {
			return nil, fmt.Errorf("%w: %q at %d is not a field path; write ids with other characters as {section.field}", ErrSyntax, tok.raw, tok.pos)
		}
		p.addRef(tok.raw)
		return refNode{path: tok.raw}, nil
	case tokenPath:
		if _, err := fieldpath.FromPath(tok.raw); err != nil {
			return nil, fmt.Errorf("%w: {%s} at %d is not a field path", ErrSyntax, tok.raw, tok.pos)
		}
		p.addRef(tok.raw)
		return refNode{path: tok.raw}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, tok.raw, tok.pos)
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fn, ok := lookupFunction(name.raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q at %d", ErrUnknownFunction, name.raw, name.pos)
	}

	var args []node
	if _, closed := p.match(tokenRParen); !closed {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if _, more := p.match(tokenComma); more {
				continue
			}
			if err := p.expect(tokenRParen, "')' or ','"); err != nil {
				return nil, err
			}
			break
		}
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("%w: %s expects %s, got %d", ErrSyntax, fn.name, fn.arity(), len(args))
	}
	return callNode{fn: fn, args: args}, nil
}
