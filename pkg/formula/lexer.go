package formula

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenPath
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
	pos  int
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}
	emit := func(kind tokenKind, raw string, width int) {
		tokens = append(tokens, token{kind: kind, raw: raw, pos: i})
		i += width
	}

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			emit(tokenLParen, "(", 1)
		case ch == ')':
			emit(tokenRParen, ")", 1)
		case ch == ',':
			emit(tokenComma, ",", 1)
		case ch == '+':
			emit(tokenPlus, "+", 1)
		case ch == '-':
			emit(tokenMinus, "-", 1)
		case ch == '*':
			emit(tokenStar, "*", 1)
		case ch == '/':
			emit(tokenSlash, "/", 1)
		case ch == '!':
			if peek(1) == '=' {
				emit(tokenNeq, "!=", 2)
			} else {
				emit(tokenNot, "!", 1)
			}
		case ch == '=':
			if peek(1) != '=' {
				return nil, fmt.Errorf("%w: unexpected '=' at %d; use '=='", ErrSyntax, i)
			}
			emit(tokenEq, "==", 2)
		case ch == '<':
			if peek(1) == '=' {
				emit(tokenLte, "<=", 2)
			} else {
				emit(tokenLt, "<", 1)
			}
		case ch == '>':
			if peek(1) == '=' {
				emit(tokenGte, ">=", 2)
			} else {
				emit(tokenGt, ">", 1)
			}
		case ch == '&':
			if peek(1) != '&' {
				return nil, fmt.Errorf("%w: unexpected '&' at %d; use '&&'", ErrSyntax, i)
			}
			emit(tokenAnd, "&&", 2)
		case ch == '|':
			if peek(1) != '|' {
				return nil, fmt.Errorf("%w: unexpected '|' at %d; use '||'", ErrSyntax, i)
			}
			emit(tokenOr, "||", 2)
		case ch == '{':
			end := strings.IndexByte(input[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated path at %d", ErrSyntax, i)
			}
			tokens = append(tokens, token{kind: tokenPath, raw: strings.TrimSpace(input[i+1 : i+end]), pos: i})
			i += end + 1
		case ch == '"' || ch == '\'':
			tok, width, err := scanString(input[i:])
			if err != nil {
				return nil, fmt.Errorf("%w: %v at %d", ErrSyntax, err, i)
			}
			tok.pos = i
			tokens = append(tokens, tok)
			i += width
		case isDigit(ch) || (ch == '.' && isDigit(peek(1))):
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			raw := input[start:i]
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("%w: invalid number %q at %d", ErrSyntax, raw, start)
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: raw, pos: start})
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw), pos: start})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null", pos: start})
			default:
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw, pos: start})
			}
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrSyntax, ch, i)
		}
	}

	return tokens, nil
}

func scanString(input string) (token, int, error) {
	quote := input[0]
	escaped := false
	for i := 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[1:i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return token{}, 0, fmt.Errorf("invalid string literal: %w", err)
		}
		return token{kind: tokenString, raw: value}, i + 1, nil
	}
	return token{}, 0, fmt.Errorf("unterminated string literal")
}
