package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/value"
)

type node interface {
	eval(lookup Lookup) (any, error)
}

type literalNode struct {
	value any
}

func newLiteral(tok token) literalNode {
	switch tok.kind {
	case tokenNumber:
		n, _ := strconv.ParseFloat(tok.raw, 64)
		return literalNode{value: n}
	case tokenBool:
		return literalNode{value: tok.raw == "true"}
	case tokenNull:
		return literalNode{value: nil}
	default:
		return literalNode{value: tok.raw}
	}
}

func (n literalNode) eval(Lookup) (any, error) {
	return n.value, nil
}

type refNode struct {
	path string
}

func (n refNode) eval(lookup Lookup) (any, error) {
	v, ok := lookup(n.path)
	if !ok {
		return nil, nil
	}
	return normalize(v), nil
}

// normalize folds the numeric kinds captured data may carry into float64 so
// operators only deal with one number representation.
func normalize(v any) any {
	switch typed := v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32:
		n, _ := value.Number(typed)
		return n
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

type orNode struct {
	left, right node
}

func (n orNode) eval(lookup Lookup) (any, error) {
	left, err := n.left.eval(lookup)
	if err != nil {
		return nil, err
	}
	if value.Truthy(left) {
		return true, nil
	}
	right, err := n.right.eval(lookup)
	if err != nil {
		return nil, err
	}
	return value.Truthy(right), nil
}

type andNode struct {
	left, right node
}

func (n andNode) eval(lookup Lookup) (any, error) {
	left, err := n.left.eval(lookup)
	if err != nil {
		return nil, err
	}
	if !value.Truthy(left) {
		return false, nil
	}
	right, err := n.right.eval(lookup)
	if err != nil {
		return nil, err
	}
	return value.Truthy(right), nil
}

type unaryNode struct {
	op    tokenKind
	inner node
}

func (n unaryNode) eval(lookup Lookup) (any, error) {
	inner, err := n.inner.eval(lookup)
	if err != nil {
		return nil, err
	}
	if n.op == tokenNot {
		return !value.Truthy(inner), nil
	}
	num, ok := operand(inner)
	if !ok {
		return nil, fmt.Errorf("%w: cannot negate %v", ErrType, inner)
	}
	return -num, nil
}

type compareNode struct {
	op          tokenKind
	left, right node
}

func (n compareNode) eval(lookup Lookup) (any, error) {
	left, err := n.left.eval(lookup)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(lookup)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokenEq:
		return value.Equal(left, right), nil
	case tokenNeq:
		return !value.Equal(left, right), nil
	}

	var cmp int
	ln, lok := value.Number(left)
	rn, rok := value.Number(right)
	if lok && rok {
		switch {
		case ln < rn:
			cmp = -1
		case ln > rn:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(value.String(left), value.String(right))
	}

	switch n.op {
	case tokenLt:
		return cmp < 0, nil
	case tokenLte:
		return cmp <= 0, nil
	case tokenGt:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

type arithNode struct {
	op          tokenKind
	left, right node
}

func (n arithNode) eval(lookup Lookup) (any, error) {
	left, err := n.left.eval(lookup)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(lookup)
	if err != nil {
		return nil, err
	}

	ln, lok := operand(left)
	rn, rok := operand(right)
	if n.op == tokenPlus && (!lok || !rok) {
		return value.String(left) + value.String(right), nil
	}
	if !lok || !rok {
		return nil, fmt.Errorf("%w: %v %s %v", ErrType, left, opSymbol(n.op), right)
	}

	switch n.op {
	case tokenPlus:
		return ln + rn, nil
	case tokenMinus:
		return ln - rn, nil
	case tokenStar:
		return ln * rn, nil
	default:
		if rn == 0 {
			return nil, ErrDivideByZero
		}
		return ln / rn, nil
	}
}

// operand coerces a value for arithmetic. Blank values count as zero so a
// computed total stays defined while inputs are still being filled in.
func operand(v any) (float64, bool) {
	if value.Blank(v) {
		return 0, true
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return value.Number(v)
}

func opSymbol(kind tokenKind) string {
	switch kind {
	case tokenPlus:
		return "+"
	case tokenMinus:
		return "-"
	case tokenStar:
		return "*"
	case tokenSlash:
		return "/"
	default:
		return "?"
	}
}

type callNode struct {
	fn   function
	args []node
}

func (n callNode) eval(lookup Lookup) (any, error) {
	if n.fn.lazy != nil {
		return n.fn.lazy(n.args, lookup)
	}
	args := make([]any, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(lookup)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return n.fn.call(args)
}
