package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/value"
)

type function struct {
	name    string
	minArgs int
	maxArgs int // -1 for variadic
	call    func(args []any) (any, error)
	lazy    func(args []node, lookup Lookup) (any, error)
}

func (f function) arity() string {
	switch {
	case f.maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", f.minArgs)
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("%d argument(s)", f.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", f.minArgs, f.maxArgs)
	}
}

var functions = map[string]function{
	"sum":    {name: "sum", minArgs: 1, maxArgs: -1, call: fnSum},
	"min":    {name: "min", minArgs: 1, maxArgs: -1, call: fnMin},
	"max":    {name: "max", minArgs: 1, maxArgs: -1, call: fnMax},
	"abs":    {name: "abs", minArgs: 1, maxArgs: 1, call: fnAbs},
	"round":  {name: "round", minArgs: 1, maxArgs: 2, call: fnRound},
	"concat": {name: "concat", minArgs: 1, maxArgs: -1, call: fnConcat},
	"count":  {name: "count", minArgs: 1, maxArgs: -1, call: fnCount},
	"if":     {name: "if", minArgs: 3, maxArgs: 3, lazy: fnIf},
}

// Functions returns the names accepted in call position.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFunction(name string) (function, bool) {
	fn, ok := functions[strings.ToLower(name)]
	return fn, ok
}

// flatten expands list arguments so sum(a.photos) and sum(a.x, a.y) behave
// the same way.
func flatten(args []any) []any {
	var out []any
	for _, arg := range args {
		if list, ok := arg.([]any); ok {
			out = append(out, flatten(list)...)
			continue
		}
		out = append(out, arg)
	}
	return out
}

func numbers(name string, args []any) ([]float64, error) {
	var out []float64
	for _, arg := range flatten(args) {
		if value.Blank(arg) {
			continue
		}
		n, ok := value.Number(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects numbers, got %v", ErrType, name, arg)
		}
		out = append(out, n)
	}
	return out, nil
}

func fnSum(args []any) (any, error) {
	nums, err := numbers("sum", args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total, nil
}

func fnMin(args []any) (any, error) {
	nums, err := numbers("min", args)
	if err != nil || len(nums) == 0 {
		return nil, err
	}
	out := nums[0]
	for _, n := range nums[1:] {
		out = math.Min(out, n)
	}
	return out, nil
}

func fnMax(args []any) (any, error) {
	nums, err := numbers("max", args)
	if err != nil || len(nums) == 0 {
		return nil, err
	}
	out := nums[0]
	for _, n := range nums[1:] {
		out = math.Max(out, n)
	}
	return out, nil
}

func fnAbs(args []any) (any, error) {
	if value.Blank(args[0]) {
		return nil, nil
	}
	n, ok := value.Number(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: abs expects a number, got %v", ErrType, args[0])
	}
	return math.Abs(n), nil
}

func fnRound(args []any) (any, error) {
	if value.Blank(args[0]) {
		return nil, nil
	}
	n, ok := value.Number(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: round expects a number, got %v", ErrType, args[0])
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := value.Number(args[1])
		if !ok || d < 0 || d != math.Trunc(d) {
			return nil, fmt.Errorf("%w: round precision must be a non-negative integer, got %v", ErrType, args[1])
		}
		digits = d
	}
	scale := math.Pow(10, digits)
	return math.Round(n*scale) / scale, nil
}

func fnConcat(args []any) (any, error) {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(value.String(arg))
	}
	return b.String(), nil
}

func fnCount(args []any) (any, error) {
	total := 0
	for _, arg := range flatten(args) {
		if !value.Blank(arg) {
			total++
		}
	}
	return float64(total), nil
}

func fnIf(args []node, lookup Lookup) (any, error) {
	cond, err := args[0].eval(lookup)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return args[1].eval(lookup)
	}
	return args[2].eval(lookup)
}
