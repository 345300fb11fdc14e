// Package dependency builds the directed graph formed by show-if rules and
// formula references between the fields of a template. The graph drives both
// cycle detection at validation time and the evaluation order used by the
// interpreter.
package dependency

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/formula"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// EdgeKind names the rule that introduced an edge.
type EdgeKind string

const (
	EdgeShowIf  EdgeKind = "show_if"
	EdgeFormula EdgeKind = "formula"
)

// Edge records that From reads the value at To.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// MissingRef is a reference to a path that does not resolve to a field.
type MissingRef struct {
	From string
	Ref  string
	Kind EdgeKind
}

// FormulaError is a formula that failed to parse. Its references are unknown
// so it contributes no edges.
type FormulaError struct {
	Path string
	Err  error
}

// CycleError reports a group of fields that read each other. Cycle is one
// loop through the group with the first path repeated at the end. Members
// lists every field of the group in array order.
type CycleError struct {
	Cycle   []string
	Members []string
}

func (e *CycleError) Error() string {
	return "dependency: cycle detected: " + e.Describe()
}

// Describe renders the loop followed by any members it does not pass
// through.
func (e *CycleError) Describe() string {
	msg := strings.Join(e.Cycle, " -> ")
	var extra []string
	for _, m := range e.Members {
		if !slices.Contains(e.Cycle, m) {
			extra = append(extra, m)
		}
	}
	if len(extra) > 0 {
		msg += fmt.Sprintf(" (also involves %s)", strings.Join(extra, ", "))
	}
	return msg
}

// Graph is the dependency graph of a template. Nodes are field paths in
// section/field array order.
type Graph struct {
	Nodes    []string
	Edges    []Edge
	Missing  []MissingRef
	Formulas []FormulaError

	index map[string]int
	deps  map[string][]string
}

// Build derives the graph from t. It never fails: unresolved references and
// unparsable formulas are recorded on the graph instead.
func Build(t *schema.Template) *Graph {
	g := &Graph{
		index: make(map[string]int),
		deps:  make(map[string][]string),
	}
	if t == nil {
		return g
	}

	fields := t.Fields()
	for _, ref := range fields {
		if _, dup := g.index[ref.Path]; dup {
			continue
		}
		g.index[ref.Path] = len(g.Nodes)
		g.Nodes = append(g.Nodes, ref.Path)
	}

	for _, ref := range fields {
		field := ref.Field
		if field.ShowIf != nil {
			g.link(ref.Path, field.ShowIf.Field, EdgeShowIf)
		}
		if strings.TrimSpace(field.Formula) == "" {
			continue
		}
		refs, err := formula.References(field.Formula)
		if err != nil {
			g.Formulas = append(g.Formulas, FormulaError{Path: ref.Path, Err: err})
			continue
		}
		for _, target := range refs {
			g.link(ref.Path, target, EdgeFormula)
		}
	}
	return g
}

func (g *Graph) link(from, to string, kind EdgeKind) {
	if _, ok := g.index[to]; !ok {
		g.Missing = append(g.Missing, MissingRef{From: from, Ref: to, Kind: kind})
		return
	}
	for _, existing := range g.deps[from] {
		if existing == to {
			g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind})
			return
		}
	}
	g.deps[from] = append(g.deps[from], to)
	g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind})
}

// Has reports whether path is a node of the graph.
func (g *Graph) Has(path string) bool {
	_, ok := g.index[path]
	return ok
}

// Dependencies returns the resolved paths that path reads, in the order the
// rules referenced them.
func (g *Graph) Dependencies(path string) []string {
	return append([]string(nil), g.deps[path]...)
}

// Dependents returns the paths that read path, in node order.
func (g *Graph) Dependents(path string) []string {
	var out []string
	for _, node := range g.Nodes {
		for _, dep := range g.deps[node] {
			if dep == path {
				out = append(out, node)
				break
			}
		}
	}
	return out
}

// MissingFor returns the unresolved references made by path.
func (g *Graph) MissingFor(path string) []MissingRef {
	var out []MissingRef
	for _, m := range g.Missing {
		if m.From == path {
			out = append(out, m)
		}
	}
	return out
}

const (
	white = iota
	grey
	black
)

// Cycles returns one CycleError per strongly connected component that holds a
// loop: every component of two or more fields, and every field that reads
// itself. Components are reported in the array order of their first member.
func (g *Graph) Cycles() []*CycleError {
	component := g.components()

	members := make(map[int][]string)
	var ids []int
	for _, node := range g.Nodes {
		id := component[node]
		if _, ok := members[id]; !ok {
			ids = append(ids, id)
		}
		members[id] = append(members[id], node)
	}

	var cycles []*CycleError
	for _, id := range ids {
		group := members[id]
		if len(group) == 1 && !g.reads(group[0], group[0]) {
			continue
		}
		cycles = append(cycles, &CycleError{
			Cycle:   g.loopThrough(group[0], component),
			Members: group,
		})
	}
	return cycles
}

// components labels every node with the id of its strongly connected
// component using Tarjan's algorithm.
func (g *Graph) components() map[string]int {
	index := make(map[string]int, len(g.Nodes))
	low := make(map[string]int, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))
	component := make(map[string]int, len(g.Nodes))
	var stack []string
	next, label := 0, 0

	var connect func(node string)
	connect = func(node string) {
		index[node] = next
		low[node] = next
		next++
		stack = append(stack, node)
		onStack[node] = true

		for _, dep := range g.deps[node] {
			if _, seen := index[dep]; !seen {
				connect(dep)
				low[node] = min(low[node], low[dep])
			} else if onStack[dep] {
				low[node] = min(low[node], index[dep])
			}
		}

		if low[node] != index[node] {
			return
		}
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component[top] = label
			if top == node {
				break
			}
		}
		label++
	}

	for _, node := range g.Nodes {
		if _, seen := index[node]; !seen {
			connect(node)
		}
	}
	return component
}

func (g *Graph) reads(from, to string) bool {
	return slices.Contains(g.deps[from], to)
}

// loopThrough returns the shortest walk from start back to itself that stays
// inside start's component, with start repeated at the end.
func (g *Graph) loopThrough(start string, component map[string]int) []string {
	if g.reads(start, start) {
		return []string{start, start}
	}
	id := component[start]
	parent := map[string]string{}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[node] {
			if component[dep] != id {
				continue
			}
			if dep == start {
				var path []string
				for at := node; at != start; at = parent[at] {
					path = append(path, at)
				}
				path = append(path, start)
				slices.Reverse(path)
				return append(path, start)
			}
			if _, seen := parent[dep]; seen {
				continue
			}
			parent[dep] = node
			queue = append(queue, dep)
		}
	}
	return []string{start, start}
}

// InCycle reports the set of paths that participate in any cycle.
func (g *Graph) InCycle() map[string]bool {
	out := make(map[string]bool)
	for _, c := range g.Cycles() {
		for _, p := range c.Members {
			out[p] = true
		}
	}
	return out
}

// Order returns the nodes in a topological order where every field comes
// after the fields it reads. Among independent fields array order is kept.
// When the graph has a cycle Order still returns every node, breaking each
// loop at its back edge, together with the first CycleError.
func (g *Graph) Order() ([]string, error) {
	color := make(map[string]int, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))
	looped := false

	var visit func(node string)
	visit = func(node string) {
		color[node] = grey
		for _, dep := range g.deps[node] {
			switch color[dep] {
			case white:
				visit(dep)
			case grey:
				looped = true
			}
		}
		color[node] = black
		order = append(order, node)
	}

	for _, node := range g.Nodes {
		if color[node] == white {
			visit(node)
		}
	}
	if looped {
		if cycles := g.Cycles(); len(cycles) > 0 {
			return order, cycles[0]
		}
	}
	return order, nil
}
