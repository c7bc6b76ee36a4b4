package decorators

import (
	"errors"
	"sort"
	"strings"

	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/state"
	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	exprvm "github.com/expr-lang/expr/vm"
)

// StateVar is the environment name bound to the state tree.
const StateVar = "state"

// Program is a compiled expression together with the paths it reads.
type Program struct {
	source  string
	program *exprvm.Program
	paths   map[string][][]string // root name -> member paths below it
}

// Compile parses and compiles expression.
func Compile(expression string) (*Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &EvaluationError{Expr: expression, Err: errors.New("expression must not be empty")}
	}
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, &EvaluationError{Expr: expression, Err: err}
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, &EvaluationError{Expr: expression, Err: err}
	}

	collector := &pathCollector{}
	ast.Walk(&tree.Node, collector)

	return &Program{
		source:  expression,
		program: program,
		paths:   collector.paths(),
	}, nil
}

// Source returns the expression text.
func (p *Program) Source() string { return p.source }

// Roots returns the top-level names the expression reads, sorted.
func (p *Program) Roots() []string {
	roots := make([]string, 0, len(p.paths))
	for root := range p.paths {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// Eval runs the program. Names resolve, in order, against locals, the state tree
// (StateVar) and the properties of the scope bound to ctx.
func (p *Program) Eval(ctx *domain.Context, locals map[string]any) (any, error) {
	env := make(map[string]any, len(p.paths))
	for root, paths := range p.paths {
		if v, ok := locals[root]; ok {
			env[root] = project(v, paths)
			continue
		}
		if root == StateVar && ctx != nil {
			env[root] = project(ctx.State(), paths)
			continue
		}
		if ctx == nil || ctx.Scope() == nil {
			continue
		}
		if v, ok := ctx.Scope().Get(root); ok {
			if view, isView := v.(*state.View); isView {
				v = view.Tree()
			}
			env[root] = project(v, paths)
		}
	}

	result, err := exprlang.Run(p.program, env)
	if err != nil {
		name := ""
		if ctx != nil {
			name = ctx.Name()
		}
		return nil, &EvaluationError{Expr: p.source, State: name, Err: err}
	}
	return result, nil
}

// Expression compiles expression into a computed field. Evaluation errors yield nil.
func Expression(expression string, locals map[string]any) (domain.Computed, error) {
	p, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return func(ctx *domain.Context) any {
		v, err := p.Eval(ctx, locals)
		if err != nil {
			return nil
		}
		return v
	}, nil
}

// MustExpression is Expression that panics on a compile error.
func MustExpression(expression string, locals map[string]any) domain.Computed {
	fn, err := Expression(expression, locals)
	if err != nil {
		panic(err)
	}
	return fn
}

// project reads only the referenced paths of v into a detached value.
// A bare reference to the root materializes it whole.
func project(v any, paths [][]string) any {
	t, ok := domain.AsTree(domain.Value(v))
	if !ok {
		return resolver.Materialize(v)
	}
	out := domain.Tree{}
	for _, path := range paths {
		if len(path) == 0 {
			return resolver.MaterializeTree(t)
		}
		if value, ok := domain.LookupPath(t, path); ok {
			domain.SetPath(out, path, resolver.Materialize(value))
		}
	}
	return out
}

type pathCollector struct {
	found [][]string
}

func (c *pathCollector) Visit(node *ast.Node) {
	if chain, ok := memberChain(*node); ok {
		c.found = append(c.found, chain)
	}
}

// paths groups the collected chains by root, dropping chains that are a prefix of a longer one.
func (c *pathCollector) paths() map[string][][]string {
	out := make(map[string][][]string)
	for i, chain := range c.found {
		prefix := false
		for j, other := range c.found {
			if i != j && len(other) > len(chain) && hasPrefix(other, chain) {
				prefix = true
				break
			}
		}
		root := chain[0]
		if _, ok := out[root]; !ok {
			out[root] = nil
		}
		if !prefix {
			out[root] = append(out[root], chain[1:])
		}
	}
	return out
}

func memberChain(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true
	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}
		base, ok := memberChain(n.Node)
		if !ok {
			return nil, false
		}
		return append(base[:len(base):len(base)], prop.Value), true
	}
	return nil, false
}

func hasPrefix(chain, prefix []string) bool {
	for i := range prefix {
		if chain[i] != prefix[i] {
			return false
		}
	}
	return true
}
