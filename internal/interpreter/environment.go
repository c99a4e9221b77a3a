package interpreter

import "github.com/atlas-lang/atlas/internal/value"

// environment is a lexical scope: a flat map of name to the *value.Cell
// backing it, plus a parent link for enclosing scopes. Every binding is
// boxed in a Cell (not a bare Value) so a closure created inside this
// scope captures the same cell a later assignment writes through —
// the tree-walker's equivalent of the VM's LoadUpvalue/StoreUpvalue
// sharing a *value.Cell (DESIGN.md: both engines capture by reference).
//
// Grounded in the teacher's interp.Environment (parent-chained
// map[string]Value scopes); generalized to box every slot in a Cell
// since DWScript's interpreter has no closures to keep consistent with
// a second engine.
type environment struct {
	vars   map[string]*value.Cell
	parent *environment
}

func newEnvironment(parent *environment) *environment {
	return &environment{vars: make(map[string]*value.Cell), parent: parent}
}

// define introduces a new binding in this scope, shadowing any binding
// of the same name in an enclosing scope.
func (e *environment) define(name string, v value.Value) *value.Cell {
	cell := value.NewCell(v)
	e.vars[name] = cell
	return cell
}

// lookup finds the cell bound to name, searching outward through
// enclosing scopes.
func (e *environment) lookup(name string) (*value.Cell, bool) {
	for s := e; s != nil; s = s.parent {
		if c, ok := s.vars[name]; ok {
			return c, true
		}
	}
	return nil, false
}
