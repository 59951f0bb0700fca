// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
)

// Variable is a declared weight of a model: its scope, name and shape.
//
// Use Variable.ValueGraph to get the node holding its value within a graph.
type Variable struct {
	ctx         *Context
	name, scope string

	// Trainable indicates whether the variable is trainable. Batch normalization
	// statistics (mean and variance) are not.
	Trainable bool

	shape shapes.Shape
}

// Name of the variable within the scope.
func (v *Variable) Name() string {
	if v == nil {
		return "<nil>"
	}
	return v.name
}

// Scope where the variable was created.
func (v *Variable) Scope() string {
	if v == nil {
		return "<nil>"
	}
	return v.scope
}

// ScopeAndName returns the joined scope and name.
func (v *Variable) ScopeAndName() string {
	return JoinScope(v.Scope(), v.Name())
}

// String implements stringer.
func (v *Variable) String() string {
	if v == nil || !v.shape.Ok() {
		return "INVALID (NIL) VARIABLE"
	}
	return fmt.Sprintf("%s: %s", v.ScopeAndName(), v.shape)
}

// Shape returns the variable shape. It implements shapes.HasShape.
func (v *Variable) Shape() shapes.Shape {
	if v == nil {
		return shapes.Shape{}
	}
	return v.shape
}

// ValueGraph returns the Node of the Graph that holds the current value of the variable.
// It's created the first time it is requested for a graph, and the same node is returned
// afterward.
func (v *Variable) ValueGraph(g *graph.Graph) *graph.Node {
	if v == nil {
		Panicf("ValueGraph() called on a nil Variable")
	}
	return graph.VariableValue(g, v.ScopeAndName(), v.shape)
}

// GetVariableByScopeAndName returns the variable with the given name for inspection. It returns nil if a variable
// with the given name hasn't been created.
//
// It is not affected by [Context.Reuse] checks.
func (ctx *Context) GetVariableByScopeAndName(scope, name string) *Variable {
	scopeVars, ok := ctx.data.variablesMap[scope]
	if !ok {
		return nil
	}
	return scopeVars[name]
}

// GetVariable returns the variable in the current context scope.
//
// It is not affected by [Context.Reuse] checks.
func (ctx *Context) GetVariable(name string) *Variable {
	return ctx.GetVariableByScopeAndName(ctx.scope, name)
}

// setVariableInScope registers the variable in the current scope.
func (ctx *Context) setVariableInScope(name string, v *Variable) {
	vSet, found := ctx.data.variablesMap[ctx.scope]
	if !found {
		vSet = make(scopedVariableMap)
		ctx.data.variablesMap[ctx.scope] = vSet
	}
	vSet[name] = v
	ctx.data.variables = append(ctx.data.variables, v)
}

// VariableWithShape creates or returns an existing variable with the given shape in the current scope.
// By default, variables are marked as trainable.
//
// Notice that variables information is stored in the "data" component of Context objects, and is shared
// among all connected context references.
//
// If Context is set with Context.Checked(true), this may panic if:
//
// - Context.Unique() and variable already exists;
// - Context.Reuse() and variable didn't exist.
//
// It always panics if the variable exists with a different shape.
func (ctx *Context) VariableWithShape(name string, shape shapes.Shape) *Variable {
	if name == "" {
		Panicf("cannot create variable with empty name in scope %q", ctx.scope)
	}
	v := ctx.GetVariable(name)
	if v == nil && ctx.checked && ctx.reuse {
		Panicf("requested variable %q in scope %q with Context.Reuse set, but variable does not exist", name, ctx.scope)
	}
	if v != nil && ctx.checked && !ctx.reuse {
		Panicf("variable %q for scope %q already exists -- if this was deliberate, use Context.Reuse() or Context.Checked(false)",
			name, ctx.scope)
	}
	if v != nil {
		if !shape.Equal(v.shape) {
			Panicf("requested to reuse variable %q in scope %q, but with different shape from original: previous shape=%s, requested shape=%s",
				name, ctx.scope, v.shape, shape)
		}
		return v
	}
	if !shape.Ok() {
		Panicf("invalid shape %s for variable %q in scope %q", shape, name, ctx.scope)
	}

	// New variable: create and register it in Context and return.
	v = &Variable{
		ctx:       ctx,
		name:      name,
		scope:     ctx.scope,
		shape:     shape.Clone(),
		Trainable: true,
	}
	ctx.setVariableInScope(name, v)
	return v
}

// EnumerateVariables will call fn for each variable in the context, in creation order.
//
// Notice that variables' information is stored in the "data" component of Context objects, and is shared
// among all connected context references.
func (ctx *Context) EnumerateVariables(fn func(v *Variable)) {
	for _, v := range ctx.data.variables {
		fn(v)
	}
}

// EnumerateVariablesInScope is similar to EnumerateVariables, but enumerate only those under the current
// context scope.
func (ctx *Context) EnumerateVariablesInScope(fn func(v *Variable)) {
	for _, v := range ctx.data.variables {
		if isInScope(v.scope, ctx.scope) {
			fn(v)
		}
	}
}

// NumVariables return the number of variables in this Context.
func (ctx *Context) NumVariables() int {
	return len(ctx.data.variables)
}

// NumParameters returns the summed-up number of elements of all variables under the given scope
// prefix, or of all variables if scopePrefix is RootScope or empty.
// It ignores the `DType`, so a `float64` will count as much as a `uint8`.
func (ctx *Context) NumParameters(scopePrefix string) int {
	if scopePrefix == "" {
		scopePrefix = RootScope
	}
	total := 0
	for _, v := range ctx.data.variables {
		if isInScope(v.scope, scopePrefix) {
			total += v.shape.Size()
		}
	}
	return total
}

// Memory returns the total number of bytes summed across all variables.
// It does not include associated pointers and structures, just the bytes used by the raw data.
func (ctx *Context) Memory() uintptr {
	total := uintptr(0)
	ctx.EnumerateVariables(func(v *Variable) {
		total += v.shape.Memory()
	})
	return total
}
