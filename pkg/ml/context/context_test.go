// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package context

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopes(t *testing.T) {
	ctx := New()
	assert.Equal(t, RootScope, ctx.Scope())
	ctxA := ctx.In("a")
	assert.Equal(t, "/a", ctxA.Scope())
	ctxAB := ctxA.In("b")
	assert.Equal(t, "/a/b", ctxAB.Scope())
	assert.Equal(t, "/a/b_3", ctxA.Inf("b_%d", 3).Scope())
	assert.Equal(t, "/x/y", ctxAB.InAbsPath("/x/y").Scope())
	assert.Equal(t, RootScope, ctx.Scope(), "original context scope should not change")

	assert.Panics(t, func() { ctx.In("") })
	assert.Panics(t, func() { ctx.In("a/b") })
	assert.Panics(t, func() { ctx.InAbsPath("a") })

	assert.Equal(t, "/a/b", JoinScope("/a", "b"))
	assert.Equal(t, "/b", JoinScope("/", "b"))
	assert.Equal(t, "b", JoinScope("", "b"))
	scope, name := SplitScope("/a/b")
	assert.Equal(t, "/a", scope)
	assert.Equal(t, "b", name)
	scope, name = SplitScope("/b")
	assert.Equal(t, RootScope, scope)
	assert.Equal(t, "b", name)
	scope, name = SplitScope("b")
	assert.Equal(t, "", scope)
	assert.Equal(t, "b", name)
	assert.Equal(t, "a_b", EscapeScopeName("a/b"))
}

func TestParams(t *testing.T) {
	ctx := New()
	ctx.SetParams(map[string]any{"x": 10, "y": 20, "z": 40.0})
	ctxA := ctx.In("a")
	ctxA.SetParam("y", 30)
	ctxAB := ctxA.In("b")
	ctxAB.SetParam("x", 100)

	value, found := ctxAB.GetParam("x")
	assert.True(t, found)
	assert.Equal(t, 100, value)
	assert.Equal(t, 30, GetParamOr(ctxAB, "y", 0))
	assert.Equal(t, 20, GetParamOr(ctx.In("c"), "y", 0))
	assert.Equal(t, 40.0, GetParamOr(ctxAB, "z", 0.0))
	assert.Equal(t, -1, GetParamOr(ctxAB, "w", -1))

	// Numeric conversion.
	assert.Equal(t, 40, GetParamOr(ctxAB, "z", 0))
	assert.Equal(t, float32(10), GetParamOr(ctx, "x", float32(0)))

	// Nil values are treated as not set.
	ctx.SetParam("n", nil)
	assert.Equal(t, "default", GetParamOr(ctx, "n", "default"))

	// Non-convertible values.
	ctx.SetParam("s", "relu")
	assert.Panics(t, func() { GetParamOr(ctx, "s", 0) })
	assert.Panics(t, func() { GetParamOr(ctx, "x", "") })
	assert.Panics(t, func() { MustGetParam[int](ctx, "missing") })

	var enumerated []string
	ctx.EnumerateParams(func(scope, key string, value any) {
		enumerated = append(enumerated, JoinScope(scope, key))
	})
	assert.Equal(t, []string{"/n", "/s", "/x", "/y", "/z", "/a/y", "/a/b/x"}, enumerated)
}

func TestVariables(t *testing.T) {
	ctx := New()
	shape := shapes.Make(dtypes.Float32, 3, 3, 384, 32)
	v := ctx.In("conv").VariableWithShape("weights", shape)
	assert.Equal(t, "/conv", v.Scope())
	assert.Equal(t, "weights", v.Name())
	assert.Equal(t, "/conv/weights", v.ScopeAndName())
	assert.True(t, v.Trainable)
	assert.Same(t, v, ctx.GetVariableByScopeAndName("/conv", "weights"))
	assert.Nil(t, ctx.GetVariable("weights"))

	// Unique mode (the default) doesn't allow re-declaring a variable.
	assert.Panics(t, func() { ctx.In("conv").VariableWithShape("weights", shape) })

	// Reuse requires the same shape, and an existing variable.
	assert.Same(t, v, ctx.In("conv").Reuse().VariableWithShape("weights", shape))
	assert.Panics(t, func() {
		ctx.In("conv").Reuse().VariableWithShape("weights", shapes.Make(dtypes.Float32, 1, 1, 384, 32))
	})
	assert.Panics(t, func() { ctx.In("other").Reuse().VariableWithShape("weights", shape) })
	assert.Same(t, v, ctx.In("conv").Checked(false).VariableWithShape("weights", shape))
	assert.True(t, ctx.Reuse().Unique().IsChecked())
	assert.False(t, ctx.Reuse().Unique().IsReuse())

	ctx.In("conv").VariableWithShape("biases", shapes.Make(dtypes.Float32, 32))
	ctx.In("other").In("deep").VariableWithShape("scale", shapes.Make(dtypes.Float32, 8))
	assert.Equal(t, 3, ctx.NumVariables())
	assert.Equal(t, 3*3*384*32+32+8, ctx.NumParameters(""))
	assert.Equal(t, 3*3*384*32+32, ctx.NumParameters("/conv"))
	assert.Equal(t, 8, ctx.NumParameters("/other"))
	assert.Equal(t, 0, ctx.NumParameters("/co"))
	assert.Equal(t, uintptr(4*(3*3*384*32+32+8)), ctx.Memory())

	var names []string
	ctx.In("conv").EnumerateVariablesInScope(func(v *Variable) { names = append(names, v.Name()) })
	assert.Equal(t, []string{"weights", "biases"}, names)

	// One node per graph.
	g := graph.NewGraph("test")
	node := v.ValueGraph(g)
	assert.Same(t, node, v.ValueGraph(g))
	assert.Equal(t, graph.NodeTypeVariable, node.Type())
	require.NoError(t, node.Shape().CheckDims(3, 3, 384, 32))
	g2 := graph.NewGraph("test2")
	assert.NotSame(t, node, v.ValueGraph(g2))
}
