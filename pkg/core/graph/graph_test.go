// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const F32 = dtypes.Float32

func TestParameterAndVariable(t *testing.T) {
	g := NewGraph("test")
	x := Parameter(g, "x", shapes.Make(F32, 2, 35, 35, 384))
	assert.Equal(t, NodeTypeParameter, x.Type())
	assert.Equal(t, NodeId(0), x.Id())
	assert.Equal(t, "x", x.GetParameterName())
	assert.Equal(t, 1, g.NumParameters())
	require.Error(t, TryBuild(func() { Parameter(g, "x", shapes.Make(F32, 1)) }))

	v0 := VariableValue(g, "/conv/weights", shapes.Make(F32, 3, 3, 384, 32))
	v1 := VariableValue(g, "/conv/weights", shapes.Make(F32, 3, 3, 384, 32))
	assert.Same(t, v0, v1)
	assert.Equal(t, "/conv/weights", v0.GetVariableName())
	assert.Equal(t, 1, g.NumVariables())
	require.Error(t, TryBuild(func() { VariableValue(g, "/conv/weights", shapes.Make(F32, 1, 1, 384, 32)) }))
	assert.Equal(t, 2, g.NumNodes())
}

func TestConvolve(t *testing.T) {
	g := NewGraph("test")
	x := Parameter(g, "x", shapes.Make(F32, 1, 35, 35, 64))
	kernel := VariableValue(g, "k", shapes.Make(F32, 3, 3, 64, 96))
	output := Convolve(x, kernel).PadSame().Done()
	require.NoError(t, output.Shape().Check(F32, 1, 35, 35, 96))
	assert.Equal(t, int64(35*35*96*3*3*64), output.MultiplyAdds())
	strides, paddings := output.ConvolveParams()
	assert.Nil(t, strides)
	assert.Equal(t, [][2]int{{1, 1}, {1, 1}}, paddings)

	// Valid, stride 2.
	output = Convolve(x, kernel).Strides(2).Done()
	require.NoError(t, output.Shape().CheckDims(1, 17, 17, 96))

	// Same, stride 2: ceil(35/2).
	output = Convolve(x, kernel).Strides(2).PadSame().Done()
	require.NoError(t, output.Shape().CheckDims(1, 18, 18, 96))

	// Asymmetric kernel.
	kernel17 := VariableValue(g, "k17", shapes.Make(F32, 1, 7, 64, 32))
	output = Convolve(x, kernel17).PadSame().Done()
	require.NoError(t, output.Shape().CheckDims(1, 35, 35, 32))
	output = Convolve(x, kernel17).Done()
	require.NoError(t, output.Shape().CheckDims(1, 35, 29, 32))

	// Channels first.
	xFirst := Parameter(g, "x_first", shapes.Make(F32, 1, 64, 35, 35))
	kernelFirst := VariableValue(g, "k_first", shapes.Make(F32, 64, 3, 3, 96))
	output = Convolve(xFirst, kernelFirst).ChannelsAxis(images.ChannelsFirst).PadSame().Done()
	require.NoError(t, output.Shape().CheckDims(1, 96, 35, 35))

	// Mismatched input channels.
	badKernel := VariableValue(g, "bad", shapes.Make(F32, 3, 3, 32, 96))
	err := TryBuild(func() { Convolve(x, badKernel).Done() })
	require.ErrorContains(t, err, "inputChannels")

	// Strides and dilations at the same time.
	err = TryBuild(func() { Convolve(x, kernel).Strides(2).DilationPerAxis(2, 2).Done() })
	require.Error(t, err)

	// Too small input.
	tiny := Parameter(g, "tiny", shapes.Make(F32, 1, 2, 2, 64))
	require.Error(t, TryBuild(func() { Convolve(tiny, kernel).Done() }))
}

func TestPool(t *testing.T) {
	g := NewGraph("test")
	x := Parameter(g, "x", shapes.Make(F32, 1, 35, 35, 384))

	output := MaxPool(x).Window(3).Strides(2).Done()
	require.NoError(t, output.Shape().CheckDims(1, 17, 17, 384))
	reduceType, window, strides := output.ReduceWindowParams()
	assert.Equal(t, ReduceOpMax, reduceType)
	assert.Equal(t, []int{1, 3, 3, 1}, window)
	assert.Equal(t, []int{1, 2, 2, 1}, strides)

	output = MaxPool(x).Window(3).Strides(2).PadSame().Done()
	require.NoError(t, output.Shape().CheckDims(1, 18, 18, 384))

	// Mean pooling with padding is a single node, that doesn't count the padding.
	numNodes := g.NumNodes()
	output = MeanPool(x).Window(3).Strides(1).PadSame().Done()
	require.NoError(t, output.Shape().CheckDims(1, 35, 35, 384))
	assert.Equal(t, numNodes+1, g.NumNodes())
	reduceType, _, _ = output.ReduceWindowParams()
	assert.Equal(t, ReduceOpMean, reduceType)

	// Mean pooling without padding is a sum followed by a division.
	output = MeanPool(x).Window(5).Done()
	require.NoError(t, output.Shape().CheckDims(1, 7, 7, 384))
	assert.Equal(t, NodeTypeDivScalar, output.Type())
	assert.Equal(t, 25.0, output.ScalarValue())

	// Channels first.
	xFirst := Parameter(g, "x_first", shapes.Make(F32, 1, 384, 35, 35))
	output = MaxPool(xFirst).ChannelsAxis(images.ChannelsFirst).Window(3).Strides(2).Done()
	require.NoError(t, output.Shape().CheckDims(1, 384, 17, 17))

	require.Error(t, TryBuild(func() { MaxPool(x).Done() }))
	tiny := Parameter(g, "tiny", shapes.Make(F32, 1, 2, 2, 8))
	require.Error(t, TryBuild(func() { MaxPool(tiny).Window(3).Strides(2).Done() }))
}

func TestConcatenateAndAdd(t *testing.T) {
	g := NewGraph("test")
	a := Parameter(g, "a", shapes.Make(F32, 1, 35, 35, 96))
	b := Parameter(g, "b", shapes.Make(F32, 1, 35, 35, 288))
	c := Parameter(g, "c", shapes.Make(F32, 1, 17, 17, 96))

	concat := Concatenate([]*Node{a, b}, -1)
	require.NoError(t, concat.Shape().CheckDims(1, 35, 35, 384))
	assert.Equal(t, NodeTypeConcatenate, concat.Type())
	assert.Len(t, concat.Inputs(), 2)
	assert.Same(t, a, Concatenate([]*Node{a}, -1))

	err := TryBuild(func() { Concatenate([]*Node{a, c}, -1) })
	require.ErrorContains(t, err, "mismatched dimensions")

	sum := Add(concat, concat)
	require.NoError(t, sum.Shape().CheckDims(1, 35, 35, 384))
	require.Error(t, TryBuild(func() { Add(a, b) }))

	scaled := MulScalar(sum, 0.1)
	assert.Equal(t, 0.1, scaled.ScalarValue())
	require.Error(t, TryBuild(func() { DivScalar(sum, 0) }))

	other := NewGraph("other")
	d := Parameter(other, "d", shapes.Make(F32, 1, 35, 35, 96))
	require.ErrorContains(t, TryBuild(func() { Add(a, d) }), "different graphs")
}

func TestActivationsReshapeAndBatchNorm(t *testing.T) {
	g := NewGraph("test")
	x := Parameter(g, "x", shapes.Make(F32, 2, 8, 8, 16))
	for _, fn := range []func(*Node) *Node{Relu, LeakyRelu, Sigmoid, Tanh, Swish} {
		y := fn(x)
		assert.True(t, y.Shape().Equal(x.Shape()))
	}
	assert.Equal(t, NodeTypeLeakyRelu, LeakyReluWithAlpha(x, 0.2).Type())

	flat := Reshape(x, 2, -1)
	require.NoError(t, flat.Shape().CheckDims(2, 8*8*16))
	require.Error(t, TryBuild(func() { Reshape(x, 3, -1) }))

	params := make([]*Node, 4)
	for ii, name := range []string{"scale", "offset", "mean", "variance"} {
		params[ii] = VariableValue(g, name, shapes.Make(F32, 16))
	}
	normalized := BatchNormInference(x, params[0], params[1], params[2], params[3], 1e-3, -1)
	assert.True(t, normalized.Shape().Equal(x.Shape()))
	assert.Equal(t, int64(2*8*8*16), normalized.MultiplyAdds())
	require.Error(t, TryBuild(func() { BatchNormInference(x, params[0], params[1], params[2], params[3], 1e-3, 1) }))
}

func TestIntrospection(t *testing.T) {
	g := NewGraph("test")
	x := Parameter(g, "x", shapes.Make(F32, 1, 8, 8, 4))
	kernel := VariableValue(g, "k", shapes.Make(F32, 1, 1, 4, 8))
	start := g.NextNodeId()
	y := Relu(Convolve(x, kernel).Done())
	end := g.NextNodeId()

	assert.Equal(t, []NodeType{NodeTypeConvolve, NodeTypeRelu}, g.NodeTypes(start, end))
	assert.Equal(t, int64(8*8*8*4), g.MultiplyAdds(start, end))
	assert.Equal(t, int64(0), g.MultiplyAdds(end, end+10))
	assert.Equal(t, 1, g.CountNodeTypes()[NodeTypeConvolve])
	assert.Len(t, g.VariableNodes(), 1)
	assert.Contains(t, g.String(), "#3 Relu(x=[#2])")
	assert.Contains(t, y.String(), "(Float32)[1 8 8 8]")
	assert.Equal(t, "Node(nil)", (*Node)(nil).String())
	assert.Equal(t, "BatchNormInference", NodeTypeBatchNormInference.String())
}
