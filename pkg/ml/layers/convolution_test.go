// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"path"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	S   = shapes.Make
	F32 = dtypes.Float32
)

func TestConvolution(t *testing.T) {
	ctx := context.New()
	g := NewGraph(t.Name())

	t.Run("2D-PadSame", func(t *testing.T) {
		x := Parameter(g, "x_2d", S(F32, 5, 4, 4, 3))
		ctx := ctx.In(path.Base(t.Name()))
		conv := Convolution(ctx, x).
			Channels(32).
			KernelSize(3).
			PadSame().
			Strides(1).Done()
		require.NoError(t, conv.Shape().Check(F32, 5, 4, 4, 32))
		assert.Equal(t, NodeTypeAdd, conv.Type())
		weights := ctx.In(ConvScopeName).GetVariable("weights")
		require.NotNil(t, weights)
		require.NoError(t, weights.Shape().CheckDims(3, 3, 3, 32))
		require.NotNil(t, ctx.In(ConvScopeName).GetVariable("biases"))
	})

	t.Run("3D-Strides", func(t *testing.T) {
		x := Parameter(g, "x_3d", S(F32, 5, 3, 8, 8, 8))
		ctx := ctx.In(path.Base(t.Name()))
		conv := Convolution(ctx, x).
			ChannelsAxis(images.ChannelsFirst).
			Channels(32).
			KernelSizePerAxis(3, 2, 2).
			NoPadding().
			StridePerAxis(2, 3, 4).Done()
		require.NoError(t, conv.Shape().Check(F32, 5, 32, 3, 3, 2))
		weights := ctx.In(ConvScopeName).GetVariable("weights")
		require.NoError(t, weights.Shape().CheckDims(3, 3, 2, 2, 32))
	})

	t.Run("Factorized-NoBias", func(t *testing.T) {
		x := Parameter(g, "x_factorized", S(F32, 1, 17, 17, 1024))
		ctx := ctx.In(path.Base(t.Name()))
		conv := Convolution(ctx, x).Channels(224).KernelSizePerAxis(1, 7).PadSame().UseBias(false).CurrentScope().Done()
		require.NoError(t, conv.Shape().CheckDims(1, 17, 17, 224))
		assert.Equal(t, NodeTypeConvolve, conv.Type())
		require.NotNil(t, ctx.GetVariable("weights"))
		assert.Nil(t, ctx.GetVariable("biases"))
		assert.Equal(t, 7*1024*224, ctx.NumParameters(ctx.Scope()))
		assert.Equal(t, int64(17*17*224*7*1024), conv.MultiplyAdds())
	})

	t.Run("Stride2-Valid", func(t *testing.T) {
		x := Parameter(g, "x_stride2", S(F32, 1, 35, 35, 384))
		ctx := ctx.In(path.Base(t.Name()))
		conv := Convolution(ctx, x).Channels(384).KernelSize(3).Strides(2).Done()
		require.NoError(t, conv.Shape().CheckDims(1, 17, 17, 384))
	})

	t.Run("Grouped", func(t *testing.T) {
		x := Parameter(g, "x_grouped", S(F32, 1, 8, 8, 64))
		ctx := ctx.In(path.Base(t.Name()))
		conv := Convolution(ctx, x).Channels(32).KernelSize(1).ChannelGroupCount(4).Done()
		require.NoError(t, conv.Shape().CheckDims(1, 8, 8, 32))
		require.NoError(t, ctx.In(ConvScopeName).GetVariable("weights").Shape().CheckDims(1, 1, 16, 32))
	})

	t.Run("Errors", func(t *testing.T) {
		x := Parameter(g, "x_errors", S(F32, 1, 2, 2, 8))
		ctx := ctx.In(path.Base(t.Name()))
		// Missing Channels.
		require.Error(t, TryBuild(func() { Convolution(ctx.In("a"), x).KernelSize(3).Done() }))
		// Kernel larger than the input without padding.
		require.Error(t, TryBuild(func() { Convolution(ctx.In("b"), x).Channels(4).KernelSize(3).Done() }))
		// Same variable declared twice in the same scope.
		require.NotPanics(t, func() { Convolution(ctx.In("c"), x).Channels(4).KernelSize(1).Done() })
		require.Error(t, TryBuild(func() { Convolution(ctx.In("c"), x).Channels(4).KernelSize(1).Done() }))
		// Groups must divide the channels.
		require.Error(t, TryBuild(func() { Convolution(ctx.In("d"), x).Channels(4).KernelSize(1).ChannelGroupCount(3).Done() }))
	})
}

func TestMaybeNormalize(t *testing.T) {
	g := NewGraph(t.Name())
	x := Parameter(g, "x", S(F32, 2, 8, 8, 16))

	ctx := context.New()
	assert.Same(t, x, MaybeNormalize(ctx, x, -1))
	assert.Equal(t, 0, ctx.NumVariables())

	ctx.SetParam(ParamNormalization, "batch")
	normalized := MaybeNormalize(ctx.In("block"), x, -1)
	assert.Equal(t, NodeTypeBatchNormInference, normalized.Type())
	assert.Equal(t, 4, ctx.NumVariables())

	ctx.SetParam(ParamNormalization, "layer")
	require.Error(t, TryBuild(func() { MaybeNormalize(ctx.In("other"), x, -1) }))
}
