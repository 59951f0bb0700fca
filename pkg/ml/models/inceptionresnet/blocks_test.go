// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	"fmt"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// image creates a new graph with one float32 parameter shaped with the given dimensions.
func image(t *testing.T, dimensions ...int) *Node {
	g := NewGraph(t.Name())
	return Parameter(g, "image", shapes.Make(dtypes.Float32, dimensions...))
}

func TestStems(t *testing.T) {
	t.Run("StemV4", func(t *testing.T) {
		ctx := context.New()
		output := StemV4(ctx.In("stem"), image(t, 2, 299, 299, 3))
		require.NoError(t, output.Shape().Check(dtypes.Float32, 2, 35, 35, 384))
		assert.Equal(t, NodeTypeConcatenate, output.Type())
		// 11 convolutions, each with weights and biases.
		assert.Equal(t, 22, ctx.NumVariables())
		require.NotNil(t, ctx.In("stem").In("conv2d").GetVariable("weights"))
		require.NoError(t, ctx.In("stem").In("conv2d").GetVariable("weights").Shape().CheckDims(3, 3, 3, 32))
		require.NotNil(t, ctx.In("stem").In("conv2d_10").GetVariable("weights"))
	})

	t.Run("StemResNet", func(t *testing.T) {
		ctx := context.New()
		output := StemResNet(ctx.In("stem"), image(t, 1, 299, 299, 3))
		require.NoError(t, output.Shape().Check(dtypes.Float32, 1, 35, 35, 256))
		assert.Equal(t, 12, ctx.NumVariables())
		assert.Equal(t, 614896, ctx.NumParameters("/stem"))
	})

	t.Run("SmallestImage", func(t *testing.T) {
		for _, stem := range []func(*context.Context, *Node) *Node{StemV4, StemResNet} {
			output := stem(context.New(), image(t, 1, 27, 27, 3))
			require.NoError(t, output.Shape().CheckDims(1, 1, 1, -1))
			err := TryBuild(func() { stem(context.New(), image(t, 1, 26, 26, 3)) })
			require.Error(t, err)
		}
	})

	t.Run("InvalidRank", func(t *testing.T) {
		err := TryBuild(func() { StemV4(context.New(), image(t, 299, 299, 3)) })
		require.ErrorContains(t, err, "rank-4")
	})
}

func TestInceptionBlocks(t *testing.T) {
	testCases := []struct {
		name            string
		block           func(*context.Context, *Node) *Node
		grid            int
		outputChannels  int
		numConvolutions int
	}{
		{"InceptionA", InceptionA, 35, 384, 7},
		{"InceptionB", InceptionB, 17, 1024, 10},
		{"InceptionC", InceptionC, 8, 1536, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, inputChannels := range []int{3, 384, 1024} {
				ctx := context.New()
				x := image(t, 2, tc.grid, tc.grid, inputChannels)
				output := tc.block(ctx, x)
				require.NoError(t, output.Shape().Check(dtypes.Float32, 2, tc.grid, tc.grid, tc.outputChannels),
					"input channels %d", inputChannels)
				counts := x.Graph().CountNodeTypes()
				assert.Equal(t, tc.numConvolutions, counts[NodeTypeConvolve])
				assert.Equal(t, tc.numConvolutions, counts[NodeTypeRelu])
				assert.Equal(t, 1, counts[NodeTypeReduceWindow])
			}

			// Same padding keeps even a 1x1 grid.
			output := tc.block(context.New(), image(t, 1, 1, 1, 16))
			require.NoError(t, output.Shape().CheckDims(1, 1, 1, tc.outputChannels))
		})
	}
}

func TestInceptionWidths(t *testing.T) {
	ctx := context.New()
	ctx.SetParams(map[string]any{
		ParamInceptionAPoolChannels: 32,
		ParamInceptionA1x1Channels:  64,
	})
	output := InceptionA(ctx.In("block"), image(t, 1, 35, 35, 384))
	require.NoError(t, output.Shape().CheckDims(1, 35, 35, 96+96+64+32))

	ctx.SetParam(ParamInceptionAPoolChannels, 0)
	require.Error(t, TryBuild(func() { InceptionA(ctx.In("other"), image(t, 1, 35, 35, 384)) }))

	// -1 selects the default of the variant, an explicit width overrides it.
	ctx = context.New()
	ctx.SetParams(map[string]any{
		ParamVariant:            VariantInceptionResNetV2.String(),
		ParamResNetB1x1Channels: -1,
		ParamResNetB7x1Channels: 100,
	})
	InceptionResNetB(ctx.In("resnet_b"), image(t, 1, 17, 17, 1152))
	projection := ctx.GetVariableByScopeAndName("/resnet_b/conv2d_4", "weights")
	require.NotNil(t, projection)
	require.NoError(t, projection.Shape().CheckDims(1, 1, 100+192, 1152))
}

func TestResidualBlocks(t *testing.T) {
	testCases := []struct {
		name            string
		block           func(*context.Context, *Node) *Node
		grid            int
		concatChannels  int
		finalActivation bool
		variant         Variant
	}{
		{"InceptionResNetA", InceptionResNetA, 35, 32 + 32 + 96, false, VariantInceptionResNetV1},
		{"InceptionResNetB", InceptionResNetB, 17, 128 + 128, true, VariantInceptionResNetV1},
		{"InceptionResNetC", InceptionResNetC, 8, 192 + 192, true, VariantInceptionResNetV1},
		{"InceptionResNetA-V2", InceptionResNetA, 35, 64 + 32 + 32, false, VariantInceptionResNetV2},
		{"InceptionResNetB-V2", InceptionResNetB, 17, 192 + 192, true, VariantInceptionResNetV2},
		{"InceptionResNetC-V2", InceptionResNetC, 8, 256 + 192, true, VariantInceptionResNetV2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, inputChannels := range []int{1, 17, 256, 384, 1792} {
				ctx := context.New()
				ctx.SetParam(ParamVariant, tc.variant.String())
				x := image(t, 2, tc.grid, tc.grid, inputChannels)
				output := tc.block(ctx, x)
				require.True(t, output.Shape().Equal(x.Shape()), "input %s, output %s", x.Shape(), output.Shape())

				sum := output
				if tc.finalActivation {
					assert.Equal(t, NodeTypeRelu, output.Type())
					sum = output.Inputs()[0]
				}
				require.Equal(t, NodeTypeAdd, sum.Type())
				// The first operand of the sum is the activated input.
				assert.Equal(t, NodeTypeRelu, sum.Inputs()[0].Type())
				assert.Same(t, x, sum.Inputs()[0].Inputs()[0])

				// The projection is the last convolution.
				var lastConv *context.Variable
				ctx.EnumerateVariables(func(v *context.Variable) {
					if v.Name() == "weights" {
						lastConv = v
					}
				})
				require.NotNil(t, lastConv)
				require.NoError(t, lastConv.Shape().CheckDims(1, 1, tc.concatChannels, inputChannels))
			}
		})
	}
}

func TestResidualOptions(t *testing.T) {
	ctx := context.New()
	ctx.SetParams(map[string]any{
		ParamResidualScale:          0.2,
		ParamResNetAFinalActivation: true,
		ParamResNetBFinalActivation: false,
	})

	x := image(t, 1, 35, 35, 384)
	output := InceptionResNetA(ctx.In("a"), x)
	require.Equal(t, NodeTypeRelu, output.Type())
	sum := output.Inputs()[0]
	require.Equal(t, NodeTypeAdd, sum.Type())
	scaled := sum.Inputs()[1]
	require.Equal(t, NodeTypeMulScalar, scaled.Type())
	assert.InDelta(t, 0.2, scaled.ScalarValue(), 1e-9)

	x = image(t, 1, 17, 17, 896)
	output = InceptionResNetB(ctx.In("b"), x)
	assert.Equal(t, NodeTypeAdd, output.Type())
	require.True(t, output.Shape().Equal(x.Shape()))
}

func TestReductionBlocks(t *testing.T) {
	t.Run("ReductionA", func(t *testing.T) {
		output := ReductionA(context.New(), image(t, 1, 35, 35, 384), 192, 224, 256, 384)
		require.NoError(t, output.Shape().Check(dtypes.Float32, 1, 17, 17, 1024))

		// m + n + C_in channels for any input depth.
		output = ReductionA(context.New(), image(t, 1, 35, 35, 100), 8, 16, 32, 64)
		require.NoError(t, output.Shape().CheckDims(1, 17, 17, 32+64+100))

		require.Error(t, TryBuild(func() { ReductionA(context.New(), image(t, 1, 35, 35, 384), 192, 0, 256, 384) }))
	})

	t.Run("ReductionB", func(t *testing.T) {
		output := ReductionB(context.New(), image(t, 1, 17, 17, 1024))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 1536))
		output = ReductionB(context.New(), image(t, 1, 17, 17, 10))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 512+10))
	})

	t.Run("ReductionResNetB", func(t *testing.T) {
		output := ReductionResNetB(context.New(), image(t, 1, 17, 17, 896))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 1792))
		output = ReductionResNetB(context.New(), image(t, 1, 17, 17, 10))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 896+10))
	})

	t.Run("ReductionResNetV2B", func(t *testing.T) {
		output := ReductionResNetV2B(context.New(), image(t, 1, 17, 17, 1152))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 2144))
		output = ReductionResNetV2B(context.New(), image(t, 1, 17, 17, 10))
		require.NoError(t, output.Shape().CheckDims(1, 8, 8, 384+288+320+10))
	})

	reductions := map[string]func(ctx *context.Context, x *Node) *Node{
		"ReductionA": func(ctx *context.Context, x *Node) *Node {
			return ReductionA(ctx, x, 4, 4, 4, 4)
		},
		"ReductionB":         ReductionB,
		"ReductionResNetB":   ReductionResNetB,
		"ReductionResNetV2B": ReductionResNetV2B,
	}
	for name, reduction := range reductions {
		t.Run(name+"-Padding", func(t *testing.T) {
			for dim := 1; dim <= 20; dim++ {
				ctx := context.New()
				ctx.SetParam(ParamReductionPadding, "same")
				output := reduction(ctx, image(t, 1, dim, dim+1, 8))
				want := (dim + 1) / 2
				wantWidth := (dim + 2) / 2
				require.NoError(t, output.Shape().CheckDims(1, want, wantWidth, -1), "same padding on %dx%d", dim, dim+1)

				ctx = context.New()
				if dim < 3 {
					require.Error(t, TryBuild(func() { reduction(ctx, image(t, 1, dim, dim, 8)) }))
					continue
				}
				output = reduction(ctx, image(t, 1, dim, dim, 8))
				want = (dim-3)/2 + 1
				require.NoError(t, output.Shape().CheckDims(1, want, want, -1), "valid padding on %dx%d", dim, dim)
			}
		})
	}

	t.Run("InvalidPadding", func(t *testing.T) {
		ctx := context.New()
		ctx.SetParam(ParamReductionPadding, "full")
		err := TryBuild(func() { ReductionB(ctx, image(t, 1, 17, 17, 8)) })
		require.ErrorContains(t, err, ParamReductionPadding)
	})
}

func TestDeterminism(t *testing.T) {
	blocks := map[string]func(ctx *context.Context, x *Node) *Node{
		"StemV4":           StemV4,
		"InceptionB":       InceptionB,
		"InceptionResNetC": InceptionResNetC,
		"ReductionA": func(ctx *context.Context, x *Node) *Node {
			return ReductionA(ctx, x, 192, 224, 256, 384)
		},
	}
	for name, block := range blocks {
		t.Run(name, func(t *testing.T) {
			var outputs [2]*Node
			var nodeTypes [2][]NodeType
			for ii := range outputs {
				x := image(t, 1, 64, 64, 32)
				outputs[ii] = block(context.New(), x)
				nodeTypes[ii] = x.Graph().NodeTypes(0, x.Graph().NextNodeId())
			}
			assert.True(t, outputs[0].Shape().Equal(outputs[1].Shape()))
			assert.Equal(t, nodeTypes[0], nodeTypes[1])
		})
	}
}

func TestMismatchedMerges(t *testing.T) {
	x := image(t, 1, 35, 35, 64)
	g := x.Graph()
	smaller := Parameter(g, "smaller", shapes.Make(dtypes.Float32, 1, 17, 17, 64))
	b := newBlockBuilder(context.New(), x, "Test")

	err := TryBuild(func() { b.concat(x, smaller) })
	require.Error(t, err)
	fmt.Printf("\tExpected concat error: %v\n", err)

	deeper := Parameter(g, "deeper", shapes.Make(dtypes.Float32, 1, 35, 35, 96))
	err = TryBuild(func() { AssertSameShape("residual sum", x, deeper) })
	require.ErrorContains(t, err, "residual sum")
	require.Error(t, TryBuild(func() { Add(x, deeper) }))

	// Building the same block twice in the same scope declares its variables twice.
	ctx := context.New()
	InceptionA(ctx.In("block"), x)
	require.Error(t, TryBuild(func() { InceptionA(ctx.In("block"), x) }))
}

func TestChannelsFirst(t *testing.T) {
	ctx := context.New()
	ctx.SetParam(ParamChannelsFirst, true)
	output := StemV4(ctx.In("stem"), image(t, 1, 3, 299, 299))
	require.NoError(t, output.Shape().CheckDims(1, 384, 35, 35))
	require.NoError(t, ctx.In("stem").In("conv2d").GetVariable("weights").Shape().CheckDims(3, 3, 3, 32))

	output = InceptionResNetA(ctx.In("resnet_a"), output)
	require.NoError(t, output.Shape().CheckDims(1, 384, 35, 35))
	output = ReductionA(ctx.In("reduction_a"), output, 192, 224, 256, 384)
	require.NoError(t, output.Shape().CheckDims(1, 1024, 17, 17))
	output = InceptionB(ctx.In("inception_b"), output)
	require.NoError(t, output.Shape().CheckDims(1, 1024, 17, 17))
}

func TestNormalization(t *testing.T) {
	ctx := context.New()
	ctx.SetParam(layers.ParamNormalization, "batch")
	x := image(t, 2, 35, 35, 384)
	output := InceptionA(ctx.In("block"), x)
	require.NoError(t, output.Shape().CheckDims(2, 35, 35, 384))

	counts := x.Graph().CountNodeTypes()
	assert.Equal(t, 7, counts[NodeTypeBatchNormInference])
	assert.Equal(t, 0, counts[NodeTypeAdd], "no biases expected with batch normalization")

	convCtx := ctx.In("block").In("conv2d")
	assert.Nil(t, convCtx.GetVariable("biases"))
	scale := convCtx.In("batch_normalization").GetVariable("scale")
	require.NotNil(t, scale)
	require.NoError(t, scale.Shape().CheckDims(64))
	assert.False(t, convCtx.In("batch_normalization").GetVariable("mean").Trainable)

	// Residual projection is linear: it keeps its bias and has no normalization.
	x = image(t, 2, 8, 8, 1792)
	output = InceptionResNetC(ctx.In("resnet_c"), x)
	require.True(t, output.Shape().Equal(x.Shape()))
	counts = x.Graph().CountNodeTypes()
	assert.Equal(t, 4, counts[NodeTypeBatchNormInference])
	assert.Equal(t, 2, counts[NodeTypeAdd])
}
