// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/activations"
)

// InceptionResNetA builds the residual Inception-A block (figures 10 and 16 of the paper), used on the 35x35 grid.
//
// The branches 1x1 -> 3x3 -> 3x3 | 1x1 -> 3x3 | 1x1 (160 channels, or 128 with the Inception-ResNet-v2
// widths) are concatenated and projected back to the
// input depth with a linear 1x1 convolution, then added to the activated input.
// By default there is no activation after the sum, see ParamResNetAFinalActivation.
//
// The output has the same shape as the input, for any input depth.
func InceptionResNetA(ctx *context.Context, x *Node) *Node {
	return residualBlock(ctx, x, "InceptionResNetA", ParamResNetAFinalActivation, false,
		func(b *blockBuilder, x *Node) []*Node {
			channels := width(ctx, ParamResNetAChannels)
			branch3x3Dbl := b.conv(x, channels, 1, 1)
			branch3x3Dbl = b.conv(branch3x3Dbl, width(ctx, ParamResNetA3x3DblMidChannels), 3, 3)
			branch3x3Dbl = b.conv(branch3x3Dbl, width(ctx, ParamResNetA3x3DblOutChannels), 3, 3)

			branch3x3 := b.conv(x, channels, 1, 1)
			branch3x3 = b.conv(branch3x3, channels, 3, 3)

			branch1x1 := b.conv(x, width(ctx, ParamResNetA1x1Channels), 1, 1)
			return []*Node{branch3x3Dbl, branch3x3, branch1x1}
		})
}

// InceptionResNetB builds the residual Inception-B block (figures 11 and 17 of the paper), used on the 17x17 grid.
//
// The branches 1x1 -> 1x7 -> 7x1 | 1x1 (256 channels, or 384 with the Inception-ResNet-v2 widths)
// are concatenated, projected back to the input depth with a
// linear 1x1 convolution, and added to the activated input, followed by the activation.
//
// The output has the same shape as the input, for any input depth.
func InceptionResNetB(ctx *context.Context, x *Node) *Node {
	return residualBlock(ctx, x, "InceptionResNetB", ParamResNetBFinalActivation, true,
		func(b *blockBuilder, x *Node) []*Node {
			branch7x7 := b.conv(x, width(ctx, ParamResNetBChannels), 1, 1)
			branch7x7 = b.conv(branch7x7, width(ctx, ParamResNetB1x7Channels), 1, 7)
			branch7x7 = b.conv(branch7x7, width(ctx, ParamResNetB7x1Channels), 7, 1)

			branch1x1 := b.conv(x, width(ctx, ParamResNetB1x1Channels), 1, 1)
			return []*Node{branch7x7, branch1x1}
		})
}

// InceptionResNetC builds the residual Inception-C block (figures 13 and 19 of the paper), used on the 8x8 grid.
//
// The branches 1x1 -> 1x3 -> 3x1 | 1x1 (384 channels, or 448 with the Inception-ResNet-v2 widths)
// are concatenated, projected back to the input depth with a
// linear 1x1 convolution, and added to the activated input, followed by the activation.
//
// The output has the same shape as the input, for any input depth.
func InceptionResNetC(ctx *context.Context, x *Node) *Node {
	return residualBlock(ctx, x, "InceptionResNetC", ParamResNetCFinalActivation, true,
		func(b *blockBuilder, x *Node) []*Node {
			branch3x3 := b.conv(x, width(ctx, ParamResNetCChannels), 1, 1)
			branch3x3 = b.conv(branch3x3, width(ctx, ParamResNetC1x3Channels), 1, 3)
			branch3x3 = b.conv(branch3x3, width(ctx, ParamResNetC3x1Channels), 3, 1)

			branch1x1 := b.conv(x, width(ctx, ParamResNetC1x1Channels), 1, 1)
			return []*Node{branch3x3, branch1x1}
		})
}

// residualBlock implements the pattern shared by the residual blocks:
// activation -> branches -> concatenation -> linear projection to the input depth -> (scale) -> sum -> (activation).
func residualBlock(ctx *context.Context, x *Node, blockName, finalActivationParam string, finalActivationDefault bool,
	branchesFn func(b *blockBuilder, x *Node) []*Node) *Node {
	b := newBlockBuilder(ctx, x, blockName)
	activated := activations.ApplyFromContext(ctx, x)
	mixed := b.concat(branchesFn(b, activated)...)
	residual := b.projection(mixed, b.numChannels(x))
	if scale := context.GetParamOr(ctx, ParamResidualScale, 1.0); scale != 1.0 {
		residual = MulScalar(residual, scale)
	}
	AssertSameShape(blockName+" residual sum", activated, residual)
	output := Add(activated, residual)
	if context.GetParamOr(ctx, finalActivationParam, finalActivationDefault) {
		output = activations.ApplyFromContext(ctx, output)
	}
	return output
}
