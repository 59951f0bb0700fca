// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package inceptionresnet builds the layer graph of the Inception-v4 and Inception-ResNet family of
// convolutional networks, from "Inception-v4, Inception-ResNet and the Impact of Residual Connections
// on Learning" (Szegedy, Ioffe, Vanhoucke, Alemi), https://arxiv.org/abs/1602.07261.
//
// Each block is a function that takes a context (for its variables and hyperparameters) and a
// rank-4 image tensor, and returns the block's output tensor:
//
//   - Stems: StemV4 and StemResNet take the raw image (299x299 in the paper) to 35x35.
//   - Inception blocks: InceptionA, InceptionB and InceptionC concatenate their branches and
//     keep the spatial dimensions.
//   - Residual blocks: InceptionResNetA, InceptionResNetB and InceptionResNetC sum a projection of
//     their branches back into their input, preserving its shape.
//   - Reduction blocks: ReductionA, ReductionB, ReductionResNetB and ReductionResNetV2B halve the
//     spatial dimensions.
//
// BuildGraph assembles the blocks into one of the variants of the paper. The global pooling and
// classifier head are left to the caller.
//
// Every convolution of a block is "convolution -> normalization -> activation", configured by the
// context hyperparameters layers.ParamNormalization and activations.ParamActivation. The widths of
// the Inception and residual blocks are also hyperparameters (see ParamInceptionAPoolChannels and
// the others), with the paper's values as defaults. Inception-ResNet-v2 uses wider residual blocks, see
// DefaultWidthsResNetV2.
//
// Shapes are checked while the graph is built: a block that would merge tensors of different shapes
// panics with a descriptive error, see graph.TryBuild to convert it to an error.
package inceptionresnet

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/activations"
)

const (
	// ParamChannelsFirst context hyperparameter selects the layout of the images: if true they are
	// shaped `[batch, channels, height, width]`, otherwise `[batch, height, width, channels]`.
	// The default is false.
	ParamChannelsFirst = "channels_first"

	// ParamReductionPadding context hyperparameter selects the padding of the stride-2 operations
	// of the reduction blocks: "valid" (the default, 35x35 -> 17x17 -> 8x8) or "same", where the
	// output spatial dimensions are ceil(input / 2).
	ParamReductionPadding = "reduction_padding"

	// ParamResidualScale context hyperparameter scales the residual of the residual blocks before
	// it is added to the block input. The paper suggests values between 0.1 and 0.3 for wide blocks.
	// The default is 1.0 (no scaling).
	ParamResidualScale = "residual_scale"

	// ParamResNetAFinalActivation, ParamResNetBFinalActivation and ParamResNetCFinalActivation
	// context hyperparameters define whether the residual blocks apply the activation after the sum.
	// Defaults are false, true and true.
	ParamResNetAFinalActivation = "inception_resnet_a_final_activation"
	ParamResNetBFinalActivation = "inception_resnet_b_final_activation"
	ParamResNetCFinalActivation = "inception_resnet_c_final_activation"
)

// Context hyperparameters with the widths (number of channels) of the Inception and residual blocks.
// Their defaults are in DefaultWidths and DefaultWidthsResNetV2. A value of -1 selects the default.
const (
	ParamInceptionAReduceChannels = "inception_a_reduce_channels"
	ParamInceptionA3x3Channels    = "inception_a_3x3_channels"
	ParamInceptionA1x1Channels    = "inception_a_1x1_channels"
	ParamInceptionAPoolChannels   = "inception_a_pool_channels"

	ParamInceptionBReduceChannels = "inception_b_reduce_channels"
	ParamInceptionBMidChannels    = "inception_b_mid_channels"
	ParamInceptionBOutChannels    = "inception_b_out_channels"
	ParamInceptionB1x1Channels    = "inception_b_1x1_channels"
	ParamInceptionBPoolChannels   = "inception_b_pool_channels"

	ParamInceptionCReduceChannels = "inception_c_reduce_channels"
	ParamInceptionC1x3Channels    = "inception_c_1x3_channels"
	ParamInceptionC3x1Channels    = "inception_c_3x1_channels"
	ParamInceptionCSplitChannels  = "inception_c_split_channels"
	ParamInceptionC1x1Channels    = "inception_c_1x1_channels"
	ParamInceptionCPoolChannels   = "inception_c_pool_channels"

	ParamResNetAChannels          = "inception_resnet_a_channels"
	ParamResNetA1x1Channels       = "inception_resnet_a_1x1_channels"
	ParamResNetA3x3DblMidChannels = "inception_resnet_a_3x3dbl_mid_channels"
	ParamResNetA3x3DblOutChannels = "inception_resnet_a_3x3dbl_out_channels"

	ParamResNetBChannels    = "inception_resnet_b_channels"
	ParamResNetB1x1Channels = "inception_resnet_b_1x1_channels"
	ParamResNetB1x7Channels = "inception_resnet_b_1x7_channels"
	ParamResNetB7x1Channels = "inception_resnet_b_7x1_channels"

	ParamResNetCChannels    = "inception_resnet_c_channels"
	ParamResNetC1x1Channels = "inception_resnet_c_1x1_channels"
	ParamResNetC1x3Channels = "inception_resnet_c_1x3_channels"
	ParamResNetC3x1Channels = "inception_resnet_c_3x1_channels"
)

// DefaultWidths holds the default value of each of the width hyperparameters. The residual blocks
// default to the widths of Inception-ResNet-v1.
var DefaultWidths = map[string]int{
	ParamInceptionAReduceChannels: 64,
	ParamInceptionA3x3Channels:    96,
	ParamInceptionA1x1Channels:    96,
	ParamInceptionAPoolChannels:   96,

	ParamInceptionBReduceChannels: 192,
	ParamInceptionBMidChannels:    224,
	ParamInceptionBOutChannels:    256,
	ParamInceptionB1x1Channels:    384,
	ParamInceptionBPoolChannels:   128,

	ParamInceptionCReduceChannels: 384,
	ParamInceptionC1x3Channels:    448,
	ParamInceptionC3x1Channels:    512,
	ParamInceptionCSplitChannels:  256,
	ParamInceptionC1x1Channels:    256,
	ParamInceptionCPoolChannels:   256,

	ParamResNetAChannels:          32,
	ParamResNetA1x1Channels:       96,
	ParamResNetA3x3DblMidChannels: 32,
	ParamResNetA3x3DblOutChannels: 32,

	ParamResNetBChannels:    128,
	ParamResNetB1x1Channels: 128,
	ParamResNetB1x7Channels: 128,
	ParamResNetB7x1Channels: 128,

	ParamResNetCChannels:    192,
	ParamResNetC1x1Channels: 192,
	ParamResNetC1x3Channels: 192,
	ParamResNetC3x1Channels: 192,
}

// DefaultWidthsResNetV2 holds the widths of the residual blocks of Inception-ResNet-v2 (figures 16, 17
// and 19 of the paper) that differ from DefaultWidths. They are used when ParamVariant is
// "inception_resnet_v2".
var DefaultWidthsResNetV2 = map[string]int{
	ParamResNetA1x1Channels:       32,
	ParamResNetA3x3DblMidChannels: 48,
	ParamResNetA3x3DblOutChannels: 64,

	ParamResNetB1x1Channels: 192,
	ParamResNetB1x7Channels: 160,
	ParamResNetB7x1Channels: 192,

	ParamResNetC1x3Channels: 224,
	ParamResNetC3x1Channels: 256,
}

// width returns the value of a width hyperparameter, or its default for the variant in the context
// if it is not set or set to -1.
func width(ctx *context.Context, key string) int {
	defaultValue, found := DefaultWidths[key]
	if !found {
		Panicf("unknown width hyperparameter %q", key)
	}
	if context.GetParamOr(ctx, ParamVariant, "") == VariantInceptionResNetV2.String() {
		if v2Value, found := DefaultWidthsResNetV2[key]; found {
			defaultValue = v2Value
		}
	}
	value := context.GetParamOr(ctx, key, -1)
	if value == -1 {
		value = defaultValue
	}
	if value <= 0 {
		Panicf("width hyperparameter %q must be > 0, got %d", key, value)
	}
	return value
}

// blockBuilder holds the configuration shared by the layers of one block, and numbers
// its convolutions: each gets its own scope, "conv2d", "conv2d_1", "conv2d_2", etc.
type blockBuilder struct {
	ctx                *context.Context
	channelsAxisConfig images.ChannelsAxisConfig
	channelsAxis       int
	normalization      string
	convCount          int
}

func newBlockBuilder(ctx *context.Context, x *Node, blockName string) *blockBuilder {
	if x.Rank() != 4 {
		Panicf("%s requires a rank-4 image tensor (batch, spatial and channels axes), got x shaped %s",
			blockName, x.Shape())
	}
	b := &blockBuilder{
		ctx:                ctx,
		channelsAxisConfig: channelsAxisConfig(ctx),
		normalization:      context.GetParamOr(ctx, layers.ParamNormalization, "none"),
	}
	b.channelsAxis = images.GetChannelsAxis(x, b.channelsAxisConfig)
	return b
}

// channelsAxisConfig returns the images layout configured in the context.
func channelsAxisConfig(ctx *context.Context) images.ChannelsAxisConfig {
	if context.GetParamOr(ctx, ParamChannelsFirst, false) {
		return images.ChannelsFirst
	}
	return images.ChannelsLast
}

// numChannels of x, an image in the layout of the block.
func (b *blockBuilder) numChannels(x *Node) int {
	return x.Shape().Dimensions[b.channelsAxis]
}

// featureAxis for normalization, counting from the end for channels-last.
func (b *blockBuilder) featureAxis() int {
	if b.channelsAxisConfig == images.ChannelsFirst {
		return 1
	}
	return -1
}

func (b *blockBuilder) nextConvScope() *context.Context {
	var ctx *context.Context
	if b.convCount == 0 {
		ctx = b.ctx.In("conv2d")
	} else {
		ctx = b.ctx.Inf("conv2d_%d", b.convCount)
	}
	b.convCount++
	return ctx
}

// conv adds a stride-1 convolution with "same" padding, followed by the normalization and the activation.
func (b *blockBuilder) conv(x *Node, channels, kernelHeight, kernelWidth int) *Node {
	return b.convStrided(x, channels, kernelHeight, kernelWidth, 1, true)
}

// convValid adds a convolution without padding, followed by the normalization and the activation.
func (b *blockBuilder) convValid(x *Node, channels, kernelHeight, kernelWidth, stride int) *Node {
	return b.convStrided(x, channels, kernelHeight, kernelWidth, stride, false)
}

// convStrided adds a convolution followed by the normalization and the activation.
// The bias is only used if there is no normalization, since its offset plays the same role.
func (b *blockBuilder) convStrided(x *Node, channels, kernelHeight, kernelWidth, stride int, padSame bool) *Node {
	ctx := b.nextConvScope()
	convCfg := layers.Convolution(ctx, x).CurrentScope().
		ChannelsAxis(b.channelsAxisConfig).
		Channels(channels).
		KernelSizePerAxis(kernelHeight, kernelWidth).
		Strides(stride).
		UseBias(b.normalization == "none" || b.normalization == "")
	if padSame {
		convCfg = convCfg.PadSame()
	} else {
		convCfg = convCfg.NoPadding()
	}
	x = convCfg.Done()
	x = layers.MaybeNormalize(ctx, x, b.featureAxis())
	return activations.ApplyFromContext(ctx, x)
}

// projection adds a linear 1x1 convolution, with bias and no normalization or activation.
func (b *blockBuilder) projection(x *Node, channels int) *Node {
	ctx := b.nextConvScope()
	return layers.Convolution(ctx, x).CurrentScope().
		ChannelsAxis(b.channelsAxisConfig).
		Channels(channels).
		KernelSize(1).
		UseBias(true).
		Done()
}

// maxPool adds a 3x3 max-pooling.
func (b *blockBuilder) maxPool(x *Node, stride int, padSame bool) *Node {
	pool := MaxPool(x).ChannelsAxis(b.channelsAxisConfig).Window(3).Strides(stride)
	if padSame {
		return pool.PadSame().Done()
	}
	return pool.NoPadding().Done()
}

// avgPool adds a 3x3 stride-1 average pooling with "same" padding. Padded values are not
// included in the mean.
func (b *blockBuilder) avgPool(x *Node) *Node {
	return MeanPool(x).ChannelsAxis(b.channelsAxisConfig).Window(3).Strides(1).PadSame().Done()
}

// concat merges the branches along the channels axis. Their spatial dimensions must match.
func (b *blockBuilder) concat(branches ...*Node) *Node {
	return Concatenate(branches, b.channelsAxis)
}

// reductionPadSame returns whether the stride-2 operations of the reduction blocks use "same" padding.
func reductionPadSame(ctx *context.Context) bool {
	padding := context.GetParamOr(ctx, ParamReductionPadding, "valid")
	switch padding {
	case "valid":
		return false
	case "same":
		return true
	default:
		Panicf("invalid value %q for hyperparameter %q: valid values are \"valid\" or \"same\"",
			padding, ParamReductionPadding)
	}
	return false
}
