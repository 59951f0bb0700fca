// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
)

// This file contains all parts of the layers.Convolution implementation.

// ConvScopeName is the default sub-scope created by Convolution for its variables.
const ConvScopeName = "conv"

// ConvBuilder is a helper to build a convolution computation. Create it with Convolution, set the desired parameters,
// and when all is set, call Done.
type ConvBuilder struct {
	ctx                *context.Context
	graph              *Graph
	x                  *Node
	numSpatialDims     int
	channelsAxisConfig images.ChannelsAxisConfig
	outputChannels     int
	kernelSize         []int
	bias               bool
	strides            []int
	padSame            bool
	dilations          []int
	newScope           bool
	channelGroupCount  int
}

// Convolution prepares one convolution on x with a kernel declared as a variable in the context,
// for an arbitrary number of spatial dimensions (1D, 2D, 3D, etc.).
//
// It returns a ConvBuilder object for configuration.
// Once it is set up, call `ConvBuilder.Done` and it will return the convolved x.
//
// Two parameters need setting: Channels and KernelSize. It will fail if they are not set.
//
// The shape of x should be `[batch, <spatial_dimensions...>, input_channels]` if
// configured with `ConvBuilder.ChannelsAxis(images.ChannelsLast)`, the default.
// The kernel is then declared as `[<spatial_dimensions...>, input_channels, output_channels]`.
//
// If one sets `ConvBuilder.ChannelsAxis(images.ChannelsFirst)`, the shape should be
// `[batch, input_channels, <spatial_dimensions...>]` instead, and the kernel is declared as
// `[input_channels, <spatial_dimensions...>, output_channels]`.
//
// The output rank and order of the output axes are the same as the input's.
// Their dimensions depend on the configuration options.
func Convolution(ctx *context.Context, x *Node) *ConvBuilder {
	conv := &ConvBuilder{
		ctx:               ctx,
		graph:             x.Graph(),
		x:                 x,
		newScope:          true,
		channelGroupCount: 1,
	}
	conv.numSpatialDims = x.Rank() - 2
	if conv.numSpatialDims < 0 {
		Panicf("Input x must have rank >= 3, shaped by default as [batch, <spatial_dimensions...>, channels], "+
			"but x rank is %d", x.Rank())
	}
	return conv.ChannelsAxis(images.ChannelsLast).NoPadding().UseBias(true).Strides(1)
}

// Channels sets the number of output channels.
// There is no default, and this number must be set before Done is called.
func (conv *ConvBuilder) Channels(channels int) *ConvBuilder {
	conv.outputChannels = channels
	if channels <= 0 {
		Panicf("number of outputChannels must be > 0, it was set to %d", channels)
	}
	return conv
}

// KernelSize sets the kernel size for every axis.
// There is no default, and this value must be set before Done is called.
//
// You can also use KernelSizePerAxis to set the kernel size per axis individually.
func (conv *ConvBuilder) KernelSize(size int) *ConvBuilder {
	perDim := xslices.SliceWithValue(conv.numSpatialDims, size)
	return conv.KernelSizePerAxis(perDim...)
}

// KernelSizePerAxis sets the kernel size for each spatial axis. E.g.: `KernelSizePerAxis(1, 7)`
// for a 1x7 factorized convolution on images.
// There is no default, and this value must be set before Done is called.
func (conv *ConvBuilder) KernelSizePerAxis(dimensions ...int) *ConvBuilder {
	if len(dimensions) != conv.numSpatialDims {
		Panicf("received %d kernel dimensions, but x has %d spatial dimensions",
			len(dimensions), conv.numSpatialDims)
	}
	for _, dim := range dimensions {
		if dim <= 0 {
			Panicf("kernel dimensions must be > 0, got %v", dimensions)
		}
	}
	conv.kernelSize = dimensions
	return conv
}

// UseBias sets whether to add a trainable bias term to the convolution. Default is true.
//
// A convolution followed by batch normalization usually disables it, since the normalization offset
// plays the same role.
func (conv *ConvBuilder) UseBias(useBias bool) *ConvBuilder {
	conv.bias = useBias
	return conv
}

// ChannelsAxis configures the axis for the channels (aka. "depth" or "features") dimension. The default is
// `images.ChannelsLast`, meaning the "channels" dimension comes last.
//
// It returns the modified Config object, so calls can be cascaded.
func (conv *ConvBuilder) ChannelsAxis(channelsAxisConfig images.ChannelsAxisConfig) *ConvBuilder {
	conv.channelsAxisConfig = channelsAxisConfig
	return conv
}

// PadSame adds paddings on the edges of x such that the output spatial dimensions are
// `ceil(input / stride)`: with strides=1 the output has the same spatial shape as the input.
//
// The default is NoPadding.
func (conv *ConvBuilder) PadSame() *ConvBuilder {
	conv.padSame = true
	return conv
}

// NoPadding removes any paddings ("valid" convolution), so if the kernel spatial dimensions > 1,
// the output shape will be reduced on the edges.
//
// This is the default.
func (conv *ConvBuilder) NoPadding() *ConvBuilder {
	conv.padSame = false
	return conv
}

// Strides sets the strides of the convolution. It sets the same value for every dimension.
// The default is 1.
//
// The stride is how many steps to move after a convolution. A value of 2 will half the input
// size, since a convolution will be done at every other position, and so on.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvBuilder) Strides(strides int) *ConvBuilder {
	perDim := xslices.SliceWithValue(conv.numSpatialDims, strides)
	return conv.StridePerAxis(perDim...)
}

// StridePerAxis sets the strides for each spatial dimension of the convolution.
// The default is 1 for every dimension.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvBuilder) StridePerAxis(strides ...int) *ConvBuilder {
	if len(strides) != conv.numSpatialDims {
		Panicf("received %d strides in StridePerAxis, but x has %d spatial dimensions",
			len(strides), conv.numSpatialDims)
	}
	conv.strides = strides
	return conv
}

// Dilations sets the dilations of the convolution. It sets the same value for every dimension.
//
// The default is 1. A value > 1 is also called "atrous convolution".
// The effective kernel size used for the convolution will be `kernel_shape + (kernel_shape - 1) * (dilation - 1)`.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvBuilder) Dilations(dilation int) *ConvBuilder {
	dilationsPerDim := xslices.SliceWithValue(conv.numSpatialDims, dilation)
	return conv.DilationPerAxis(dilationsPerDim...)
}

// DilationPerAxis sets the kernel dilations for each spatial axis of the convolution.
// The default is 1 for every axis.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvBuilder) DilationPerAxis(dilations ...int) *ConvBuilder {
	if len(dilations) != conv.numSpatialDims {
		Panicf("received %d dilations in DilationPerAxis, but x has %d spatial dimensions",
			len(dilations), conv.numSpatialDims)
	}
	conv.dilations = dilations
	return conv
}

// CurrentScope configures the convolution not to create a sub-scope for the kernel weights it needs,
// and instead use the current one provided in Convolution.
//
// By default, Convolution will create a sub-scope named ConvScopeName ("conv").
func (conv *ConvBuilder) CurrentScope() *ConvBuilder {
	conv.newScope = false
	return conv
}

// ChannelGroupCount splits input/output channels into independent groups.
// Equivalent to TensorFlow's "groups" parameter in tf.nn.convNd operations.
//
// When groupCount != 1, the kernel's input channels dimension becomes (input_channels / group_count),
// and the output channels must also be divisible by the group count.
func (conv *ConvBuilder) ChannelGroupCount(groupCount int) *ConvBuilder {
	if groupCount < 1 {
		Panicf("ChannelGroupCount must be >= 1, got %d", groupCount)
	}
	conv.channelGroupCount = groupCount
	return conv
}

// Done indicates that the Convolution layer is finished being configured. It then
// declares the convolution kernel (and bias) variables and returns the resulting Node.
func (conv *ConvBuilder) Done() *Node {
	// Default is to create a sub-scope for the convolution variables.
	ctxInScope := conv.ctx
	if conv.newScope {
		ctxInScope = ctxInScope.In(ConvScopeName)
	}

	if len(conv.kernelSize) == 0 || conv.outputChannels <= 0 {
		Panicf("layers.Convolution requires Channels and KernelSize to be set")
	}
	if conv.numSpatialDims <= 0 {
		Panicf("invalid x shape %s, can't figure spatial dimensions", conv.x.Shape())
	}

	// Kernel shape.
	xShape := conv.x.Shape()
	dtype := xShape.DType
	channelsAxis := images.GetChannelsAxis(xShape, conv.channelsAxisConfig)
	inputChannels := xShape.Dimensions[channelsAxis]
	if inputChannels%conv.channelGroupCount != 0 || conv.outputChannels%conv.channelGroupCount != 0 {
		Panicf("input channels (%d) and output channels (%d) must be divisible by ChannelGroupCount (%d)",
			inputChannels, conv.outputChannels, conv.channelGroupCount)
	}
	kernelInputChannels := inputChannels / conv.channelGroupCount
	kernelDims := make([]int, 0, conv.numSpatialDims+2)
	if conv.channelsAxisConfig == images.ChannelsFirst {
		kernelDims = append(kernelDims, kernelInputChannels)
		kernelDims = append(kernelDims, conv.kernelSize...)
	} else {
		kernelDims = append(kernelDims, conv.kernelSize...)
		kernelDims = append(kernelDims, kernelInputChannels)
	}
	kernelDims = append(kernelDims, conv.outputChannels)
	kernelVar := ctxInScope.VariableWithShape("weights", shapes.Make(dtype, kernelDims...))
	kernel := kernelVar.ValueGraph(conv.graph)

	convOpts := Convolve(conv.x, kernel).
		ChannelsAxis(conv.channelsAxisConfig).
		StridePerAxis(conv.strides...).
		ChannelGroupCount(conv.channelGroupCount)
	if len(conv.dilations) > 0 {
		convOpts.DilationPerAxis(conv.dilations...)
	}
	if conv.padSame {
		convOpts.PadSame()
	} else {
		convOpts.NoPadding()
	}
	output := convOpts.Done()

	// Create and apply bias.
	if conv.bias {
		biasVar := ctxInScope.VariableWithShape("biases", shapes.Make(dtype, conv.outputChannels))
		bias := biasVar.ValueGraph(conv.graph)
		expandedDims := xslices.SliceWithValue(output.Rank(), 1)
		outputChannelsAxis := images.GetChannelsAxis(output, conv.channelsAxisConfig)
		expandedDims[outputChannelsAxis] = conv.outputChannels
		bias = Reshape(bias, expandedDims...)
		output = Add(output, bias)
	}
	return output
}
