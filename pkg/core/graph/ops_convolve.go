// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapeinference"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
)

// ConvolveAxesConfig defines the interpretation of the input, kernel and output axes of a convolution.
type ConvolveAxesConfig = shapeinference.ConvolveAxesConfig

// ConvolutionBuilder is a helper to build a convolution computation.
// Create it with Convolve, set the desired parameters and
// when all is set, call Done.
type ConvolutionBuilder struct {
	graph           *Graph
	x, kernel       *Node
	numSpatialDims  int
	strides         []int
	paddings        [][2]int
	padSame         bool
	dilations       []int
	channelGroupCnt int

	channelsAxisConfig images.ChannelsAxisConfig
	axes               ConvolveAxesConfig
}

// Convolve prepares a convolution on x with the given kernel for arbitrary
// number of spatial dimensions (1D, 2D, 3D, etc.).
//
// It returns a ConvolutionBuilder for configuration. Once it is set up, call
// ConvolutionBuilder.Done and it will return the convolved x. Browse through
// ConvolutionBuilder to see the capabilities and the defaults.
//
// The shape of x should be `[batch, <spatial_dimensions...>, input_channels]` if
// configured with `ConvolutionBuilder.ChannelsAxis(images.ChannelsLast)`, the default. If one
// sets `ConvolutionBuilder.ChannelsAxis(images.ChannelsFirst)`, the shape should be
// `[batch, input_channels, <spatial_dimensions...>]` instead.
//
// The shape of kernel should be `[<spatial_dimensions...>, input_channels, output_channels]` if
// configured with `ConvolutionBuilder.ChannelsAxis(images.ChannelsLast)`, the default. If one
// sets `ConvolutionBuilder.ChannelsAxis(images.ChannelsFirst)`, the shape should be
// `[input_channels, <spatial_dimensions...>, output_channels]` instead.
func Convolve(x, kernel *Node) *ConvolutionBuilder {
	conv := &ConvolutionBuilder{
		graph:           validateBuildingGraphFromInputs(x, kernel),
		x:               x,
		kernel:          kernel,
		channelGroupCnt: 1,
	}

	conv.numSpatialDims = x.Rank() - 2
	if conv.numSpatialDims <= 0 {
		Panicf("Input x must have rank >= 3, shaped by default as [batch, <spatial_dimensions...>, channels], "+
			"but x rank is %d", x.Rank())
	}
	if kernel.Rank() != x.Rank() {
		Panicf("Input x (rank %d) must have same rank as the kernel (rank %d) -- x has a batch dimension, "+
			"and kernel has an output_channels dimension", x.Rank(), kernel.Rank())
	}
	return conv.ChannelsAxis(images.ChannelsLast).NoPadding()
}

// ChannelsAxis configures the axis for the channels (aka. "depth" or "features") dimension. The default is
// `images.ChannelsLast`, meaning the "channels" dimension comes last.
//
// It returns the modified Config object, so calls can be cascaded.
func (conv *ConvolutionBuilder) ChannelsAxis(channelsAxisConfig images.ChannelsAxisConfig) *ConvolutionBuilder {
	conv.channelsAxisConfig = channelsAxisConfig
	switch channelsAxisConfig {
	case images.ChannelsFirst:
		conv.axes = shapeinference.ChannelsFirstAxes(conv.x.Rank())
	case images.ChannelsLast:
		conv.axes = shapeinference.ChannelsLastAxes(conv.x.Rank())
	default:
		Panicf("invalid channels axis configuration %s", channelsAxisConfig)
	}
	return conv
}

// ChannelGroupCount sets the number of groups the input channels are split into, each convolved
// with its own slice of the kernel. The default is 1.
//
// The kernel's input channels dimension must be input_channels / groupCount.
func (conv *ConvolutionBuilder) ChannelGroupCount(groupCount int) *ConvolutionBuilder {
	conv.channelGroupCnt = groupCount
	return conv
}

// Strides sets the strides of the convolution. It sets the same value for every dimension.
// The default is 1.
//
// The stride is how many steps to move after a convolution. A value of 2 will half the input
// size, since a convolution will be done at every other position, and so on. It can be defined
// separately per dimension.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvolutionBuilder) Strides(strides int) *ConvolutionBuilder {
	return conv.StridePerAxis(xslices.SliceWithValue(conv.numSpatialDims, strides)...)
}

// StridePerAxis sets the strides for each spatial dimension of the convolution.
// The default is 1 for every dimension.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvolutionBuilder) StridePerAxis(strides ...int) *ConvolutionBuilder {
	if len(strides) != conv.numSpatialDims {
		Panicf("received %d strides in StridePerAxis, but x has %d spatial dimensions",
			len(strides), conv.numSpatialDims)
	}
	conv.strides = strides
	return conv
}

// PadSame adds paddings on the edges of x such that the output of the convolution
// has spatial dimensions ceil(input_dim / stride). With stride 1 the output has the same
// spatial shape as the input.
//
// The default is NoPadding.
func (conv *ConvolutionBuilder) PadSame() *ConvolutionBuilder {
	conv.paddings = nil
	conv.padSame = true
	return conv
}

// NoPadding removes any paddings, so if the kernel spatial dimensions > 1,
// the output shape will be reduced on the edges.
// This is the default.
func (conv *ConvolutionBuilder) NoPadding() *ConvolutionBuilder {
	conv.paddings = nil
	conv.padSame = false
	return conv
}

// PaddingPerAxis specifies the paddings at the start and at the end to use per spatial dimension,
// that means one pair ([2]int) per spatial dimension.
// The default is NoPadding.
func (conv *ConvolutionBuilder) PaddingPerAxis(paddings [][2]int) *ConvolutionBuilder {
	if len(paddings) != conv.numSpatialDims {
		Panicf("received %d paddings in PaddingPerAxis, but x has %d spatial dimensions",
			len(paddings), conv.numSpatialDims)
	}
	conv.paddings = paddings
	conv.padSame = false
	return conv
}

// DilationPerAxis sets the kernel dilations for each spatial dimension of the convolution.
// The default is 1 for every dimension.
//
// Specifies the kernel up-sampling rate. In the literature, the same parameter
// is sometimes called input stride or dilation. The effective kernel size used for the convolution
// will be `kernel_shape + (kernel_shape - 1) * (dilation - 1)`, obtained by inserting (dilation-1) zeros
// between consecutive elements of the original filter in the spatial dimension.
//
// One cannot use strides and dilation at the same time.
func (conv *ConvolutionBuilder) DilationPerAxis(dilations ...int) *ConvolutionBuilder {
	if len(dilations) == 0 {
		conv.dilations = nil
		return conv
	}
	if len(dilations) != conv.numSpatialDims {
		Panicf("received %d dilations in DilationPerAxis, but x has %d spatial dimensions",
			len(dilations), conv.numSpatialDims)
	}
	conv.dilations = dilations
	return conv
}

// Done indicates that the convolve operation is finished being configured, and
// it updates the computation graph with convolution, and returns the resulting
// Node.
func (conv *ConvolutionBuilder) Done() *Node {
	var dilationsSet, stridesSet bool
	for _, stride := range conv.strides {
		if stride != 1 {
			stridesSet = true
		}
	}
	for _, dilation := range conv.dilations {
		if dilation != 1 {
			dilationsSet = true
		}
	}
	if dilationsSet && stridesSet {
		Panicf("both strides (%v) and dilations (%v) are set, but only one can be used at a time",
			conv.strides, conv.dilations)
	}

	paddings := conv.paddings
	if paddings == nil && conv.padSame {
		paddings = make([][2]int, conv.numSpatialDims)
		for dim := range paddings {
			kernelSize := conv.kernel.Shape().Dim(conv.axes.KernelSpatial[dim])
			if conv.dilations != nil {
				kernelSize = (kernelSize-1)*conv.dilations[dim] + 1
			}
			stride := 1
			if conv.strides != nil {
				stride = conv.strides[dim]
			}
			paddings[dim] = shapeinference.PadSame(conv.x.Shape().Dim(conv.axes.InputSpatial[dim]), kernelSize, stride)
		}
	}
	return ConvGeneral(conv.x, conv.kernel, conv.axes, conv.strides, paddings, conv.dilations, conv.channelGroupCnt)
}

// nodeInputsConvolve holds the static parameters of a Convolve node.
type nodeInputsConvolve struct {
	x, kernel         *Node
	axes              ConvolveAxesConfig
	strides           []int
	paddings          [][2]int
	dilations         []int
	channelGroupCount int
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsConvolve) Type() NodeType { return NodeTypeConvolve }

// String implements the interface NodeInputs.
func (ni *nodeInputsConvolve) String() string {
	return fmt.Sprintf("%s(x=[#%d], kernel=[#%d], strides=%v, paddings=%v, dilations=%v, groups=%d)",
		ni.Type(), ni.x.Id(), ni.kernel.Id(), ni.strides, ni.paddings, ni.dilations, ni.channelGroupCount)
}

// ConvGeneral is a generic Convolution operation with the axes configuration given explicitly.
// Prefer Convolve, which provides a builder with sane defaults.
//
// It panics with a descriptive error if the shapes of input and kernel are not compatible.
func ConvGeneral(input, kernel *Node, axes ConvolveAxesConfig,
	strides []int, paddings [][2]int, dilations []int, channelGroupCount int) *Node {
	g := validateBuildingGraphFromInputs(input, kernel)
	outputShape, err := shapeinference.ConvOp(input.Shape(), kernel.Shape(), axes, strides, paddings, dilations, channelGroupCount)
	if err != nil {
		panic(err)
	}
	inputs := &nodeInputsConvolve{
		x:                 input,
		kernel:            kernel,
		axes:              axes.Clone(),
		strides:           strides,
		paddings:          paddings,
		dilations:         dilations,
		channelGroupCount: channelGroupCount,
	}
	return newNode(g, inputs, outputShape, input, kernel)
}
