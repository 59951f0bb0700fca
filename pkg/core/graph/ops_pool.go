// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapeinference"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
)

// This file contains all parts of the {Max|Mean}Pool implementation.

// PoolBuilder is a helper to build a pool computation.
// Create it with {Max|Mean}Pool, set the desired parameters and
// when set, call `Done()`.
type PoolBuilder struct {
	graph                *Graph
	x                    *Node
	reductionType        ReduceOpType
	numSpatialDims       int
	channelsAxisConfig   images.ChannelsAxisConfig
	spatialAxes          []int // Indices of spatial axes.
	channelsAxis         int
	windowSizes, strides []int
	paddings             [][2]int
	padSame              bool
	isMean               bool
}

// MaxPool prepares a max pooling on x for arbitrary number of spatial dimensions
// (1D, 2D, 3D, etc.). It returns the max value for the selected window, on given strides.
//
// It returns a PoolBuilder for configuration. Once it is set up
// call `PoolBuilder.Done` and it will return the pooled x.
//
// The window sizes must be set with PoolBuilder.Window or PoolBuilder.WindowPerAxis.
//
// The shape of x should be `[batch, <spatial_dimensions...>, input_channels]` if
// configured with `PoolBuilder.ChannelsAxis(images.ChannelsLast)`, the default. If one
// sets `PoolBuilder.ChannelsAxis(images.ChannelsFirst)`, the shape should be
// `[batch, input_channels, <spatial_dimensions...>]` instead.
func MaxPool(x *Node) *PoolBuilder {
	return makePoolBuilder(x, ReduceOpMax)
}

// MeanPool prepares a mean pooling (also known as average pooling) on x for arbitrary number of
// spatial dimensions. It returns the mean value for the selected window, on given strides.
//
// Padded positions don't count in the mean.
//
// See MaxPool for the configuration.
func MeanPool(x *Node) *PoolBuilder {
	pool := makePoolBuilder(x, ReduceOpSum)
	pool.isMean = true
	return pool
}

func makePoolBuilder(x *Node, reductionType ReduceOpType) *PoolBuilder {
	g := validateBuildingGraphFromInputs(x)
	pool := &PoolBuilder{
		graph:         g,
		x:             x,
		reductionType: reductionType,
	}
	return pool.ChannelsAxis(images.ChannelsLast).NoPadding()
}

// ChannelsAxis configures the axis for the channels (aka. "depth" or "features") dimension.
// The default is `images.ChannelsLast`, meaning the "channels" dimension comes last.
//
// It returns the modified Config object, so calls can be cascaded.
func (pool *PoolBuilder) ChannelsAxis(channelsAxisConfig images.ChannelsAxisConfig) *PoolBuilder {
	pool.channelsAxisConfig = channelsAxisConfig
	pool.channelsAxis = images.GetChannelsAxis(pool.x, channelsAxisConfig)
	pool.spatialAxes = images.GetSpatialAxes(pool.x, channelsAxisConfig)
	pool.numSpatialDims = pool.x.Rank() - 2
	return pool
}

// Window sets the pooling window size for all spatial dimensions to the same windowSize.
//
// There is no default, and this must be set either with Window or WindowPerAxis.
func (pool *PoolBuilder) Window(windowSize int) *PoolBuilder {
	return pool.WindowPerAxis(xslices.SliceWithValue(pool.numSpatialDims, windowSize)...)
}

// WindowPerAxis sets the pooling window size for each spatial dimension.
//
// There is no default, and this must be set either with Window or WindowPerAxis.
func (pool *PoolBuilder) WindowPerAxis(sizes ...int) *PoolBuilder {
	if len(sizes) != pool.numSpatialDims {
		Panicf("received %d window sizes in WindowPerAxis, but x has %d spatial dimensions",
			len(sizes), pool.numSpatialDims)
	}
	pool.windowSizes = sizes
	return pool
}

// Strides sets the strides of the pooling. It sets the same value for every spatial dimension.
//
// The default is the same value as the window size (set with Window or WindowPerAxis), except if one
// uses PadSame, then the default changes to 1.
func (pool *PoolBuilder) Strides(strides int) *PoolBuilder {
	return pool.StridePerAxis(xslices.SliceWithValue(pool.numSpatialDims, strides)...)
}

// StridePerAxis sets the strides for each spatial dimension of the pooling.
//
// The default is the same value as the window size (set with Window or WindowPerAxis), except if one
// uses PadSame, then the default changes to 1.
func (pool *PoolBuilder) StridePerAxis(strides ...int) *PoolBuilder {
	if len(strides) != pool.numSpatialDims {
		Panicf("received %d strides in StridePerAxis, but x has %d spatial dimensions",
			len(strides), pool.numSpatialDims)
	}
	pool.strides = strides
	return pool
}

// PadSame adds paddings on the edges of x such that the output spatial dimensions are
// ceil(input_dim / stride). With stride 1 the output has the same spatial shape as the input.
//
// This changes the default value of Strides to 1, if it is not set.
//
// The default is NoPadding.
func (pool *PoolBuilder) PadSame() *PoolBuilder {
	pool.paddings = nil
	pool.padSame = true
	return pool
}

// NoPadding removes any paddings, so if the window spatial dimensions > 1,
// the output shape will be reduced on the edges.
// This is the default.
func (pool *PoolBuilder) NoPadding() *PoolBuilder {
	pool.paddings = nil
	pool.padSame = false
	return pool
}

// PaddingPerAxis specifies the paddings at the start and at the end to use per spatial dimension,
// that means one pair ([2]int) per spatial dimension.
func (pool *PoolBuilder) PaddingPerAxis(paddings [][2]int) *PoolBuilder {
	if len(paddings) != pool.numSpatialDims {
		Panicf("received %d paddings in PaddingPerAxis, but x has %d spatial dimensions",
			len(paddings), pool.numSpatialDims)
	}
	pool.paddings = paddings
	pool.padSame = false
	return pool
}

// Done indicates that the pooling is finished being configured, and
// it updates the computation graph with it, and returns the resulting Node.
func (pool *PoolBuilder) Done() *Node {
	rank := pool.x.Rank()
	if pool.numSpatialDims <= 0 {
		Panicf("Input x must have rank >= 3, shaped by default as [batch, <spatial_dimensions...>, channels] "+
			"but x rank is %d", rank)
	}

	// Closure to create slice with value for every axis, using a default value
	// and the corresponding spatial values.
	makeSlice := func(defaultValue int, valuesForSpatialDims []int) []int {
		s := xslices.SliceWithValue(rank, defaultValue)
		for ii, axis := range pool.spatialAxes {
			if len(valuesForSpatialDims) > 0 {
				s[axis] = valuesForSpatialDims[ii]
			}
		}
		return s
	}

	// windowSizes is obligatory.
	if len(pool.windowSizes) == 0 {
		Panicf("window sizes required but not configured -- use .Window() or .WindowPerAxis()")
	}
	windowDimensions := makeSlice(1, pool.windowSizes)

	// strides default to pooling window sizes.
	spatialStrides := pool.strides
	if len(spatialStrides) == 0 {
		if pool.padSame {
			// if PadSame(), then the strides default to 1, to preserve the image size.
			spatialStrides = xslices.SliceWithValue(pool.numSpatialDims, 1)
		} else {
			spatialStrides = pool.windowSizes
		}
	}
	strides := makeSlice(1, spatialStrides)

	spatialPaddings := pool.paddings
	if spatialPaddings == nil && pool.padSame {
		spatialPaddings = make([][2]int, pool.numSpatialDims)
		for dim, axis := range pool.spatialAxes {
			spatialPaddings[dim] = shapeinference.PadSame(pool.x.Shape().Dim(axis), pool.windowSizes[dim], spatialStrides[dim])
		}
	}
	var paddings [][2]int
	for _, padding := range spatialPaddings {
		if padding != [2]int{} {
			paddings = make([][2]int, rank)
			for ii, axis := range pool.spatialAxes {
				paddings[axis] = spatialPaddings[ii]
			}
			break
		}
	}

	if !pool.isMean {
		return ReduceWindow(pool.x, pool.reductionType, windowDimensions, strides, paddings)
	}
	if len(paddings) > 0 {
		// The number of elements in the window varies on the edges.
		return ReduceWindow(pool.x, ReduceOpMean, windowDimensions, strides, paddings)
	}
	pooled := ReduceWindow(pool.x, ReduceOpSum, windowDimensions, strides, paddings)
	return DivScalar(pooled, float64(xslices.Product(pool.windowSizes)))
}

// nodeInputsReduceWindow holds the static parameters of a ReduceWindow node.
type nodeInputsReduceWindow struct {
	x                         *Node
	reductionType             ReduceOpType
	windowDimensions, strides []int
	paddings                  [][2]int
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsReduceWindow) Type() NodeType { return NodeTypeReduceWindow }

// String implements the interface NodeInputs.
func (ni *nodeInputsReduceWindow) String() string {
	return fmt.Sprintf("%s(x=[#%d], reduce=%s, window=%v, strides=%v, paddings=%v)",
		ni.Type(), ni.x.Id(), ni.reductionType, ni.windowDimensions, ni.strides, ni.paddings)
}

// ReduceWindow reduces x over sliding windows. windowDimensions, strides and paddings have
// one value per axis of x (including batch and channels), or are nil.
//
// It panics with a descriptive error if the window doesn't fit x.
func ReduceWindow(x *Node, reductionType ReduceOpType, windowDimensions, strides []int, paddings [][2]int) *Node {
	g := validateBuildingGraphFromInputs(x)
	if !reductionType.IsAReduceOpType() || reductionType == ReduceOpUndefined {
		Panicf("invalid reduction type %s for ReduceWindow", reductionType)
	}
	outputShape, err := shapeinference.ReduceWindowOp(x.Shape(), windowDimensions, strides, paddings)
	if err != nil {
		panic(err)
	}
	inputs := &nodeInputsReduceWindow{
		x:                x,
		reductionType:    reductionType,
		windowDimensions: windowDimensions,
		strides:          strides,
		paddings:         paddings,
	}
	return newNode(g, inputs, outputShape, x)
}
