// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference calculates the shape resulting from operations and validates its inputs.
//
// Each function takes the shapes of the inputs and the static parameters of the operation, and
// returns the output shape or an error describing why the inputs are not compatible.
//
// The graph package calls these at graph building time, so a mismatch (e.g.: concatenating branches
// with different spatial dimensions) is reported while the model is being defined.
package shapeinference

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/pkg/errors"
)

// ConvolveAxesConfig defines the interpretation of the input, kernel and output axes of a convolution.
type ConvolveAxesConfig struct {
	InputBatch, InputChannels int
	InputSpatial              []int

	KernelInputChannels, KernelOutputChannels int
	KernelSpatial                             []int

	OutputBatch, OutputChannels int
	OutputSpatial               []int
}

// Clone returns a deep copy of the structure.
func (c ConvolveAxesConfig) Clone() ConvolveAxesConfig {
	c2 := c
	c2.InputSpatial = slices.Clone(c.InputSpatial)
	c2.KernelSpatial = slices.Clone(c.KernelSpatial)
	c2.OutputSpatial = slices.Clone(c.OutputSpatial)
	return c2
}

// ChannelsLastAxes returns the axes configuration for a channels-last ("NHWC") input, with kernel
// in the "HWIO" layout, for the given rank.
func ChannelsLastAxes(rank int) ConvolveAxesConfig {
	spatialRank := rank - 2
	c := ConvolveAxesConfig{
		InputBatch:           0,
		InputChannels:        rank - 1,
		KernelInputChannels:  rank - 2,
		KernelOutputChannels: rank - 1,
		OutputBatch:          0,
		OutputChannels:       rank - 1,
	}
	for ii := range spatialRank {
		c.InputSpatial = append(c.InputSpatial, ii+1)
		c.KernelSpatial = append(c.KernelSpatial, ii)
		c.OutputSpatial = append(c.OutputSpatial, ii+1)
	}
	return c
}

// ChannelsFirstAxes returns the axes configuration for a channels-first ("NCHW") input, with the
// kernel in the "IHWO" layout, for the given rank.
func ChannelsFirstAxes(rank int) ConvolveAxesConfig {
	spatialRank := rank - 2
	c := ConvolveAxesConfig{
		InputBatch:           0,
		InputChannels:        1,
		KernelInputChannels:  0,
		KernelOutputChannels: rank - 1,
		OutputBatch:          0,
		OutputChannels:       1,
	}
	for ii := range spatialRank {
		c.InputSpatial = append(c.InputSpatial, ii+2)
		c.KernelSpatial = append(c.KernelSpatial, ii+1)
		c.OutputSpatial = append(c.OutputSpatial, ii+2)
	}
	return c
}

// outputDim of a sliding window over one axis: floor((in + padLo + padHi - effWindow) / stride) + 1.
func outputDim(inputDim, windowDim, stride, dilation int, padding [2]int) (int, bool) {
	effectiveWindowDim := (windowDim-1)*dilation + 1
	paddedInputDim := inputDim + padding[0] + padding[1]
	if effectiveWindowDim > paddedInputDim {
		return 0, false
	}
	return (paddedInputDim-effectiveWindowDim)/stride + 1, true
}

// ConvOp returns the output shape of a convolution.
//
// strides, paddings and dilations can be nil (defaults to 1, no padding and 1 respectively), or have
// one value per spatial axis.
func ConvOp(input, kernel shapes.Shape, axes ConvolveAxesConfig,
	strides []int, paddings [][2]int, dilations []int, channelGroupCount int) (shapes.Shape, error) {
	errorf := func(format string, args ...any) (shapes.Shape, error) {
		return shapes.Invalid(), errors.Errorf("ConvOp: "+format, args...)
	}
	if !input.Ok() {
		return errorf("invalid input (operand) shape %s", input)
	}
	if !kernel.Ok() {
		return errorf("invalid kernel shape %s", kernel)
	}
	if input.DType != kernel.DType {
		return errorf("input dtype %s and kernel dtype %s must match", input.DType, kernel.DType)
	}

	rank := input.Rank()
	spatialRank := rank - 2
	if rank < 3 {
		return errorf("input (operand) needs to be at least rank-3 with axes (in any order) batch, channels and spatial -- input shape is %s", input)
	}
	if kernel.Rank() != rank {
		return errorf("input (operand) and kernel have different rank!? -- input shape is %s and kernel shape is %s", input, kernel)
	}
	if len(axes.InputSpatial) != spatialRank || len(axes.KernelSpatial) != spatialRank || len(axes.OutputSpatial) != spatialRank {
		return errorf("axes configuration (%+v) must provide one value for each spatial axis (%d), input shape is %s",
			axes, spatialRank, input)
	}
	for _, axis := range slices.Concat([]int{axes.InputBatch, axes.InputChannels}, axes.InputSpatial) {
		if axis < 0 || axis >= rank {
			return errorf("invalid input axes configuration (axis %d is out-of-bounds): batch=%d, channel=%d, spatial=%v",
				axis, axes.InputBatch, axes.InputChannels, axes.InputSpatial)
		}
	}
	if len(strides) != 0 && len(strides) != spatialRank {
		return errorf("strides (%v) must either be nil or provide one value for each spatial axis (%d), input shape is %s",
			strides, spatialRank, input)
	}
	if len(paddings) != 0 && len(paddings) != spatialRank {
		return errorf("paddings (%v) must either be nil or provide one value for each spatial axis (%d), input shape is %s",
			paddings, spatialRank, input)
	}
	if len(dilations) != 0 && len(dilations) != spatialRank {
		return errorf("dilations (%v) must either be nil or provide one value for each spatial axis (%d), input shape is %s",
			dilations, spatialRank, input)
	}

	inputChannels := input.Dim(axes.InputChannels)
	outputChannels := kernel.Dim(axes.KernelOutputChannels)
	if channelGroupCount < 1 {
		return errorf("channelGroupCount=%d must be >= 1 for input shape %s", channelGroupCount, input)
	}
	if outputChannels%channelGroupCount != 0 {
		return errorf("kernel output channels dimension %d must be divisible by channelGroupCount %d", outputChannels, channelGroupCount)
	}
	kernelInputChannels := kernel.Dim(axes.KernelInputChannels)
	if inputChannels != kernelInputChannels*channelGroupCount {
		return errorf("we must have inputChannels (=%d) = kernelInputChannels (=%d) * channelGroupCount (=%d) -- input shape is %s, kernel shape is %s",
			inputChannels, kernelInputChannels, channelGroupCount, input, kernel)
	}

	output := input.Clone()
	output.Dimensions[axes.OutputBatch] = input.Dim(axes.InputBatch)
	output.Dimensions[axes.OutputChannels] = outputChannels
	for spatialIdx, inputAxis := range axes.InputSpatial {
		stride, dilation := 1, 1
		var padding [2]int
		if strides != nil {
			stride = strides[spatialIdx]
		}
		if paddings != nil {
			padding = paddings[spatialIdx]
		}
		if dilations != nil {
			dilation = dilations[spatialIdx]
		}
		if stride < 1 || dilation < 1 {
			return errorf("stride (%d) and dilation (%d) for spatial axis #%d must be >= 1, input shape is %s",
				stride, dilation, spatialIdx, input)
		}
		if padding[0] < 0 || padding[1] < 0 {
			return errorf("padding %v for spatial axis #%d must be non-negative", padding, spatialIdx)
		}
		kernelDim := kernel.Dim(axes.KernelSpatial[spatialIdx])
		dim, ok := outputDim(input.Dim(inputAxis), kernelDim, stride, dilation, padding)
		if !ok {
			return errorf("kernel dimension %d (dilation %d) for axis %d is larger than padded input dimension %d+%d+%d, input shape is %s",
				kernelDim, dilation, inputAxis, input.Dim(inputAxis), padding[0], padding[1], input)
		}
		output.Dimensions[axes.OutputSpatial[spatialIdx]] = dim
	}
	return output, nil
}

// ReduceWindowOp returns the output shape of a reduction over sliding windows (max or mean pooling).
//
// windowDimensions, strides and paddings can be empty, or have one value per axis of the operand.
// If strides is empty, it defaults to the window dimensions.
func ReduceWindowOp(operand shapes.Shape, windowDimensions, strides []int, paddings [][2]int) (shapes.Shape, error) {
	if !operand.Ok() {
		return shapes.Invalid(), errors.Errorf("ReduceWindowOp: invalid operand shape %s", operand)
	}
	rank := operand.Rank()
	if len(windowDimensions) != 0 && len(windowDimensions) != rank {
		return shapes.Invalid(), errors.Errorf("ReduceWindowOp: len(windowDimensions)=%d, but operand rank is %d", len(windowDimensions), rank)
	}
	if len(strides) != 0 && len(strides) != rank {
		return shapes.Invalid(), errors.Errorf("ReduceWindowOp: len(strides)=%d, but operand rank is %d", len(strides), rank)
	}
	if len(paddings) != 0 && len(paddings) != rank {
		return shapes.Invalid(), errors.Errorf("ReduceWindowOp: len(paddings)=%d, but operand rank is %d", len(paddings), rank)
	}
	if rank == 0 {
		return operand, nil
	}

	outputDims := make([]int, rank)
	for axis := range rank {
		windowDim := 1
		if len(windowDimensions) > 0 {
			windowDim = windowDimensions[axis]
			if windowDim < 1 {
				return shapes.Invalid(), errors.Errorf("ReduceWindowOp: windowDimensions[%d]=%d must be >= 1 for operand shape %s", axis, windowDim, operand)
			}
		}
		stride := windowDim
		if len(strides) > 0 {
			stride = strides[axis]
			if stride < 1 {
				return shapes.Invalid(), errors.Errorf("ReduceWindowOp: strides[%d]=%d must be >= 1 for operand shape %s", axis, stride, operand)
			}
		}
		var padding [2]int
		if len(paddings) > 0 {
			padding = paddings[axis]
			if padding[0] < 0 || padding[1] < 0 {
				return shapes.Invalid(), errors.Errorf("ReduceWindowOp: paddings[%d]=%v must be non-negative for operand shape %s", axis, padding, operand)
			}
		}
		dim, ok := outputDim(operand.Dimensions[axis], windowDim, stride, 1, padding)
		if !ok {
			return shapes.Invalid(), errors.Errorf(
				"ReduceWindowOp: window dimension %d for axis %d is larger than padded input dimension %d+%d+%d for operand shape %s",
				windowDim, axis, operand.Dimensions[axis], padding[0], padding[1], operand)
		}
		outputDims[axis] = dim
	}
	return shapes.Make(operand.DType, outputDims...), nil
}

// ConcatenateOp calculates the output shape of a Concatenate operation.
// It takes a slice of input shapes and the axis along which to concatenate.
// All other axes must have the same dimensions.
func ConcatenateOp(inputs []shapes.Shape, axis int) (output shapes.Shape, err error) {
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Errorf("ConcatenateOp requires at least one input shape")
	}
	firstShape := inputs[0]
	dtype := firstShape.DType
	rank := firstShape.Rank()
	if dtype == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("invalid shape %s for first input of ConcatenateOp", firstShape)
	}
	if axis < 0 || axis >= rank {
		return shapes.Invalid(), errors.Errorf("invalid concatenation axis %d for shapes with rank %d", axis, rank)
	}
	output = firstShape.Clone()
	for i := 1; i < len(inputs); i++ {
		currentShape := inputs[i]
		if currentShape.DType != dtype {
			return shapes.Invalid(), errors.Errorf("mismatched DTypes for ConcatenateOp: input #0 has %s, input #%d has %s",
				dtype, i, currentShape.DType)
		}
		if currentShape.Rank() != rank {
			return shapes.Invalid(), errors.Errorf("mismatched ranks for ConcatenateOp: input #0 has rank %d, input #%d has rank %d",
				rank, i, currentShape.Rank())
		}
		for d := range rank {
			if d == axis {
				output.Dimensions[d] += currentShape.Dimensions[d]
			} else if currentShape.Dimensions[d] != output.Dimensions[d] {
				return shapes.Invalid(), errors.Errorf("mismatched dimensions for ConcatenateOp at axis %d (non-concatenation axis): input #0 is %s, input #%d is %s",
					d, firstShape, i, currentShape)
			}
		}
	}
	return output, nil
}

// BinaryOp returns the output shape of an element-wise binary operation (Add, Mul).
//
// The dtypes must match. If one of the sides is a scalar the other side's shape is returned,
// otherwise the ranks must match and each axis must either have the same dimension or be 1
// (broadcast).
func BinaryOp(opName string, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !lhsShape.Ok() || !rhsShape.Ok() {
		err = errors.Errorf("invalid shape for %s or %s for BinaryOp %s", lhsShape, rhsShape, opName)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types (DType) for BinaryOp %s must match, got %s and %s", opName, lhsShape, rhsShape)
		return
	}
	if lhsShape.IsScalar() {
		return rhsShape, nil
	}
	if rhsShape.IsScalar() {
		return lhsShape, nil
	}
	if lhsShape.Rank() != rhsShape.Rank() {
		err = errors.Errorf("if operands are not scalars, their rank must match for BinaryOp (%s), got shapes %s and %s",
			opName, lhsShape, rhsShape)
		return
	}
	output = lhsShape.Clone()
	for axis := range output.Rank() {
		lhsDim := lhsShape.Dimensions[axis]
		rhsDim := rhsShape.Dimensions[axis]
		if lhsDim != 1 && rhsDim != 1 && lhsDim != rhsDim {
			err = errors.Errorf("dimension of axis #%d doesn't match and cannot be broadcast for BinaryOp (%s), got shapes %s and %s",
				axis, opName, lhsShape, rhsShape)
			return shapes.Invalid(), err
		}
		output.Dimensions[axis] = max(lhsDim, rhsDim)
	}
	return
}

// ReshapeOp to the given dimensions: trivial output shape, but this function also checks
// that the sizes are the same. At most one dimension can be set to -1, in which case it is
// inferred from the remaining ones.
func ReshapeOp(operand shapes.Shape, dims []int) (output shapes.Shape, err error) {
	dims = slices.Clone(dims)
	inferredAxis := -1
	knownSize := 1
	for axis, dim := range dims {
		switch {
		case dim == -1 && inferredAxis == -1:
			inferredAxis = axis
		case dim <= 0:
			return shapes.Invalid(), errors.Errorf("Reshape() cannot reshape %s to dimensions %v, invalid dimension %d at axis %d",
				operand, dims, dim, axis)
		default:
			knownSize *= dim
		}
	}
	if inferredAxis >= 0 {
		if operand.Size()%knownSize != 0 {
			return shapes.Invalid(), errors.Errorf("Reshape() cannot reshape %s to dimensions %v, size not divisible", operand, dims)
		}
		dims[inferredAxis] = operand.Size() / knownSize
	}
	output = shapes.Make(operand.DType, dims...)
	if operand.Size() != output.Size() {
		return shapes.Invalid(), errors.Errorf("Reshape() cannot reshape %s to dimensions %v, their size don't match",
			operand, dims)
	}
	return
}

// PadSame returns the paddings for a window of the given size and stride such that the output
// dimension is ceil(inputDim / stride), the rule called "SAME" padding.
//
// Extra padding, if odd, goes to the high side.
func PadSame(inputDim, window, stride int) [2]int {
	outDim := (inputDim + stride - 1) / stride
	total := max((outDim-1)*stride+window-inputDim, 0)
	return [2]int{total / 2, total - total/2}
}
