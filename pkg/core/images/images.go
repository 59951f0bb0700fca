// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package images holds the layout conventions of image tensors: where the channels axis is,
// and which axes are spatial.
package images

import (
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
	"k8s.io/klog/v2"
)

// ChannelsAxisConfig indicates if a tensor with an image has the channel axis
// coming last (last axis) or first (first axis after batch axis).
type ChannelsAxisConfig uint8

//go:generate go tool enumer -type=ChannelsAxisConfig images.go

const (
	ChannelsFirst ChannelsAxisConfig = iota
	ChannelsLast
)

// GetChannelsAxis from a given image tensor and configuration. It assumes the
// leading axis is for the batch dimension. So it either returns 1 or
// `image.Rank()-1`.
func GetChannelsAxis(image shapes.HasShape, config ChannelsAxisConfig) int {
	switch config {
	case ChannelsFirst:
		return 1
	case ChannelsLast:
		return image.Shape().Rank() - 1
	default:
		klog.Errorf("GetChannelsAxis(image, %s): invalid ChannelsAxisConfig!?", config)
		return -1
	}
}

// GetSpatialAxes from a given image tensor and configuration. It assumes the
// leading axis is for the batch dimension.
//
// Example: if image has shape `[batch_dim, height, width, channels]`, it will
// return `[]int{1, 2}`.
func GetSpatialAxes(image shapes.HasShape, config ChannelsAxisConfig) (spatialAxes []int) {
	numSpatialDims := image.Shape().Rank() - 2
	if numSpatialDims <= 0 {
		return
	}
	switch config {
	case ChannelsFirst:
		spatialAxes = xslices.Iota(2, numSpatialDims)
	case ChannelsLast:
		spatialAxes = xslices.Iota(1, numSpatialDims)
	default:
		klog.Errorf("GetSpatialAxes(image, %v): invalid ChannelsAxisConfig!?", config)
	}
	return
}

// GetSpatialDims returns the dimensions of the spatial axes of image.
func GetSpatialDims(image shapes.HasShape, config ChannelsAxisConfig) []int {
	shape := image.Shape()
	return xslices.Map(GetSpatialAxes(image, config), func(axis int) int { return shape.Dimensions[axis] })
}

// MakeShape creates the shape of a batch of images for the given layout.
func MakeShape(config ChannelsAxisConfig, base shapes.Shape, batchSize, channels int, spatial ...int) shapes.Shape {
	dims := make([]int, 0, len(spatial)+2)
	dims = append(dims, batchSize)
	if config == ChannelsFirst {
		dims = append(dims, channels)
		dims = append(dims, spatial...)
	} else {
		dims = append(dims, spatial...)
		dims = append(dims, channels)
	}
	return shapes.Make(base.DType, dims...)
}
