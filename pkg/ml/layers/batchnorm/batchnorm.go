/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package batchnorm implements the inference form of a batch normalization layer.
//
// See details and examples in New.
//
// Based on paper "Batch Normalization: Accelerating Deep Network Training by Reducing
// Internal Covariate Shift" (Sergey Ioffe, Christian Szegedy), https://arxiv.org/abs/1502.03167.
package batchnorm

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
)

// Config for a batch normalization layer.
// Create it with New, set the desired parameters, and when all is set, call Done.
type Config struct {
	ctx         *context.Context
	x           *Node
	featureAxis int
	epsilon     float64
	newScope    bool
	trainable   bool
}

const (
	// BatchNormalizationScopeName is used as sub-scope for all batch normalization variables.
	BatchNormalizationScopeName = "batch_normalization"

	// ParamEpsilon is the context parameter that sets the default epsilon. It defaults to 1e-3.
	ParamEpsilon = "batch_normalization_epsilon"
)

// New creates a builder for a batch normalization layer on the input, in its inference form:
// x is normalized with the stored mean and variance of the features, and then scaled and shifted.
//
// featureAxis is the axis over which **not to normalize**: each feature (usually a channel) has its own
// mean, variance, scale and offset. For an image shaped `[batch_size, height, width, channels]` use
// featureAxis=-1, and for `[batch_size, channels, height, width]` use featureAxis=1.
//
// It declares 4 variables shaped `[featureDim]` in the sub-scope BatchNormalizationScopeName: "scale"
// (γ), "offset" (β), "mean" and "variance". The last two are never trainable.
//
// To ease setting its parameters, it returns a Config object for configuration. Once it is
// set up call `Config.Done` and it will return the normalized x.
func New(ctx *context.Context, x *Node, featureAxis int) *Config {
	return &Config{
		ctx:         ctx,
		x:           x,
		featureAxis: featureAxis,
		epsilon:     context.GetParamOr(ctx, ParamEpsilon, 1e-3),
		newScope:    true,
		trainable:   true,
	}
}

// Epsilon is a small float added to variance to avoid dividing by zero.
// It defaults to 1e-3, or the value of ParamEpsilon in the context.
//
// Notice Keras default is 1e-3 (the one we use), but PyTorch's default of 1e-05.
func (builder *Config) Epsilon(value float64) *Config {
	builder.epsilon = value
	return builder
}

// CurrentScope configures New not to create a new sub-scope named BatchNormalizationScopeName for its variables.
func (builder *Config) CurrentScope() *Config {
	builder.newScope = false
	return builder
}

// Trainable defines whether the scale and offset variables are marked as trainable.
// The default is `true`.
func (builder *Config) Trainable(trainable bool) *Config {
	builder.trainable = trainable
	return builder
}

// Done finishes configuring the batch normalization and generates the graph computation to normalize the input.
func (builder *Config) Done() *Node {
	x := builder.x
	g := x.Graph()
	if builder.epsilon <= 0 {
		Panicf("batch normalization epsilon must be > 0, got %g", builder.epsilon)
	}

	// Creates new scope for variables.
	ctx := builder.ctx
	if builder.newScope {
		ctx = ctx.In(BatchNormalizationScopeName)
	}

	featureAxis := builder.featureAxis
	if featureAxis < 0 {
		featureAxis += x.Rank()
	}
	if featureAxis < 0 || featureAxis >= x.Rank() {
		Panicf("batch normalization featureAxis %d is out-of-bounds for x shaped %s", builder.featureAxis, x.Shape())
	}
	featureDim := x.Shape().Dimensions[featureAxis]
	varShape := shapes.Make(x.DType(), featureDim)

	scaleVar := ctx.VariableWithShape("scale", varShape)
	scaleVar.Trainable = builder.trainable
	offsetVar := ctx.VariableWithShape("offset", varShape)
	offsetVar.Trainable = builder.trainable

	// Moving averages of the mean and variance, collected during training.
	meanVar := ctx.VariableWithShape("mean", varShape)
	meanVar.Trainable = false
	varianceVar := ctx.VariableWithShape("variance", varShape)
	varianceVar.Trainable = false

	return BatchNormInference(x,
		scaleVar.ValueGraph(g), offsetVar.ValueGraph(g),
		meanVar.ValueGraph(g), varianceVar.ValueGraph(g),
		float32(builder.epsilon), featureAxis)
}
