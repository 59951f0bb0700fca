// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/batchnorm"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
)

var (
	// KnownNormalizers is a map of normalizer string to a function that applies them
	// with the default values over the given feature axis.
	//
	// It includes "none", which is a no-op.
	//
	// Notice that some normalizers use variables, and they need to be unique
	// in their scope (`Context.In(scope)`).
	KnownNormalizers = map[string]func(ctx *context.Context, input *Node, featureAxis int) *Node{
		"batch": func(ctx *context.Context, input *Node, featureAxis int) *Node {
			return batchnorm.New(ctx, input, featureAxis).Done()
		},
		"none": func(ctx *context.Context, input *Node, featureAxis int) *Node {
			return input
		},
	}

	// ParamNormalization context hyperparameter defines the type of normalization to use
	// after each convolution of a block, before its activation.
	//
	// Valid values are "batch" for batchnorm.New or "none".
	//
	// The default is "none".
	ParamNormalization = "normalization"
)

// NormalizeByName applies the requested normalization over the featureAxis using default parameters.
// If an invalid normalization is given, it panics with an error.
func NormalizeByName(ctx *context.Context, normalization string, input *Node, featureAxis int) *Node {
	normFn, found := KnownNormalizers[normalization]
	if !found {
		Panicf("unsupported normalization %q given, valid values are %q",
			normalization, xslices.SortedKeys(KnownNormalizers))
	}
	return normFn(ctx, input, featureAxis)
}

// MaybeNormalize applies a normalization (or none) according to the hyperparameter
// ParamNormalization configured in the context.
//
// featureAxis is the channels axis for images: -1 for channels-last and 1 for channels-first.
func MaybeNormalize(ctx *context.Context, input *Node, featureAxis int) *Node {
	normType := context.GetParamOr(ctx, ParamNormalization, "none")
	if normType == "" {
		return input
	}
	return NormalizeByName(ctx, normType, input, featureAxis)
}
