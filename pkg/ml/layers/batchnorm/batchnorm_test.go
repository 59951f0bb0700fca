// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package batchnorm_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/batchnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchNorm(t *testing.T) {
	ctx := context.New()
	g := NewGraph(t.Name())
	x := Parameter(g, "x", shapes.Make(dtypes.Float32, 2, 35, 35, 64))
	normalized := batchnorm.New(ctx.In("block"), x, -1).Done()
	require.NoError(t, normalized.Shape().Check(dtypes.Float32, 2, 35, 35, 64))
	assert.Equal(t, NodeTypeBatchNormInference, normalized.Type())
	assert.Equal(t, int64(2*35*35*64), normalized.MultiplyAdds())

	var names []string
	var trainable int
	ctx.EnumerateVariables(func(v *context.Variable) {
		names = append(names, v.ScopeAndName())
		require.NoError(t, v.Shape().Check(dtypes.Float32, 64))
		if v.Trainable {
			trainable++
		}
	})
	assert.Equal(t, []string{
		"/block/batch_normalization/scale",
		"/block/batch_normalization/offset",
		"/block/batch_normalization/mean",
		"/block/batch_normalization/variance",
	}, names)
	assert.Equal(t, 2, trainable)
	assert.Equal(t, 4*64, ctx.NumParameters("/block"))

	// Channels-first.
	ctx = context.New()
	x = Parameter(g, "x_channels_first", shapes.Make(dtypes.Float32, 2, 32, 8, 8))
	normalized = batchnorm.New(ctx, x, 1).CurrentScope().Trainable(false).Done()
	require.NoError(t, normalized.Shape().CheckDims(2, 32, 8, 8))
	require.NotNil(t, ctx.GetVariable("scale"))
	assert.False(t, ctx.GetVariable("scale").Trainable)

	// Errors.
	require.Error(t, TryBuild(func() { batchnorm.New(context.New(), x, 4).Done() }))
	require.Error(t, TryBuild(func() { batchnorm.New(context.New(), x, 1).Epsilon(0).Done() }))
}
