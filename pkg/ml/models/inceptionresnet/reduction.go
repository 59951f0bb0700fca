// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
)

// ReductionA builds the 35x35 to 17x17 reduction block (figure 7 of the paper), shared by all variants
// with different widths: k, l, m and n (see table 1 of the paper).
//
// The branches 1x1 (k) -> 3x3 (l) -> 3x3/2 (m) | 3x3/2 (n) | max-pool 3x3/2 are concatenated, so it
// outputs m + n + C_in channels.
//
// The padding of the stride-2 operations is configured with ParamReductionPadding.
func ReductionA(ctx *context.Context, x *Node, k, l, m, n int) *Node {
	b := newBlockBuilder(ctx, x, "ReductionA")
	for name, value := range map[string]int{"k": k, "l": l, "m": m, "n": n} {
		if value <= 0 {
			Panicf("ReductionA width %s must be > 0, got %d", name, value)
		}
	}
	padSame := reductionPadSame(ctx)

	branch3x3Dbl := b.conv(x, k, 1, 1)
	branch3x3Dbl = b.conv(branch3x3Dbl, l, 3, 3)
	branch3x3Dbl = b.convStrided(branch3x3Dbl, m, 3, 3, 2, padSame)

	branch3x3 := b.convStrided(x, n, 3, 3, 2, padSame)

	branchPool := b.maxPool(x, 2, padSame)
	return b.concat(branch3x3Dbl, branch3x3, branchPool)
}

// ReductionB builds the 17x17 to 8x8 reduction block of Inception-v4 (figure 8 of the paper).
//
// The branches 1x1 -> 1x7 -> 7x1 -> 3x3/2 | 1x1 -> 3x3/2 | max-pool 3x3/2 are concatenated,
// so it outputs 512 + C_in channels.
//
// The padding of the stride-2 operations is configured with ParamReductionPadding.
func ReductionB(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "ReductionB")
	padSame := reductionPadSame(ctx)

	branch7x7 := b.conv(x, 256, 1, 1)
	branch7x7 = b.conv(branch7x7, 256, 1, 7)
	branch7x7 = b.conv(branch7x7, 320, 7, 1)
	branch7x7 = b.convStrided(branch7x7, 320, 3, 3, 2, padSame)

	branch3x3 := b.conv(x, 192, 1, 1)
	branch3x3 = b.convStrided(branch3x3, 192, 3, 3, 2, padSame)

	branchPool := b.maxPool(x, 2, padSame)
	return b.concat(branch7x7, branch3x3, branchPool)
}

// ReductionResNetB builds the 17x17 to 8x8 reduction block of Inception-ResNet-v1 (figure 12 of the paper).
//
// The branches 1x1 -> 3x3 -> 3x3/2 | 1x1 -> 3x3/2 (256) | 1x1 -> 3x3/2 (384) | max-pool 3x3/2 are
// concatenated, so it outputs 896 + C_in channels.
//
// The padding of the stride-2 operations is configured with ParamReductionPadding.
func ReductionResNetB(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "ReductionResNetB")
	padSame := reductionPadSame(ctx)

	branch3x3Dbl := b.conv(x, 256, 1, 1)
	branch3x3Dbl = b.conv(branch3x3Dbl, 256, 3, 3)
	branch3x3Dbl = b.convStrided(branch3x3Dbl, 256, 3, 3, 2, padSame)

	branch3x3 := b.conv(x, 256, 1, 1)
	branch3x3 = b.convStrided(branch3x3, 256, 3, 3, 2, padSame)

	branch3x3Wide := b.conv(x, 256, 1, 1)
	branch3x3Wide = b.convStrided(branch3x3Wide, 384, 3, 3, 2, padSame)

	branchPool := b.maxPool(x, 2, padSame)
	return b.concat(branch3x3Dbl, branch3x3, branch3x3Wide, branchPool)
}

// ReductionResNetV2B builds the 17x17 to 8x8 reduction block of Inception-ResNet-v2 (figure 18 of the paper).
//
// The branches 1x1 -> 3x3 (288) -> 3x3/2 (320) | 1x1 -> 3x3/2 (288) | 1x1 -> 3x3/2 (384) | max-pool 3x3/2
// are concatenated, so it outputs 992 + C_in channels.
//
// The padding of the stride-2 operations is configured with ParamReductionPadding.
func ReductionResNetV2B(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "ReductionResNetV2B")
	padSame := reductionPadSame(ctx)

	branch3x3Dbl := b.conv(x, 256, 1, 1)
	branch3x3Dbl = b.conv(branch3x3Dbl, 288, 3, 3)
	branch3x3Dbl = b.convStrided(branch3x3Dbl, 320, 3, 3, 2, padSame)

	branch3x3 := b.conv(x, 256, 1, 1)
	branch3x3 = b.convStrided(branch3x3, 288, 3, 3, 2, padSame)

	branch3x3Wide := b.conv(x, 256, 1, 1)
	branch3x3Wide = b.convStrided(branch3x3Wide, 384, 3, 3, 2, padSame)

	branchPool := b.maxPool(x, 2, padSame)
	return b.concat(branch3x3Dbl, branch3x3, branch3x3Wide, branchPool)
}
