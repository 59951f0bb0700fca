// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
)

// InceptionA builds the Inception-A block (figure 4 of the paper), used on the 35x35 grid.
//
// Four branches are concatenated: 1x1 -> 3x3 -> 3x3 | 1x1 -> 3x3 | 1x1 | avg-pool -> 1x1.
// With the default widths it outputs 384 channels for any input depth, with the same spatial dimensions.
func InceptionA(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "InceptionA")
	reduce := width(ctx, ParamInceptionAReduceChannels)
	channels3x3 := width(ctx, ParamInceptionA3x3Channels)

	branch3x3Dbl := b.conv(x, reduce, 1, 1)
	branch3x3Dbl = b.conv(branch3x3Dbl, channels3x3, 3, 3)
	branch3x3Dbl = b.conv(branch3x3Dbl, channels3x3, 3, 3)

	branch3x3 := b.conv(x, reduce, 1, 1)
	branch3x3 = b.conv(branch3x3, channels3x3, 3, 3)

	branch1x1 := b.conv(x, width(ctx, ParamInceptionA1x1Channels), 1, 1)

	branchPool := b.avgPool(x)
	branchPool = b.conv(branchPool, width(ctx, ParamInceptionAPoolChannels), 1, 1)
	return b.concat(branch3x3Dbl, branch3x3, branch1x1, branchPool)
}

// InceptionB builds the Inception-B block (figure 5 of the paper), used on the 17x17 grid.
// The 7x7 convolutions are factorized into 1x7 and 7x1 pairs.
//
// Four branches are concatenated: 1x1 -> 1x7 -> 7x1 -> 1x7 -> 7x1 | 1x1 -> 1x7 -> 7x1 | 1x1 | avg-pool -> 1x1.
// With the default widths it outputs 1024 channels for any input depth, with the same spatial dimensions.
func InceptionB(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "InceptionB")
	reduce := width(ctx, ParamInceptionBReduceChannels)
	mid := width(ctx, ParamInceptionBMidChannels)
	out := width(ctx, ParamInceptionBOutChannels)

	branch7x7Dbl := b.conv(x, reduce, 1, 1)
	branch7x7Dbl = b.conv(branch7x7Dbl, reduce, 1, 7)
	branch7x7Dbl = b.conv(branch7x7Dbl, mid, 7, 1)
	branch7x7Dbl = b.conv(branch7x7Dbl, mid, 1, 7)
	branch7x7Dbl = b.conv(branch7x7Dbl, out, 7, 1)

	branch7x7 := b.conv(x, reduce, 1, 1)
	branch7x7 = b.conv(branch7x7, mid, 1, 7)
	branch7x7 = b.conv(branch7x7, out, 7, 1)

	branch1x1 := b.conv(x, width(ctx, ParamInceptionB1x1Channels), 1, 1)

	branchPool := b.avgPool(x)
	branchPool = b.conv(branchPool, width(ctx, ParamInceptionBPoolChannels), 1, 1)
	return b.concat(branch7x7Dbl, branch7x7, branch1x1, branchPool)
}

// InceptionC builds the Inception-C block (figure 6 of the paper), used on the 8x8 grid.
// The first two branches split at the end into parallel 1x3 and 3x1 convolutions.
//
// The branches concatenated are: 1x1 -> 1x3 -> 3x1 -> {1x3, 3x1} | 1x1 -> {3x1, 1x3} | 1x1 | avg-pool -> 1x1.
// With the default widths it outputs 1536 channels for any input depth, with the same spatial dimensions.
func InceptionC(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "InceptionC")
	reduce := width(ctx, ParamInceptionCReduceChannels)
	split := width(ctx, ParamInceptionCSplitChannels)

	branch3x3Dbl := b.conv(x, reduce, 1, 1)
	branch3x3Dbl = b.conv(branch3x3Dbl, width(ctx, ParamInceptionC1x3Channels), 1, 3)
	branch3x3Dbl = b.conv(branch3x3Dbl, width(ctx, ParamInceptionC3x1Channels), 3, 1)
	branch3x3DblSplit1x3 := b.conv(branch3x3Dbl, split, 1, 3)
	branch3x3DblSplit3x1 := b.conv(branch3x3Dbl, split, 3, 1)

	branch3x3 := b.conv(x, reduce, 1, 1)
	branch3x3Split3x1 := b.conv(branch3x3, split, 3, 1)
	branch3x3Split1x3 := b.conv(branch3x3, split, 1, 3)

	branch1x1 := b.conv(x, width(ctx, ParamInceptionC1x1Channels), 1, 1)

	branchPool := b.avgPool(x)
	branchPool = b.conv(branchPool, width(ctx, ParamInceptionCPoolChannels), 1, 1)
	return b.concat(branch3x3DblSplit1x3, branch3x3DblSplit3x1, branch3x3Split3x1, branch3x3Split1x3,
		branch1x1, branchPool)
}
