// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
)

// StemV4 builds the stem of Inception-v4 and Inception-ResNet-v2 (figure 3 of the paper).
// It ends with two merges of parallel branches, each a stride-2 max-pool against a stride-2
// convolution.
//
// On a 299x299x3 image it outputs 35x35x384. Images smaller than 27x27 fail at construction time.
//
// Variables are created in the scope of ctx: use a distinct scope for each call.
func StemV4(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "StemV4")
	x = b.convValid(x, 32, 3, 3, 2)
	x = b.convValid(x, 32, 3, 3, 1)
	x = b.conv(x, 64, 3, 3)

	// 73x73x160
	branchPool := b.maxPool(x, 2, false)
	branchConv := b.convValid(x, 96, 3, 3, 2)
	x = b.concat(branchPool, branchConv)

	// 71x71x192
	branch3x3 := b.conv(x, 64, 1, 1)
	branch3x3 = b.convValid(branch3x3, 96, 3, 3, 1)
	branch7x7 := b.conv(x, 64, 1, 1)
	branch7x7 = b.conv(branch7x7, 64, 7, 1)
	branch7x7 = b.conv(branch7x7, 64, 1, 7)
	branch7x7 = b.convValid(branch7x7, 96, 3, 3, 1)
	x = b.concat(branch3x3, branch7x7)

	// 35x35x384
	branchConv = b.convValid(x, 192, 3, 3, 2)
	branchPool = b.maxPool(x, 2, false)
	return b.concat(branchConv, branchPool)
}

// StemResNet builds the stem of Inception-ResNet-v1 (figure 14 of the paper): a plain sequence of
// convolutions with one max-pool.
//
// On a 299x299x3 image it outputs 35x35x256. Images smaller than 27x27 fail at construction time.
//
// Variables are created in the scope of ctx: use a distinct scope for each call.
func StemResNet(ctx *context.Context, x *Node) *Node {
	b := newBlockBuilder(ctx, x, "StemResNet")
	x = b.convValid(x, 32, 3, 3, 2)
	x = b.convValid(x, 32, 3, 3, 1)
	x = b.conv(x, 64, 3, 3)
	x = b.maxPool(x, 2, false)
	x = b.conv(x, 80, 1, 1)
	x = b.convValid(x, 192, 3, 3, 1)
	return b.convValid(x, 256, 3, 3, 2)
}
