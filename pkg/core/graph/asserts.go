// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// This file implements various asserts (checks) that can be done on the Node.
// They are derived from the asserts in the shapes package.

// AssertDims checks whether the shape has the given dimensions and rank.
// A value of -1 in dimensions means it can take any value and is not checked.
//
// If the shape is not what was expected, it panics with an error message.
//
// It serves as documentation when building a block: the reader can corroborate the expected
// shape of a branch before it is merged.
//
// Example:
//
//	branch := Concatenate(branches, -1)
//	branch.AssertDims(batchSize, 35, 35, 384)
func (n *Node) AssertDims(dimensions ...int) {
	n.AssertValid()
	err := n.shape.CheckDims(dimensions...)
	if err != nil {
		panic(errors.WithMessagef(err, "AssertDims(%v) on node #%d (%s)", dimensions, n.id, n.Type()))
	}
}

// AssertRank checks whether the shape has the given rank.
//
// If the rank is not what was expected, it panics with an error message.
func (n *Node) AssertRank(rank int) {
	n.AssertValid()
	err := n.shape.CheckRank(rank)
	if err != nil {
		panic(errors.WithMessagef(err, "AssertRank(%d) on node #%d (%s)", rank, n.id, n.Type()))
	}
}

// AssertSameShape panics if the nodes don't all have the same shape (dtype and dimensions).
// The message identifies where it happened, usually the name of the merge being built.
func AssertSameShape(message string, nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}
	nodes[0].AssertValid()
	for _, node := range nodes[1:] {
		node.AssertValid()
		if !nodes[0].shape.Equal(node.shape) {
			exceptions.Panicf("%s: node #%d has shape %s, but node #%d has shape %s, they must be the same",
				message, nodes[0].id, nodes[0].shape, node.id, node.shape)
		}
	}
}
