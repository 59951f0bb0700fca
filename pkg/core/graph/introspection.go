// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	. "github.com/gomlx/exceptions"
)

// This file defines methods that allow for introspection of the graph.
//
// The API is limited, to leave flexibility to change the implementation without breaking
// compatibility.

// MultiplyAdds returns an estimate of the number of multiply-add operations needed to compute
// the node, given its inputs.
//
// Only the ops that dominate the cost of a convolutional network are counted: Convolve, with
// one multiply-add per output element per kernel element connected to it, and BatchNormInference,
// with one per output element. All other ops return 0.
func (n *Node) MultiplyAdds() int64 {
	switch n.Type() {
	case NodeTypeConvolve:
		params := n.inputs.(*nodeInputsConvolve)
		kernelShape := params.kernel.Shape()
		connectionsPerOutput := int64(kernelShape.Size() / kernelShape.Dim(params.axes.KernelOutputChannels))
		return int64(n.shape.Size()) * connectionsPerOutput
	case NodeTypeBatchNormInference:
		return int64(n.shape.Size())
	default:
		return 0
	}
}

// MultiplyAdds returns the sum of Node.MultiplyAdds for the nodes with ids in the range [from, to).
func (g *Graph) MultiplyAdds(from, to NodeId) (total int64) {
	from = min(max(from, 0), NodeId(len(g.nodes)))
	to = min(to, NodeId(len(g.nodes)))
	for _, node := range g.nodes[from:max(from, to)] {
		total += node.MultiplyAdds()
	}
	return
}

// NodeTypes returns the types of the nodes with ids in the range [from, to), in order.
func (g *Graph) NodeTypes(from, to NodeId) []NodeType {
	from = min(max(from, 0), NodeId(len(g.nodes)))
	to = min(to, NodeId(len(g.nodes)))
	types := make([]NodeType, 0, max(to-from, 0))
	for _, node := range g.nodes[from:max(from, to)] {
		types = append(types, node.Type())
	}
	return types
}

// CountNodeTypes returns how many nodes of each type there are in the graph.
func (g *Graph) CountNodeTypes() map[NodeType]int {
	counts := make(map[NodeType]int)
	for _, node := range g.nodes {
		counts[node.Type()]++
	}
	return counts
}

// VariableNodes returns the Variable nodes used in the graph, in order of creation.
func (g *Graph) VariableNodes() []*Node {
	var nodes []*Node
	for _, node := range g.nodes {
		if node.Type() == NodeTypeVariable {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// ConvolveParams returns the strides and paddings (one per spatial axis, nil if not set) of a
// Convolve node. It panics if the node is not a Convolve.
func (n *Node) ConvolveParams() (strides []int, paddings [][2]int) {
	n.AssertValid()
	if n.Type() != NodeTypeConvolve {
		Panicf("ConvolveParams() called on a %s node", n.Type())
	}
	params := n.inputs.(*nodeInputsConvolve)
	return slices.Clone(params.strides), slices.Clone(params.paddings)
}

// ReduceWindowParams returns the reduction type, window dimensions and strides (one per axis)
// of a ReduceWindow node. It panics if the node is not a ReduceWindow.
func (n *Node) ReduceWindowParams() (reductionType ReduceOpType, windowDimensions, strides []int) {
	n.AssertValid()
	if n.Type() != NodeTypeReduceWindow {
		Panicf("ReduceWindowParams() called on a %s node", n.Type())
	}
	params := n.inputs.(*nodeInputsReduceWindow)
	return params.reductionType, slices.Clone(params.windowDimensions), slices.Clone(params.strides)
}

// ScalarValue returns the constant of a MulScalar or DivScalar node. It panics for other node types.
func (n *Node) ScalarValue() float64 {
	n.AssertValid()
	params, ok := n.inputs.(*nodeInputsScalarOp)
	if !ok {
		Panicf("ScalarValue() called on a %s node", n.Type())
	}
	return params.scalar
}
