// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
)

// Node is the result of an operation in a Graph. Its shape is fixed and known at graph building time.
type Node struct {
	graph *Graph
	shape shapes.Shape
	id    NodeId // id within graph.

	// inputNodes are the edges of the computation graph.
	inputNodes []*Node

	// inputs hold the op type and the static parameters of the operation.
	inputs NodeInputs
}

// NodeInputs represents the inputs to node. The common interface is to return the type of the node.
// For the static parameters themselves, the pointer needs to be cast to the corresponding type, named
// nodeInputs<op_name>.
type NodeInputs interface {
	Type() NodeType

	// String prints a descriptive representation of the node, using its parameters.
	String() string
}

// newNode creates a node of the given shape and registers it in the graph.
func newNode(g *Graph, inputs NodeInputs, shape shapes.Shape, inputNodes ...*Node) *Node {
	node := &Node{
		shape:      shape,
		inputNodes: inputNodes,
		inputs:     inputs,
	}
	g.registerNode(node)
	return node
}

// Type identify the operation performed by the node.
func (n *Node) Type() NodeType {
	if n == nil || n.inputs == nil {
		return NodeTypeInvalid
	}
	return n.inputs.Type()
}

// Graph that holds this Node.
func (n *Node) Graph() *Graph {
	if n == nil {
		return nil
	}
	return n.graph
}

// Shape of the Node's output.
func (n *Node) Shape() shapes.Shape {
	if n == nil {
		return shapes.Shape{}
	}
	return n.shape
}

// DType returns the DType of the node's shape.
func (n *Node) DType() dtypes.DType {
	return n.shape.DType
}

// Rank returns the rank of the node's shape.
func (n *Node) Rank() int {
	return n.shape.Rank()
}

// IsScalar returns whether the node's shape is a scalar.
func (n *Node) IsScalar() bool {
	return n.shape.IsScalar()
}

// Id is the unique id of this node within the Graph.
func (n *Node) Id() NodeId {
	if n == nil {
		return InvalidNodeId
	}
	return n.id
}

// Inputs are the other nodes that are direct inputs to the node.
// This doesn't include static parameters of the operations.
func (n *Node) Inputs() []*Node { return n.inputNodes }

// AssertValid panics if `n` is nil, or if its graph is invalid.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.inputs == nil {
		exceptions.Panicf("Node in an invalid state")
	}
	n.graph.AssertValid()
}

// String implements the `fmt.Stringer` interface.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	if n.inputs == nil {
		return "Invalid(?)"
	}
	return fmt.Sprintf("%s -> %s", n.inputs.String(), n.shape)
}

// inputsIds is used by the String methods of the NodeInputs implementations.
func inputsIds(nodes []*Node) []NodeId {
	ids := make([]NodeId, len(nodes))
	for ii, node := range nodes {
		ids[ii] = node.Id()
	}
	return ids
}
