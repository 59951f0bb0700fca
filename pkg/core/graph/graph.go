// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph is used to describe computation graphs: nodes with a static shape connected by
// the operations that produce them.
//
// The main elements in the package are:
//
//   - Graph: an append-only list of nodes. Create it with NewGraph and add nodes by calling the ops.
//   - Node: represents the result of an operation ("op" for short). E.g: Convolve, MaxPool, Concatenate,
//     Add, Relu, etc. Each node has a fixed shape that is known in "graph building time".
//
// No numerical computation happens here: building a graph only validates and propagates shapes. This is
// enough to check that a model's topology is consistent, count its parameters and estimate its cost.
//
// ## Error Handling
//
// Ops validate their inputs when they are called, and panic (with github.com/gomlx/exceptions) with a
// descriptive error on mismatched shapes. This way the user doesn't need to check for errors at every
// op, which severely impacts readability. Use TryBuild to convert such panics to an error at the
// boundary of the API.
package graph

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Graph with the operations and dependencies of a computation.
//
// Nodes are only appended, and get sequential ids in creation order.
type Graph struct {
	name  string
	nodes []*Node

	parameters    []*Node
	parameterByName map[string]*Node

	// variables maps the scoped name of a variable to its node in this graph.
	variables map[string]*Node
}

// NodeId is a unique NodeId within a Graph.
type NodeId int

// InvalidNodeId is returned for nil nodes.
const InvalidNodeId = NodeId(-1)

// NewGraph creates an empty graph with the given name.
func NewGraph(name string) *Graph {
	return &Graph{
		name:            name,
		parameterByName: make(map[string]*Node),
		variables:       make(map[string]*Node),
	}
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// AssertValid panics if graph is nil.
func (g *Graph) AssertValid() {
	if g == nil {
		exceptions.Panicf("the Graph is nil")
	}
}

// Nodes returns all the nodes of the graph, in order of creation.
// The returned slice shouldn't be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NumNodes returns the number of nodes created so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NextNodeId returns the id the next node added to the graph will get.
func (g *Graph) NextNodeId() NodeId { return NodeId(len(g.nodes)) }

// Parameters returns the parameter nodes (graph inputs), in order of creation.
func (g *Graph) Parameters() []*Node { return g.parameters }

// NumParameters returns the number of parameter nodes.
func (g *Graph) NumParameters() int { return len(g.parameters) }

// NumVariables returns the number of variable nodes used in this graph.
func (g *Graph) NumVariables() int { return len(g.variables) }

// String converts the Graph to a multiline string, with one line per node.
func (g *Graph) String() string {
	if g == nil {
		return "Graph(nil)"
	}
	parts := make([]string, 0, len(g.nodes)+1)
	parts = append(parts, fmt.Sprintf("Graph %q: %d nodes", g.name, len(g.nodes)))
	for _, node := range g.nodes {
		parts = append(parts, fmt.Sprintf("\t#%d %s", node.id, node))
	}
	return strings.Join(parts, "\n")
}

// registerNode appends the node to the graph and sets its id.
func (g *Graph) registerNode(node *Node) {
	node.graph = g
	node.id = NodeId(len(g.nodes))
	g.nodes = append(g.nodes, node)
}

// validateBuildingGraphFromInputs checks that all inputs are valid and belong to the same graph,
// and returns the graph.
func validateBuildingGraphFromInputs(inputs ...*Node) (g *Graph) {
	if len(inputs) == 0 {
		exceptions.Panicf("no input nodes given")
	}
	for ii, n := range inputs {
		if n == nil || n.graph == nil {
			exceptions.Panicf("input node #%d is nil or invalid", ii)
		}
		if g == nil {
			g = n.graph
		} else if n.graph != g {
			exceptions.Panicf("combining nodes from different graphs not allowed: input node #%d is from graph %q, while previous inputs are from graph %q",
				ii, n.graph.name, g.name)
		}
	}
	return
}

// TryBuild runs fn, usually a function building a graph, and returns any exception raised while
// building it as an error.
//
// Ops panic on invalid inputs, TryBuild is the boundary where those panics become errors.
func TryBuild(fn func()) error {
	return exceptions.TryCatch[error](fn)
}
