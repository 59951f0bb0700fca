// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/inceptionresnet/pkg/core/shapeinference"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
)

// nodeInputsParameter holds the static parameters of a Parameter node.
type nodeInputsParameter struct {
	name  string
	shape shapes.Shape
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsParameter) Type() NodeType { return NodeTypeParameter }

// String implements the interface NodeInputs.
func (ni *nodeInputsParameter) String() string {
	return fmt.Sprintf("%s(name=%q)", ni.Type(), ni.name)
}

// Parameter registers an input parameter for a computation Graph (e.g: a batch of images).
// The name must be unique within the graph.
func Parameter(g *Graph, name string, shape shapes.Shape) *Node {
	g.AssertValid()
	if !shape.Ok() {
		Panicf("invalid shape %s for parameter %q", shape, name)
	}
	if _, found := g.parameterByName[name]; found {
		Panicf("requested parameter with name %q for graph %q already exists", name, g.name)
	}
	node := newNode(g, &nodeInputsParameter{name: name, shape: shape}, shape)
	g.parameters = append(g.parameters, node)
	g.parameterByName[name] = node
	return node
}

// GetParameterName returns the parameter name.
// If node is not a parameter, it panics.
func (n *Node) GetParameterName() string {
	n.AssertValid()
	if n.Type() != NodeTypeParameter {
		Panicf("trying to get GetParameterName of a non-parameter node %q", n.Type())
	}
	return n.inputs.(*nodeInputsParameter).name
}

// nodeInputsVariable holds the static parameters of a Variable node.
type nodeInputsVariable struct {
	scopedName string
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsVariable) Type() NodeType { return NodeTypeVariable }

// String implements the interface NodeInputs.
func (ni *nodeInputsVariable) String() string {
	return fmt.Sprintf("%s(%s)", ni.Type(), ni.scopedName)
}

// VariableValue returns the node holding the value of the variable identified by scopedName
// (usually its scope joined with its name). The node is created the first time it is requested
// for a graph, and the same node is returned in subsequent calls.
//
// It panics if the variable was already used in the graph with a different shape.
func VariableValue(g *Graph, scopedName string, shape shapes.Shape) *Node {
	g.AssertValid()
	if node, found := g.variables[scopedName]; found {
		if !node.shape.Equal(shape) {
			Panicf("variable %q already used in graph %q with shape %s, cannot use it with shape %s",
				scopedName, g.name, node.shape, shape)
		}
		return node
	}
	if !shape.Ok() {
		Panicf("invalid shape %s for variable %q", shape, scopedName)
	}
	node := newNode(g, &nodeInputsVariable{scopedName: scopedName}, shape)
	g.variables[scopedName] = node
	return node
}

// GetVariableName returns the scoped name of the variable held by the node.
// If node is not a variable, it panics.
func (n *Node) GetVariableName() string {
	n.AssertValid()
	if n.Type() != NodeTypeVariable {
		Panicf("trying to get GetVariableName of a non-variable node %q", n.Type())
	}
	return n.inputs.(*nodeInputsVariable).scopedName
}

// nodeInputsConcatenate holds the static parameters of a Concatenate node.
type nodeInputsConcatenate struct {
	operands []*Node
	axis     int
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsConcatenate) Type() NodeType { return NodeTypeConcatenate }

// String implements the interface NodeInputs.
func (ni *nodeInputsConcatenate) String() string {
	return fmt.Sprintf("%s(operands=%v, axis=%d)", ni.Type(), inputsIds(ni.operands), ni.axis)
}

// Concatenate results on the given axis. A negative axis will be counted from
// the end -- so `axis==-1` means the last axis.
//
// All operands must have the same dtype, rank and dimensions on every axis other than the
// concatenated one, otherwise it panics with a descriptive error.
//
// If operands is a singleton, it returns the singleton node.
func Concatenate(operands []*Node, axis int) *Node {
	if len(operands) == 0 {
		Panicf("cannot Concatenate with 0 operands")
	}
	g := validateBuildingGraphFromInputs(operands...)
	if len(operands) == 1 {
		return operands[0]
	}
	rank := operands[0].Rank()
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += rank
	}
	operandsShapes := make([]shapes.Shape, len(operands))
	for ii, operand := range operands {
		operandsShapes[ii] = operand.Shape()
	}
	outputShape, err := shapeinference.ConcatenateOp(operandsShapes, adjustedAxis)
	if err != nil {
		panic(err)
	}
	inputs := &nodeInputsConcatenate{operands: operands, axis: adjustedAxis}
	return newNode(g, inputs, outputShape, operands...)
}

// nodeInputsBinary holds the inputs of element-wise binary nodes.
type nodeInputsBinary struct {
	opType   NodeType
	lhs, rhs *Node
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsBinary) Type() NodeType { return ni.opType }

// String implements the interface NodeInputs.
func (ni *nodeInputsBinary) String() string {
	return fmt.Sprintf("%s(lhs=[#%d], rhs=[#%d])", ni.Type(), ni.lhs.Id(), ni.rhs.Id())
}

func binaryOp(opType NodeType, lhs, rhs *Node) *Node {
	g := validateBuildingGraphFromInputs(lhs, rhs)
	outputShape, err := shapeinference.BinaryOp(opType.String(), lhs.Shape(), rhs.Shape())
	if err != nil {
		panic(err)
	}
	return newNode(g, &nodeInputsBinary{opType: opType, lhs: lhs, rhs: rhs}, outputShape, lhs, rhs)
}

// Add returns the element-wise sum of lhs and rhs. Axes with dimension 1 are broadcast.
func Add(lhs, rhs *Node) *Node { return binaryOp(NodeTypeAdd, lhs, rhs) }

// Mul returns the element-wise multiplication of lhs and rhs. Axes with dimension 1 are broadcast.
func Mul(lhs, rhs *Node) *Node { return binaryOp(NodeTypeMul, lhs, rhs) }

// nodeInputsScalarOp holds the inputs of ops between a node and a constant scalar.
type nodeInputsScalarOp struct {
	opType NodeType
	x      *Node
	scalar float64
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsScalarOp) Type() NodeType { return ni.opType }

// String implements the interface NodeInputs.
func (ni *nodeInputsScalarOp) String() string {
	return fmt.Sprintf("%s(x=[#%d], scalar=%g)", ni.Type(), ni.x.Id(), ni.scalar)
}

// MulScalar multiplies x by a constant scalar.
func MulScalar(x *Node, scalar float64) *Node {
	g := validateBuildingGraphFromInputs(x)
	return newNode(g, &nodeInputsScalarOp{opType: NodeTypeMulScalar, x: x, scalar: scalar}, x.Shape(), x)
}

// DivScalar divides x by a constant scalar. It panics if scalar is 0.
func DivScalar(x *Node, scalar float64) *Node {
	g := validateBuildingGraphFromInputs(x)
	if scalar == 0 {
		Panicf("DivScalar(%s, 0): division by zero", x.Shape())
	}
	return newNode(g, &nodeInputsScalarOp{opType: NodeTypeDivScalar, x: x, scalar: scalar}, x.Shape(), x)
}

// nodeInputsReshape holds the static parameters of a Reshape node.
type nodeInputsReshape struct {
	x          *Node
	dimensions []int
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsReshape) Type() NodeType { return NodeTypeReshape }

// String implements the interface NodeInputs.
func (ni *nodeInputsReshape) String() string {
	return fmt.Sprintf("%s(x=[#%d], dimensions=%v)", ni.Type(), ni.x.Id(), ni.dimensions)
}

// Reshape x to the given dimensions. Total size cannot change. One dimension can be left as -1,
// in which case it is set to match the size of the original x.
func Reshape(x *Node, dimensions ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	outputShape, err := shapeinference.ReshapeOp(x.Shape(), dimensions)
	if err != nil {
		panic(err)
	}
	return newNode(g, &nodeInputsReshape{x: x, dimensions: outputShape.Dimensions}, outputShape, x)
}

// nodeInputsUnary holds the inputs of element-wise unary nodes, the activation functions.
type nodeInputsUnary struct {
	opType NodeType
	x      *Node
	alpha  float64 // Only used by LeakyRelu.
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsUnary) Type() NodeType { return ni.opType }

// String implements the interface NodeInputs.
func (ni *nodeInputsUnary) String() string {
	if ni.opType == NodeTypeLeakyRelu {
		return fmt.Sprintf("%s(x=[#%d], alpha=%g)", ni.Type(), ni.x.Id(), ni.alpha)
	}
	return fmt.Sprintf("%s(x=[#%d])", ni.Type(), ni.x.Id())
}

func unaryOp(opType NodeType, x *Node, alpha float64) *Node {
	g := validateBuildingGraphFromInputs(x)
	if !x.DType().IsFloat() {
		Panicf("%s requires a float input, got %s", opType, x.Shape())
	}
	return newNode(g, &nodeInputsUnary{opType: opType, x: x, alpha: alpha}, x.Shape(), x)
}

// Relu activation function. It returns Max(x, 0), and is commonly used as an activation function in neural networks.
func Relu(x *Node) *Node { return unaryOp(NodeTypeRelu, x, 0) }

// LeakyRelu activation function. It allows a small gradient when the unit is not active (x < 0).
// The `alpha` parameter is fixed at 0.3.
func LeakyRelu(x *Node) *Node { return LeakyReluWithAlpha(x, 0.3) }

// LeakyReluWithAlpha activation function. It allows a small gradient when the unit is not active (x < 0):
// it returns x if x >= 0, otherwise alpha*x.
func LeakyReluWithAlpha(x *Node, alpha float64) *Node { return unaryOp(NodeTypeLeakyRelu, x, alpha) }

// Sigmoid returns the expression $1/(1+exp(-x))$. It is an alias to the Logistic function.
func Sigmoid(x *Node) *Node { return unaryOp(NodeTypeSigmoid, x, 0) }

// Tanh returns the hyperbolic tangent of x, element-wise.
func Tanh(x *Node) *Node { return unaryOp(NodeTypeTanh, x, 0) }

// Swish activation (or SiLU) returns `x * Sigmoid(x)`.
func Swish(x *Node) *Node { return unaryOp(NodeTypeSwish, x, 0) }

// nodeInputsBatchNormInference holds the inputs of a BatchNormInference node.
type nodeInputsBatchNormInference struct {
	x, scale, offset, mean, variance *Node
	epsilon                          float32
	featureAxis                      int
}

// Type implements the interface NodeInputs.
func (ni *nodeInputsBatchNormInference) Type() NodeType { return NodeTypeBatchNormInference }

// String implements the interface NodeInputs.
func (ni *nodeInputsBatchNormInference) String() string {
	return fmt.Sprintf("%s(x=[#%d], scale=[#%d], offset=[#%d], mean=[#%d], variance=[#%d], epsilon=%g, featureAxis=%d)",
		ni.Type(), ni.x.Id(), ni.scale.Id(), ni.offset.Id(), ni.mean.Id(), ni.variance.Id(), ni.epsilon, ni.featureAxis)
}

// BatchNormInference implements the inference of a batch normalization: it normalizes x with
// the given mean and variance, and then scales and shifts it.
//
// scale, offset, mean and variance must all be rank-1 with the dimension of x's featureAxis.
// featureAxis can be negative, counting from the end.
func BatchNormInference(x, scale, offset, mean, variance *Node, epsilon float32, featureAxis int) *Node {
	g := validateBuildingGraphFromInputs(x, scale, offset, mean, variance)
	adjustedAxis := featureAxis
	if adjustedAxis < 0 {
		adjustedAxis += x.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= x.Rank() {
		Panicf("BatchNormInference: featureAxis %d out-of-bounds for x shaped %s", featureAxis, x.Shape())
	}
	featureDim := x.Shape().Dimensions[adjustedAxis]
	for name, param := range map[string]*Node{"scale": scale, "offset": offset, "mean": mean, "variance": variance} {
		if err := param.Shape().Check(x.DType(), featureDim); err != nil {
			Panicf("BatchNormInference: %s must be shaped [%d] (feature dimension of x shaped %s): %v",
				name, featureDim, x.Shape(), err)
		}
	}
	inputs := &nodeInputsBatchNormInference{
		x: x, scale: scale, offset: offset, mean: mean, variance: variance,
		epsilon: epsilon, featureAxis: adjustedAxis,
	}
	return newNode(g, inputs, x.Shape(), x, scale, offset, mean, variance)
}
