// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

// NodeType identifies the operation performed by a Node.
type NodeType int

//go:generate go tool enumer -type=NodeType -trimprefix=NodeType -output=gen_nodetype_enumer.go nodetype.go

const (
	NodeTypeInvalid NodeType = iota
	NodeTypeParameter
	NodeTypeVariable
	NodeTypeConvolve
	NodeTypeReduceWindow
	NodeTypeConcatenate
	NodeTypeAdd
	NodeTypeMul
	NodeTypeMulScalar
	NodeTypeDivScalar
	NodeTypeReshape
	NodeTypeRelu
	NodeTypeLeakyRelu
	NodeTypeSigmoid
	NodeTypeTanh
	NodeTypeSwish
	NodeTypeBatchNormInference
)

// ReduceOpType selects the reduction performed by a ReduceWindow node.
type ReduceOpType int

//go:generate go tool enumer -type=ReduceOpType -trimprefix=ReduceOp -output=gen_reduceoptype_enumer.go nodetype.go

const (
	ReduceOpUndefined ReduceOpType = iota

	// ReduceOpSum reduces by summing all elements being reduced.
	ReduceOpSum

	// ReduceOpMax reduces by taking the maximum value.
	ReduceOpMax

	// ReduceOpMean reduces by taking the mean of the elements within the window, ignoring
	// the padded positions.
	ReduceOpMean
)
