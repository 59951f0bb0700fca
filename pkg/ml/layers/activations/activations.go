// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package activations includes a generic Apply method to apply an activation by its type.
//
// There is also FromName to convert an activation name (string) to its type, and ApplyFromContext that applies
// an activation based on the hyperparameter ParamActivation defined in a context.
package activations

import (
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
)

const (
	// ParamActivation context hyperparameter defines the activation to use, for models using ApplyFromContext.
	// Available values are: `none`, `relu`, `leaky_relu`, `sigmoid`, `tanh`, `swish` (same as `silu`).
	// The default is `relu`.
	// See activations.TypeValues for complete list.
	ParamActivation = "activation"
)

// Type is an enum for the supported activation functions.
//
// It is converted to snake-format strings (e.g.: TypeLeakyRelu -> "leaky_relu"), and can be converted
// from string by using TypeString or FromName.
type Type int

const (
	TypeNone Type = iota
	TypeRelu
	TypeSigmoid
	TypeLeakyRelu
	TypeSwish

	// TypeSilu is an alias to TypeSwish
	TypeSilu

	TypeTanh
)

//go:generate go tool enumer -type Type -trimprefix=Type -transform=snake -output=gen_type_enumer.go activations.go

// ApplyFromContext picks an activation function from the context using [ParamActivation] parameter,
// and applies it to x.
//
// It defaults to "relu".
func ApplyFromContext(ctx *context.Context, x *graph.Node) *graph.Node {
	activationName := context.GetParamOr(ctx, ParamActivation, "relu")
	return Apply(FromName(activationName), x)
}

// Apply the given activation type.
// The TypeNone activation is a no-op.
//
// See TypeValues for valid values.
func Apply(activation Type, x *graph.Node) *graph.Node {
	switch activation {
	case TypeNone:
		return x
	case TypeRelu:
		return graph.Relu(x)
	case TypeLeakyRelu:
		return graph.LeakyRelu(x)
	case TypeSigmoid:
		return graph.Sigmoid(x)
	case TypeTanh:
		return graph.Tanh(x)
	case TypeSwish, TypeSilu:
		return graph.Swish(x)
	default:
		Panicf("Apply got invalid activation value %q: options are %v", activation, TypeValues())
	}
	return nil
}

// FromName converts the name of an activation to its type.
// It panics with a helpful message if name is invalid.
//
// And empty string is converted to TypeNone.
func FromName(activationName string) Type {
	if activationName == "" {
		return TypeNone
	}
	activation, err := TypeString(activationName)
	if err != nil {
		Panicf("invalid activation name %q: options are %v", activationName, TypeValues())
	}
	return activation
}
