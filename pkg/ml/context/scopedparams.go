// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package context

import (
	"strings"

	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
)

// ScopedParams provides a mapping from string to any data type that is "scoped":
//
//   - For every scope there is a map of string to data.
//   - Accessing a key triggers a search from the current scope up to the root scope, the
//     first result found is returned.
//
// Example: let's say the current ScopedParams hold:
//
//	Scope: "/": { "activation": "relu", "normalization": "none" }
//	Scope: "/inception_a_0": { "normalization": "batch" }
//	Scope: "/inception_a_0/branch_0": { "activation": "swish" }
//
//	ScopedParams.Get("/inception_a_0/branch_0", "activation") -> "swish"
//	ScopedParams.Get("/inception_a_0/branch_0", "normalization") -> "batch"
//	ScopedParams.Get("/inception_a_1", "normalization") -> "none"
//	ScopedParams.Get("/inception_a_1", "residual_scale") -> Not found.
//
// The Context object uses ScopedParams to store the hyperparameters (see `Context.GetParam` and `Context.SetParam`).
type ScopedParams struct {
	scopeToMap map[string]map[string]any
}

// NewScopedParams creates an empty ScopedParams.
func NewScopedParams() *ScopedParams {
	return &ScopedParams{
		scopeToMap: make(map[string]map[string]any),
	}
}

// Set sets the value for the given key, in the given scope.
func (p *ScopedParams) Set(scope, key string, value any) {
	dataMap, found := p.scopeToMap[scope]
	if !found {
		dataMap = make(map[string]any)
		p.scopeToMap[scope] = dataMap
	}
	dataMap[key] = value
}

// Get retrieves the value for the given key in the given scope or any parent scope.
// E.g: Get("/a/b", "myKey") will search for "myKey" in scopes "/a/b", "/a" and "/"
// consecutively until "myKey" is found.
//
// It returns the first value found if any, and whether some value was found.
func (p *ScopedParams) Get(scope, key string) (value any, found bool) {
	for {
		if dataMap, ok := p.scopeToMap[scope]; ok {
			if value, found = dataMap[key]; found {
				return
			}
		}
		if scope == RootScope || scope == "" {
			return nil, false
		}
		scope, _ = SplitScope(scope)
	}
}

// Enumerate enumerates all parameters stored in the ScopedParams structure and calls the given closure with
// them. Scopes and keys are enumerated in sorted order.
func (p *ScopedParams) Enumerate(fn func(scope, key string, value any)) {
	for _, scope := range xslices.SortedKeys(p.scopeToMap) {
		keyValues := p.scopeToMap[scope]
		for _, key := range xslices.SortedKeys(keyValues) {
			fn(scope, key, keyValues[key])
		}
	}
}

// isInScope returns whether scope is baseScope or one of its sub-scopes.
func isInScope(scope, baseScope string) bool {
	if baseScope == RootScope || scope == baseScope {
		return true
	}
	return strings.HasPrefix(scope, baseScope+ScopeSeparator)
}
