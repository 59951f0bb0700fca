// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/support/fsutil"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
	"github.com/pkg/errors"
)

// SettingsFilePrefix marks a setting entry that should be read from a file, e.g.: "file:~/v2_settings.txt".
const SettingsFilePrefix = "file:"

// ParseContextSettings from settings, typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "inception_variant=inception_resnet_v2;num_blocks_b=5".
//
// All the parameters must already be set with default values in the root scope of `ctx`.
// The default values define the type to which the string values are parsed.
//
// A scope can also be given: "/inception_resnet_b_3/residual_scale=0.2" sets the parameter only for
// that block, as long as a default "residual_scale" is defined in the root scope.
//
// For integer types "_" is removed, so one can write large numbers like in Go: 1_000_000.
//
// It returns the list of parameter paths set, in order.
func ParseContextSettings(ctx *context.Context, settings string) (paramsSet []string, err error) {
	for _, setting := range strings.Split(settings, ";") {
		paramsSet, err = parseContextSetting(ctx, setting, paramsSet)
		if err != nil {
			return
		}
	}
	return
}

func parseContextSetting(ctx *context.Context, setting string, paramsSet []string) ([]string, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return paramsSet, nil
	}
	if filePath, found := strings.CutPrefix(setting, SettingsFilePrefix); found {
		return parseSettingsFile(ctx, filePath, paramsSet)
	}

	paramPath, valueStr, found := strings.Cut(setting, "=")
	if !found || strings.Contains(valueStr, "=") {
		return paramsSet, errors.Errorf("can't parse setting %q: each setting requires the format \"<param>=<value>\"", setting)
	}
	paramScope, paramName := context.SplitScope(paramPath)
	if strings.Contains(paramName, context.ScopeSeparator) {
		return paramsSet, errors.Errorf("can't set parameter %q because its scope is not absolute (it does not start with %q)",
			paramPath, context.ScopeSeparator)
	}
	defaultValue, found := ctx.InAbsPath(context.RootScope).GetParam(paramName)
	if !found {
		return paramsSet, errors.Errorf("can't set parameter %q because %q is not known in the root scope of the context",
			paramPath, paramName)
	}
	value, err := parseValue(defaultValue, valueStr)
	if err != nil {
		return paramsSet, errors.WithMessagef(err, "failed to parse value %q for parameter %q (default value is %#v)",
			valueStr, paramPath, defaultValue)
	}
	ctxInScope := ctx
	if paramScope != "" {
		ctxInScope = ctx.InAbsPath(paramScope)
	}
	ctxInScope.SetParam(paramName, value)
	return append(paramsSet, paramPath), nil
}

// parseSettingsFile reads one setting per line (";" also separates settings), lines starting with "#" are comments.
func parseSettingsFile(ctx *context.Context, filePath string, paramsSet []string) ([]string, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return paramsSet, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return paramsSet, errors.Wrapf(err, "failed to read settings from file %q", filePath)
	}
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, setting := range strings.Split(line, ";") {
			if strings.HasPrefix(strings.TrimSpace(setting), SettingsFilePrefix) {
				return paramsSet, errors.Errorf("settings file %q cannot include another file (%q)", filePath, setting)
			}
			paramsSet, err = parseContextSetting(ctx, setting, paramsSet)
			if err != nil {
				return paramsSet, errors.WithMessagef(err, "in settings file %q", filePath)
			}
		}
	}
	return paramsSet, nil
}

// parseValue parses valueStr to the same type as defaultValue.
func parseValue(defaultValue any, valueStr string) (any, error) {
	switch defaultValue.(type) {
	case int:
		return parseJSON[int](withoutUnderscores(valueStr))
	case int32:
		return parseJSON[int32](withoutUnderscores(valueStr))
	case int64:
		return parseJSON[int64](withoutUnderscores(valueStr))
	case float32:
		return parseJSON[float32](valueStr)
	case float64:
		return parseJSON[float64](valueStr)
	case bool:
		return parseJSON[bool](valueStr)
	case string:
		return valueStr, nil
	case []string:
		return strings.Split(valueStr, ","), nil
	case []int:
		return parseList[int](valueStr, true)
	case []float64:
		return parseList[float64](valueStr, false)
	default:
		return nil, errors.Errorf("don't know how to parse type %T", defaultValue)
	}
}

func withoutUnderscores(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

func parseJSON[T any](valueStr string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(valueStr), &v)
	return v, err
}

func parseList[T any](valueStr string, isInteger bool) ([]T, error) {
	var firstErr error
	values := xslices.Map(strings.Split(valueStr, ","), func(str string) T {
		if isInteger {
			str = withoutUnderscores(str)
		}
		v, err := parseJSON[T](str)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	})
	return values, firstErr
}

// CreateContextSettingsFlag creates a string flag with the given flagName (if empty it will be named
// "set") and with a description of the parameters currently defined in the root scope of `ctx`.
//
// The flag must be created before the call to `flag.Parse()`.
func CreateContextSettingsFlag(ctx *context.Context, flagName string) *string {
	if flagName == "" {
		flagName = "set"
	}
	parts := []string{fmt.Sprintf(
		`Set context parameters defining the architecture. `+
			`It should be a list of elements "param=value" separated by ";". `+
			`Scoped settings are allowed, using %q to separate scopes. `+
			`An entry like "%ssettings.txt" reads the settings from a file, one per line, `+
			`lines starting with "#" are comments. `+
			`Parameters that can be set:`,
		context.ScopeSeparator, SettingsFilePrefix)}
	ctx.EnumerateParams(func(scope, key string, value any) {
		if scope != context.RootScope {
			return
		}
		parts = append(parts, fmt.Sprintf("%q: default value is %v", key, value))
	})
	var settings string
	flag.StringVar(&settings, flagName, "", strings.Join(parts, "\n"))
	return &settings
}

// SprintContextSettings pretty-prints the values of all parameters in the context.
func SprintContextSettings(ctx *context.Context) string {
	var parts []string
	ctx.EnumerateParams(func(scope, key string, value any) {
		parts = append(parts, fmt.Sprintf("\t%q: (%T) %v", context.JoinScope(scope, key), value, value))
	})
	return strings.Join(parts, "\n")
}

// SprintModifiedContextSettings pretty-prints only the parameters in paramsSet, as returned by ParseContextSettings.
// Duplicates are printed once.
func SprintModifiedContextSettings(ctx *context.Context, paramsSet []string) string {
	paramsSet = slices.Clone(paramsSet)
	slices.Sort(paramsSet)
	paramsSet = slices.Compact(paramsSet)
	var parts []string
	for _, paramPath := range paramsSet {
		paramScope, paramName := context.SplitScope(paramPath)
		if paramScope == "" {
			paramScope = context.RootScope
		}
		value, found := ctx.InAbsPath(paramScope).GetParam(paramName)
		if !found {
			continue
		}
		parts = append(parts, fmt.Sprintf("\t%q: (%T) %v", paramPath, value, value))
	}
	return strings.Join(parts, "\n")
}
