// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/models/inceptionresnet"
	"github.com/gomlx/inceptionresnet/ui/commandline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newContext creates a context with the defaults and the given settings, as main does with -set.
func newContext(t *testing.T, settings string) *context.Context {
	ctx := inceptionresnet.SetDefaultParams(context.New())
	_, err := commandline.ParseContextSettings(ctx, settings)
	require.NoError(t, err)
	return ctx
}

// setFlag sets the flag value for the duration of the test.
func setFlag[T any](t *testing.T, flagPtr *T, value T) {
	previous := *flagPtr
	*flagPtr = value
	t.Cleanup(func() { *flagPtr = previous })
}

func TestRun(t *testing.T) {
	const smallV1 = "inception_variant=inception_resnet_v1;num_blocks_a=1;num_blocks_b=1;num_blocks_c=1"
	outputPath := filepath.Join(t.TempDir(), "reports", "v1.csv")
	setFlag(t, flagFormat, "csv")
	setFlag(t, flagOutput, outputPath)

	t.Run("CSV", func(t *testing.T) {
		require.NoError(t, run(newContext(t, smallV1)))
		contents, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
		require.Len(t, lines, 1+6)
		assert.True(t, strings.HasPrefix(lines[0], "block,kind,"))
		assert.True(t, strings.HasPrefix(lines[1], "stem,StemResNet,Float32,1x35x35x256,"), lines[1])
		assert.True(t, strings.HasPrefix(lines[6], "inception_resnet_c_0,InceptionResNetC,Float32,1x8x8x1792,"), lines[6])
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := run(newContext(t, smallV1))
		require.ErrorContains(t, err, "already exists")
		setFlag(t, flagOverwrite, true)
		require.NoError(t, run(newContext(t, smallV1)))
	})

	t.Run("Formats", func(t *testing.T) {
		setFlag(t, flagOverwrite, true)
		for _, format := range []string{"table", "ops", "graph"} {
			setFlag(t, flagFormat, format)
			require.NoError(t, run(newContext(t, smallV1)), "-format=%s", format)
			info, err := os.Stat(outputPath)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0), "-format=%s", format)
		}
		setFlag(t, flagFormat, "yaml")
		require.ErrorContains(t, run(newContext(t, smallV1)), "unknown -format")
	})

	t.Run("InvalidVariant", func(t *testing.T) {
		err := run(newContext(t, "inception_variant=x"))
		require.ErrorContains(t, err, inceptionresnet.ParamVariant)
	})

	t.Run("InvalidDType", func(t *testing.T) {
		setFlag(t, flagDType, "complex")
		require.Error(t, run(newContext(t, smallV1)))
	})

	t.Run("ImageTooSmall", func(t *testing.T) {
		setFlag(t, flagOverwrite, true)
		setFlag(t, flagImageSize, 20)
		require.Error(t, run(newContext(t, smallV1)))
	})
}
