// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const F32 = dtypes.Float32

var S = shapes.Make

// must1 panics if there is an error.
func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

func TestConvOp(t *testing.T) {
	type testCase struct {
		name          string
		input, kernel shapes.Shape
		axes          ConvolveAxesConfig
		strides       []int
		paddings      [][2]int
		groupCount    int

		expectedError string
		output        shapes.Shape
	}
	testCases := []testCase{
		{
			name:       "stem first conv, valid stride 2",
			input:      S(F32, 1, 299, 299, 3),
			kernel:     S(F32, 3, 3, 3, 32),
			axes:       ChannelsLastAxes(4),
			strides:    []int{2, 2},
			groupCount: 1,
			output:     S(F32, 1, 149, 149, 32),
		},
		{
			name:       "1x7 same padding keeps spatial",
			input:      S(F32, 2, 17, 17, 192),
			kernel:     S(F32, 1, 7, 192, 224),
			axes:       ChannelsLastAxes(4),
			paddings:   [][2]int{{0, 0}, {3, 3}},
			groupCount: 1,
			output:     S(F32, 2, 17, 17, 224),
		},
		{
			name:       "channels first",
			input:      S(F32, 2, 64, 35, 35),
			kernel:     S(F32, 64, 3, 3, 96),
			axes:       ChannelsFirstAxes(4),
			strides:    []int{2, 2},
			groupCount: 1,
			output:     S(F32, 2, 96, 17, 17),
		},
		{
			name:          "input channels mismatch",
			input:         S(F32, 1, 35, 35, 384),
			kernel:        S(F32, 1, 1, 256, 32),
			axes:          ChannelsLastAxes(4),
			groupCount:    1,
			expectedError: "inputChannels",
		},
		{
			name:          "kernel larger than input",
			input:         S(F32, 1, 2, 2, 8),
			kernel:        S(F32, 3, 3, 8, 8),
			axes:          ChannelsLastAxes(4),
			groupCount:    1,
			expectedError: "larger than padded input",
		},
		{
			name:          "dtype mismatch",
			input:         S(F32, 1, 8, 8, 8),
			kernel:        S(dtypes.Float64, 3, 3, 8, 8),
			axes:          ChannelsLastAxes(4),
			groupCount:    1,
			expectedError: "must match",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, err := ConvOp(tc.input, tc.kernel, tc.axes, tc.strides, tc.paddings, nil, tc.groupCount)
			if tc.expectedError != "" {
				require.ErrorContains(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.output.Equal(output), "got %s, wanted %s", output, tc.output)
		})
	}
}

func TestReduceWindowOp(t *testing.T) {
	// 3x3 stride 2 valid max-pool: 35 -> 17, 17 -> 8.
	output := must1(ReduceWindowOp(S(F32, 1, 35, 35, 384), []int{1, 3, 3, 1}, []int{1, 2, 2, 1}, nil))
	require.NoError(t, output.CheckDims(1, 17, 17, 384))
	output = must1(ReduceWindowOp(S(F32, 1, 17, 17, 1024), []int{1, 3, 3, 1}, []int{1, 2, 2, 1}, nil))
	require.NoError(t, output.CheckDims(1, 8, 8, 1024))

	// Strides default to the window size.
	output = must1(ReduceWindowOp(S(F32, 4, 6), []int{2, 3}, nil, nil))
	require.NoError(t, output.CheckDims(2, 2))

	// Padded.
	output = must1(ReduceWindowOp(S(F32, 1, 35, 35, 3), []int{1, 3, 3, 1}, []int{1, 1, 1, 1}, [][2]int{{0, 0}, {1, 1}, {1, 1}, {0, 0}}))
	require.NoError(t, output.CheckDims(1, 35, 35, 3))

	_, err := ReduceWindowOp(S(F32, 1, 2, 2, 3), []int{1, 3, 3, 1}, []int{1, 2, 2, 1}, nil)
	require.Error(t, err)
	_, err = ReduceWindowOp(S(F32, 1, 2, 2, 3), []int{3, 3}, nil, nil)
	require.Error(t, err)
}

func TestConcatenateOp(t *testing.T) {
	output := must1(ConcatenateOp([]shapes.Shape{S(F32, 1, 35, 35, 96), S(F32, 1, 35, 35, 96), S(F32, 1, 35, 35, 192)}, 3))
	require.NoError(t, output.CheckDims(1, 35, 35, 384))

	_, err := ConcatenateOp([]shapes.Shape{S(F32, 1, 35, 35, 96), S(F32, 1, 17, 17, 96)}, 3)
	require.ErrorContains(t, err, "non-concatenation axis")
	_, err = ConcatenateOp([]shapes.Shape{S(F32, 1, 35, 35, 96), S(F32, 1, 35, 96)}, 3)
	require.Error(t, err)
	_, err = ConcatenateOp([]shapes.Shape{S(F32, 1, 35, 35, 96)}, 4)
	require.Error(t, err)
	_, err = ConcatenateOp(nil, 0)
	require.Error(t, err)
}

func TestBinaryOp(t *testing.T) {
	output := must1(BinaryOp("Add", S(F32, 1, 35, 35, 384), S(F32, 1, 35, 35, 384)))
	require.NoError(t, output.CheckDims(1, 35, 35, 384))

	// Broadcasting on both sides.
	output = must1(BinaryOp("Mul", S(F32, 2, 1, 3), S(F32, 1, 4, 3)))
	require.NoError(t, output.CheckDims(2, 4, 3))

	// Scalar.
	output = must1(BinaryOp("Mul", shapes.Scalar(F32), S(F32, 2, 3)))
	require.NoError(t, output.CheckDims(2, 3))

	_, err := BinaryOp("Add", S(F32, 1, 35, 35, 384), S(F32, 1, 35, 35, 320))
	require.Error(t, err)
	_, err = BinaryOp("Add", S(F32, 2, 3), S(dtypes.Float16, 2, 3))
	require.Error(t, err)
	_, err = BinaryOp("Add", S(F32, 2, 3), S(F32, 2, 3, 1))
	require.Error(t, err)
}

func TestReshapeOp(t *testing.T) {
	output := must1(ReshapeOp(S(F32, 2, 8, 8, 1536), []int{2, -1}))
	require.NoError(t, output.CheckDims(2, 8*8*1536))
	_, err := ReshapeOp(S(F32, 2, 3), []int{4, 2})
	require.Error(t, err)
	_, err = ReshapeOp(S(F32, 2, 3), []int{-1, -1})
	require.Error(t, err)
	_, err = ReshapeOp(S(F32, 2, 3), []int{-1, 4})
	require.Error(t, err)
}

func TestPadSame(t *testing.T) {
	assert.Equal(t, [2]int{1, 1}, PadSame(35, 3, 1))
	assert.Equal(t, [2]int{1, 1}, PadSame(35, 3, 2))
	assert.Equal(t, [2]int{3, 3}, PadSame(8, 7, 1))
	assert.Equal(t, [2]int{0, 0}, PadSame(17, 1, 1))
	assert.Equal(t, [2]int{0, 1}, PadSame(4, 3, 2))

	// Output is always ceil(in/stride).
	for inputDim := 1; inputDim < 40; inputDim++ {
		for _, stride := range []int{1, 2} {
			padding := PadSame(inputDim, 3, stride)
			output := must1(ReduceWindowOp(S(F32, inputDim), []int{3}, []int{stride}, [][2]int{padding}))
			assert.Equal(t, (inputDim+stride-1)/stride, output.Dimensions[0], "inputDim=%d, stride=%d", inputDim, stride)
		}
	}
}
