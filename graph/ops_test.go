// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nngraph/nngraph/graph"
	"github.com/nngraph/nngraph/types/shapes"
)

// TestOperatorValidation exercises the per-operator validation rules: each
// case constructs one invalid operator and checks the recorded diagnostic.
func TestOperatorValidation(t *testing.T) {
	testCases := []struct {
		name    string
		build   func(b *graph.Builder)
		wantErr string
	}{
		{
			name: "input with empty name",
			build: func(b *graph.Builder) {
				b.Input("", shapes.Make(dtypes.Float32, 2))
			},
			wantErr: "input name must not be empty",
		},
		{
			name: "input with invalid dimension",
			build: func(b *graph.Builder) {
				b.Input("x", shapes.Make(dtypes.Float32, 2, -5))
			},
			wantErr: "invalid descriptor",
		},
		{
			name: "constant with wrong data size",
			build: func(b *graph.Builder) {
				b.Constant(shapes.Make(dtypes.Float32, 2, 2), make([]byte, 3))
			},
			wantErr: "constant data has 3 bytes",
		},
		{
			name: "constant from float32s with unsupported dtype",
			build: func(b *graph.Builder) {
				b.ConstantFromFloat32s(shapes.Make(dtypes.Int32, 2), []float32{1, 2})
			},
			wantErr: "only Float32 and Float16",
		},
		{
			name: "softmax on non-2D input",
			build: func(b *graph.Builder) {
				b.Softmax(b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4)))
			},
			wantErr: "must be a 2-D tensor",
		},
		{
			name: "binary with mismatched dtypes",
			build: func(b *graph.Builder) {
				lhs := b.Input("lhs", shapes.Make(dtypes.Float32, 2, 2))
				rhs := b.Input("rhs", shapes.Make(dtypes.Float16, 2, 2))
				b.Add(lhs, rhs)
			},
			wantErr: "same dtype",
		},
		{
			name: "matmul on 1-D inputs",
			build: func(b *graph.Builder) {
				lhs := b.Input("lhs", shapes.Make(dtypes.Float32, 4))
				rhs := b.Input("rhs", shapes.Make(dtypes.Float32, 4))
				b.Matmul(lhs, rhs)
			},
			wantErr: "at least",
		},
		{
			name: "conv2d with non-4D input",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8))
				filter := b.Input("w", shapes.Make(dtypes.Float32, 4, 3, 3, 3))
				b.Conv2d(x, filter, nil)
			},
			wantErr: "conv2d input must be a 4-D tensor",
		},
		{
			name: "conv2d with wrong strides length",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				filter := b.Input("w", shapes.Make(dtypes.Float32, 4, 3, 3, 3))
				b.Conv2d(x, filter, &graph.Conv2dOptions{Strides: []int{1, 1, 1}})
			},
			wantErr: "strides must have 2 values",
		},
		{
			name: "conv2d with negative groups",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				filter := b.Input("w", shapes.Make(dtypes.Float32, 4, 3, 3, 3))
				b.Conv2d(x, filter, &graph.Conv2dOptions{Groups: -2})
			},
			wantErr: "groups must be >= 1",
		},
		{
			name: "pool2d on non-4D input",
			build: func(b *graph.Builder) {
				b.MaxPool2d(b.Input("x", shapes.Make(dtypes.Float32, 3, 8, 8)), nil)
			},
			wantErr: "must be a 4-D tensor",
		},
		{
			name: "clamp with min above max",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2))
				b.Clamp(x, &graph.ClampOptions{MinValue: 2, MaxValue: 1})
			},
			wantErr: "min value",
		},
		{
			name: "batchNorm with non-1D mean",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				mean := b.Input("mean", shapes.Make(dtypes.Float32, 3, 1))
				variance := b.Input("variance", shapes.Make(dtypes.Float32, 3))
				b.BatchNorm(x, mean, variance, nil)
			},
			wantErr: "mean must be a 1-D tensor",
		},
		{
			name: "batchNorm with out-of-range axis",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				mean := b.Input("mean", shapes.Make(dtypes.Float32, 3))
				variance := b.Input("variance", shapes.Make(dtypes.Float32, 3))
				b.BatchNorm(x, mean, variance, &graph.BatchNormOptions{Axis: 7})
			},
			wantErr: "axis 7 is out of range",
		},
		{
			name: "instanceNorm on non-4D input",
			build: func(b *graph.Builder) {
				b.InstanceNorm(b.Input("x", shapes.Make(dtypes.Float32, 3, 8, 8)), nil)
			},
			wantErr: "instanceNorm input must be a 4-D tensor",
		},
		{
			name: "reduceMean with repeated axes",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4))
				b.ReduceMean(x, &graph.ReduceMeanOptions{Axes: []int{1, 1}})
			},
			wantErr: "axes must be unique",
		},
		{
			name: "reduceMean with out-of-range axis",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3))
				b.ReduceMean(x, &graph.ReduceMeanOptions{Axes: []int{2}})
			},
			wantErr: "out of range",
		},
		{
			name: "concat without inputs",
			build: func(b *graph.Builder) {
				b.Concat(nil, 0)
			},
			wantErr: "at least one input",
		},
		{
			name: "concat with mixed ranks",
			build: func(b *graph.Builder) {
				lhs := b.Input("lhs", shapes.Make(dtypes.Float32, 2, 3))
				rhs := b.Input("rhs", shapes.Make(dtypes.Float32, 2, 3, 1))
				b.Concat([]*graph.Operand{lhs, rhs}, 0)
			},
			wantErr: "same rank",
		},
		{
			name: "split with non-positive value",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 4, 6))
				b.Split(x, []int{2, 0}, nil)
			},
			wantErr: "must be positive",
		},
		{
			name: "split with out-of-range axis",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 4, 6))
				b.Split(x, []int{2}, &graph.SplitOptions{Axis: 2})
			},
			wantErr: "out of range",
		},
		{
			name: "gemm on non-2D input",
			build: func(b *graph.Builder) {
				a := b.Input("a", shapes.Make(dtypes.Float32, 2, 3, 4))
				bMat := b.Input("b", shapes.Make(dtypes.Float32, 3, 4))
				b.Gemm(a, bMat, nil)
			},
			wantErr: "gemm input a must be a 2-D tensor",
		},
		{
			name: "gemm with too-high-rank c",
			build: func(b *graph.Builder) {
				a := b.Input("a", shapes.Make(dtypes.Float32, 2, 3))
				bMat := b.Input("b", shapes.Make(dtypes.Float32, 3, 4))
				c := b.Input("c", shapes.Make(dtypes.Float32, 2, 4, 1))
				b.Gemm(a, bMat, &graph.GemmOptions{C: c})
			},
			wantErr: "at most a 2-D tensor",
		},
		{
			name: "reshape with empty shape",
			build: func(b *graph.Builder) {
				b.Reshape(b.Input("x", shapes.Make(dtypes.Float32, 2, 3)), nil)
			},
			wantErr: "must not be empty",
		},
		{
			name: "reshape with two inferred dimensions",
			build: func(b *graph.Builder) {
				b.Reshape(b.Input("x", shapes.Make(dtypes.Float32, 2, 3)), []int{-1, -1})
			},
			wantErr: "at most one -1",
		},
		{
			name: "reshape with zero dimension",
			build: func(b *graph.Builder) {
				b.Reshape(b.Input("x", shapes.Make(dtypes.Float32, 2, 3)), []int{0, 6})
			},
			wantErr: "must be positive",
		},
		{
			name: "transpose with invalid permutation",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4))
				b.Transpose(x, &graph.TransposeOptions{Permutation: []int{0, 0, 1}})
			},
			wantErr: "not a permutation",
		},
		{
			name: "transpose with wrong permutation length",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4))
				b.Transpose(x, &graph.TransposeOptions{Permutation: []int{1, 0}})
			},
			wantErr: "one entry per input axis",
		},
		{
			name: "squeeze with out-of-range axis",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3))
				b.Squeeze(x, &graph.SqueezeOptions{Axes: []int{5}})
			},
			wantErr: "out of range",
		},
		{
			name: "pad with non-2D padding",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3))
				padding := b.Input("padding", shapes.Make(dtypes.Int32, 4))
				b.Pad(x, padding, nil)
			},
			wantErr: "pad padding must be a 2-D tensor",
		},
		{
			name: "resample with scales and sizes",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				b.Resample(x, &graph.ResampleOptions{Scales: []float32{2, 2}, Sizes: []int{16, 16}})
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "resample on non-4D input",
			build: func(b *graph.Builder) {
				b.Resample(b.Input("x", shapes.Make(dtypes.Float32, 3, 8, 8)), nil)
			},
			wantErr: "resample input must be a 4-D tensor",
		},
		{
			name: "resample with non-positive scale",
			build: func(b *graph.Builder) {
				x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
				b.Resample(x, &graph.ResampleOptions{Scales: []float32{2, -1}})
			},
			wantErr: "scales must be positive",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			b := newTestBuilder(t)
			testCase.build(b)
			require.Error(t, b.LastError())
			assert.ErrorContains(t, b.LastError(), testCase.wantErr)
		})
	}
}

// TestOutputRanks checks the operators whose output rank differs from their
// first input's.
func TestOutputRanks(t *testing.T) {
	b := newTestBuilder(t)
	x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4))

	reduced := b.ReduceMean(x, &graph.ReduceMeanOptions{Axes: []int{1}})
	require.False(t, reduced.IsError())
	assert.Equal(t, 2, reduced.Rank())

	kept := b.ReduceMean(x, &graph.ReduceMeanOptions{Axes: []int{1}, KeepDimensions: true})
	require.False(t, kept.IsError())
	assert.Equal(t, 3, kept.Rank())

	all := b.ReduceMean(x, nil)
	require.False(t, all.IsError())
	assert.Equal(t, 0, all.Rank())

	reshaped := b.Reshape(x, []int{6, -1})
	require.False(t, reshaped.IsError())
	assert.Equal(t, 2, reshaped.Rank())

	squeezed := b.Squeeze(b.Input("y", shapes.Make(dtypes.Float32, 1, 3, 1)), &graph.SqueezeOptions{Axes: []int{0, 2}})
	require.False(t, squeezed.IsError())
	assert.Equal(t, 1, squeezed.Rank())

	require.NoError(t, b.LastError())
}

// TestDefaultTransposePermutation checks that an unset permutation reverses
// the axes and validates against the input rank.
func TestDefaultTransposePermutation(t *testing.T) {
	b := newTestBuilder(t)
	x := b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4))

	y := b.Transpose(x, nil)
	require.False(t, y.IsError())
	assert.Equal(t, 3, y.Rank())
	require.NoError(t, b.LastError())
}

func TestConstantFromFloat32s(t *testing.T) {
	b := newTestBuilder(t)

	c32 := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 2, 2), []float32{1, 2, 3, 4})
	require.False(t, c32.IsError())
	assert.Equal(t, dtypes.Float32, c32.DType())
	assert.Equal(t, 2, c32.Rank())

	c16 := b.ConstantFromFloat32s(shapes.Make(dtypes.Float16, 4), []float32{1, 2, 3, 4})
	require.False(t, c16.IsError())
	assert.Equal(t, dtypes.Float16, c16.DType())

	require.NoError(t, b.LastError())
}
