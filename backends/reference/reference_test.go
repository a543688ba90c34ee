// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package reference

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/types/shapes"
)

func newTestGraph(t *testing.T) *Graph {
	backend, err := New("")
	require.NoError(t, err)
	g, err := backend.NewGraph(t.Name())
	require.NoError(t, err)
	return g.(*Graph)
}

func TestGraphLifecycle(t *testing.T) {
	g := newTestGraph(t)
	assert.Equal(t, t.Name(), g.Name())

	x, err := g.AddInput("x", shapes.Make(dtypes.Float32, 2, 2))
	require.NoError(t, err)
	y, err := g.AddUnary(backends.OpTypeRelu, x)
	require.NoError(t, err)

	// Compile requires Finish, Finish requires an output.
	_, err = g.Compile()
	require.ErrorContains(t, err, "must be finished")
	require.ErrorContains(t, g.Finish(), "without any registered output")

	require.NoError(t, g.AddOutput("y", y))
	require.NoError(t, g.Finish())

	// Finish seals the graph.
	_, err = g.AddUnary(backends.OpTypeRelu, x)
	require.ErrorContains(t, err, "already been finished")
	require.ErrorContains(t, g.AddOutput("y2", y), "already been finished")
	require.ErrorContains(t, g.Finish(), "already been finished")

	exec, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, exec.Outputs())
	inputNames, inputShapes := exec.Inputs()
	assert.Equal(t, []string{"x"}, inputNames)
	require.Len(t, inputShapes, 1)
	assert.True(t, inputShapes[0].Equal(shapes.Make(dtypes.Float32, 2, 2)))

	// Compile is once-only.
	_, err = g.Compile()
	require.ErrorContains(t, err, "already been compiled")
}

func TestGraphInputChecks(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.AddInput("", shapes.Make(dtypes.Float32, 2))
	require.ErrorContains(t, err, "input name must not be empty")

	_, err = g.AddInput("x", shapes.Make(dtypes.Float32, -1))
	require.ErrorContains(t, err, "invalid shape")

	_, err = g.AddConstant(shapes.Make(dtypes.Float32, 2), make([]byte, 3))
	require.ErrorContains(t, err, "constant data has 3 bytes")
}

func TestGraphHandleOwnership(t *testing.T) {
	g := newTestGraph(t)
	other := newTestGraph(t)

	foreign, err := other.AddInput("x", shapes.Make(dtypes.Float32, 2))
	require.NoError(t, err)

	_, err = g.AddUnary(backends.OpTypeRelu, foreign)
	require.ErrorContains(t, err, "different graph")

	_, err = g.AddUnary(backends.OpTypeRelu, nil)
	require.ErrorContains(t, err, "is nil")

	_, err = g.AddUnary(backends.OpTypeRelu, "not an op")
	require.ErrorContains(t, err, "was not created by")
}

func TestGraphOpTypeGroups(t *testing.T) {
	g := newTestGraph(t)
	x, err := g.AddInput("x", shapes.Make(dtypes.Float32, 2, 2))
	require.NoError(t, err)

	_, err = g.AddUnary(backends.OpTypeAdd, x)
	require.ErrorContains(t, err, "not a unary operator")

	_, err = g.AddBinary(backends.OpTypeRelu, x, x)
	require.ErrorContains(t, err, "not a binary operator")

	_, err = g.AddPool2d(backends.OpTypeConv2d, x, nil)
	require.ErrorContains(t, err, "not a pooling operator")
}

func TestGraphDuplicateOutput(t *testing.T) {
	g := newTestGraph(t)
	x, err := g.AddInput("x", shapes.Make(dtypes.Float32, 2))
	require.NoError(t, err)

	require.NoError(t, g.AddOutput("y", x))
	require.ErrorContains(t, g.AddOutput("y", x), `output "y" registered twice`)
	require.ErrorContains(t, g.AddOutput("", x), "output name must not be empty")
}

func TestGraphSplit(t *testing.T) {
	g := newTestGraph(t)
	x, err := g.AddInput("x", shapes.Make(dtypes.Float32, 4, 6))
	require.NoError(t, err)

	parts, err := g.AddSplit(x, []int{3}, 1)
	require.NoError(t, err)
	assert.Len(t, parts, 3)

	parts, err = g.AddSplit(x, []int{2, 4}, 1)
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	_, err = g.AddSplit(x, []int{0}, 1)
	require.ErrorContains(t, err, "at least one output")
}

func TestGraphRejectsFusedClamp(t *testing.T) {
	g := newTestGraph(t)
	x, err := g.AddInput("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
	require.NoError(t, err)
	filter, err := g.AddInput("w", shapes.Make(dtypes.Float32, 4, 3, 3, 3))
	require.NoError(t, err)

	attrs := &backends.ConvAttrs{
		Padding:    []int{0, 0, 0, 0},
		Strides:    []int{1, 1},
		Dilations:  []int{1, 1},
		Groups:     1,
		Activation: backends.FusedActivation{Op: backends.FusedClamp},
	}
	_, err = g.AddConv2d(x, filter, attrs)
	require.ErrorContains(t, err, "does not support fusing a clamp")

	attrs.Activation.Op = backends.FusedRelu
	_, err = g.AddConv2d(x, filter, attrs)
	require.NoError(t, err)
}

func TestBackendFinalize(t *testing.T) {
	backend, err := New("")
	require.NoError(t, err)
	backend.Finalize()
	_, err = backend.NewGraph("afterFinalize")
	require.ErrorContains(t, err, "already been finalized")
}
