// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph_test

import (
	"slices"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/backends/reference"
	"github.com/nngraph/nngraph/graph"
	"github.com/nngraph/nngraph/types/shapes"
)

// compile builds the graph and returns the reference backend's inspectable
// executable.
func compile(t *testing.T, b *graph.Builder, outputs *graph.NamedOperands) *reference.Executable {
	exec, err := b.Build(outputs)
	require.NoError(t, err)
	refExec, ok := exec.(*reference.Executable)
	require.True(t, ok)
	return refExec
}

// assertDependencyOrder checks that every compiled node appears after all of
// its inputs.
func assertDependencyOrder(t *testing.T, nodes []*reference.Node) {
	for idx, node := range nodes {
		for _, input := range node.Inputs() {
			inputIdx := slices.Index(nodes, input)
			require.GreaterOrEqual(t, inputIdx, 0)
			assert.Less(t, inputIdx, idx, "input %s of node #%d (%s) was ingested after it",
				input.OpType(), idx, node.OpType())
		}
	}
}

func TestBuild(t *testing.T) {
	b := newTestBuilder(t)

	x := b.Input("x", shapes.Make(dtypes.Float32, 1, 10))
	weights := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 10, 5), make([]float32, 50))
	logits := b.Gemm(x, weights, nil)
	probs := b.Softmax(logits)
	require.False(t, probs.IsError())

	exec := compile(t, b, graph.NewNamedOperands().Set("probs", probs))

	assert.Equal(t, t.Name(), exec.Name())
	assert.Equal(t, []string{"probs"}, exec.Outputs())

	inputNames, inputShapes := exec.Inputs()
	assert.Equal(t, []string{"x"}, inputNames)
	require.Len(t, inputShapes, 1)
	assert.True(t, inputShapes[0].Equal(shapes.Make(dtypes.Float32, 1, 10)))

	assert.ElementsMatch(t, []backends.OpType{
		backends.OpTypeInput, backends.OpTypeConstant, backends.OpTypeGemm, backends.OpTypeSoftmax,
	}, exec.OpTypes())
	assertDependencyOrder(t, exec.Nodes())
}

// TestBuildSharedDependency checks that an operand consumed by several
// downstream operators is ingested exactly once.
func TestBuildSharedDependency(t *testing.T) {
	b := newTestBuilder(t)

	x := b.Input("x", shapes.Make(dtypes.Float32, 2, 2))
	left := b.Relu(x)
	right := b.Sigmoid(x)
	sum := b.Add(left, right)

	exec := compile(t, b, graph.NewNamedOperands().Set("sum", sum))
	require.Len(t, exec.Nodes(), 4)
	assert.ElementsMatch(t, []backends.OpType{
		backends.OpTypeInput, backends.OpTypeRelu, backends.OpTypeSigmoid, backends.OpTypeAdd,
	}, exec.OpTypes())
	assertDependencyOrder(t, exec.Nodes())
}

// TestBuildMultipleOutputs checks that outputs are registered in the
// insertion order of the named operands.
func TestBuildMultipleOutputs(t *testing.T) {
	b := newTestBuilder(t)

	x := b.Input("x", shapes.Make(dtypes.Float32, 2, 2))
	relu := b.Relu(x)
	tanh := b.Tanh(x)

	exec := compile(t, b, graph.NewNamedOperands().
		Set("zRelu", relu).
		Set("aTanh", tanh))
	assert.Equal(t, []string{"zRelu", "aTanh"}, exec.Outputs())
}

// TestBuildClampRewrite checks that a clamp activation on Conv2d and
// BatchNorm is materialized as a standalone Clamp node instead of a fused
// attribute. The reference backend rejects fused clamps, so a successful
// build also proves no fused clamp reached it.
func TestBuildClampRewrite(t *testing.T) {
	t.Run("conv2d", func(t *testing.T) {
		b := newTestBuilder(t)
		x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
		filter := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 4, 3, 3, 3), make([]float32, 108))
		y := b.Conv2d(x, filter, &graph.Conv2dOptions{
			Activation: b.ClampOperator(&graph.ClampOptions{MinValue: 0, MaxValue: 6}),
		})
		require.False(t, y.IsError())
		require.Equal(t, backends.OpTypeClamp, y.Producer().OpType())

		// The clamp's single input is the convolution's output.
		clampInputs := y.Producer().Inputs()
		require.Len(t, clampInputs, 1)
		assert.Equal(t, backends.OpTypeConv2d, clampInputs[0].Producer().OpType())

		exec := compile(t, b, graph.NewNamedOperands().Set("y", y))
		assert.Equal(t, []backends.OpType{
			backends.OpTypeInput, backends.OpTypeConstant, backends.OpTypeConv2d, backends.OpTypeClamp,
		}, exec.OpTypes())
	})

	t.Run("batchNorm", func(t *testing.T) {
		b := newTestBuilder(t)
		x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
		mean := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 3), make([]float32, 3))
		variance := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 3), []float32{1, 1, 1})
		y := b.BatchNorm(x, mean, variance, &graph.BatchNormOptions{
			Activation: b.ClampOperator(&graph.ClampOptions{MinValue: -1, MaxValue: 1}),
		})
		require.False(t, y.IsError())
		require.Equal(t, backends.OpTypeClamp, y.Producer().OpType())

		exec := compile(t, b, graph.NewNamedOperands().Set("y", y))
		opTypes := exec.OpTypes()
		assert.Contains(t, opTypes, backends.OpTypeBatchNorm)
		assert.Equal(t, backends.OpTypeClamp, opTypes[len(opTypes)-1])
	})

	// A rejected primary operator must not leave a dangling clamp behind.
	t.Run("invalid primary", func(t *testing.T) {
		b := newTestBuilder(t)
		x := b.Input("x", shapes.Make(dtypes.Float32, 3, 8, 8)) // not 4-D
		filter := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 4, 3, 3, 3), make([]float32, 108))
		y := b.Conv2d(x, filter, &graph.Conv2dOptions{
			Activation: b.ClampOperator(&graph.ClampOptions{MinValue: 0, MaxValue: 6}),
		})
		require.True(t, y.IsError())
		assert.ErrorContains(t, b.LastError(), "4-D tensor")
	})
}

// TestBuildFusedActivation checks that non-clamp activations stay embedded:
// no standalone activation node is materialized.
func TestBuildFusedActivation(t *testing.T) {
	b := newTestBuilder(t)
	x := b.Input("x", shapes.Make(dtypes.Float32, 1, 3, 8, 8))
	filter := b.ConstantFromFloat32s(shapes.Make(dtypes.Float32, 4, 3, 3, 3), make([]float32, 108))
	y := b.Conv2d(x, filter, &graph.Conv2dOptions{Activation: b.ReluOperator()})
	require.False(t, y.IsError())
	require.Equal(t, backends.OpTypeConv2d, y.Producer().OpType())

	exec := compile(t, b, graph.NewNamedOperands().Set("y", y))
	assert.Equal(t, []backends.OpType{
		backends.OpTypeInput, backends.OpTypeConstant, backends.OpTypeConv2d,
	}, exec.OpTypes())
}

func TestBuildSplit(t *testing.T) {
	b := newTestBuilder(t)
	x := b.Input("x", shapes.Make(dtypes.Float32, 4, 6))
	parts := b.Split(x, []int{2, 4}, &graph.SplitOptions{Axis: 1})
	require.False(t, parts.IsError())
	require.Equal(t, 2, parts.Len())

	exec := compile(t, b, graph.NewNamedOperands().
		Set("first", parts.Get(0)).
		Set("second", parts.Get(1)))
	assert.Equal(t, []string{"first", "second"}, exec.Outputs())
	assert.Equal(t, []backends.OpType{backends.OpTypeInput, backends.OpTypeSplit}, exec.OpTypes())
}

// graphCountingBackend wraps a backend and counts NewGraph calls.
type graphCountingBackend struct {
	backends.Backend
	newGraphCalls int
}

func (c *graphCountingBackend) NewGraph(name string) (backends.Graph, error) {
	c.newGraphCalls++
	return c.Backend.NewGraph(name)
}

func TestBuildErrors(t *testing.T) {
	t.Run("empty outputs", func(t *testing.T) {
		inner, err := backends.NewWithConfig(reference.BackendName)
		require.NoError(t, err)
		counting := &graphCountingBackend{Backend: inner}
		b := graph.New(counting, t.Name())

		b.Input("x", shapes.Make(dtypes.Float32, 2))
		_, err = b.Build(graph.NewNamedOperands())
		require.ErrorContains(t, err, "empty")
		assert.Equal(t, err, b.LastError())

		// The precondition fails before any backend interaction.
		assert.Zero(t, counting.newGraphCalls)
	})

	t.Run("error output operand", func(t *testing.T) {
		b := newTestBuilder(t)
		bad := b.Softmax(b.Input("x", shapes.Make(dtypes.Float32, 2, 3, 4)))
		require.True(t, bad.IsError())
		_, err := b.Build(graph.NewNamedOperands().Set("y", bad))
		require.ErrorContains(t, err, `output operand "y" is an error`)
	})

	// A detached fused-role handle is never materialized as a graph node, so
	// registering its output must fail cleanly instead of reaching the
	// backend ingestion loop.
	t.Run("fused-role output", func(t *testing.T) {
		b := newTestBuilder(t)
		detached := b.ReluOperator()
		require.False(t, detached.IsError())

		_, err := b.Build(graph.NewNamedOperands().Set("y", detached.PrimaryOutput()))
		require.ErrorContains(t, err, "fused-role operator")
	})

	t.Run("output from another builder", func(t *testing.T) {
		b1 := newTestBuilder(t)
		b2 := newTestBuilder(t)
		y := b2.Relu(b2.Input("x", shapes.Make(dtypes.Float32, 2)))
		_, err := b1.Build(graph.NewNamedOperands().Set("y", y))
		require.ErrorContains(t, err, "different graph builder")
	})
}

// TestBuildLargeChain exercises the explicit-stack traversal on a chain deep
// enough to overflow a recursive one.
func TestBuildLargeChain(t *testing.T) {
	b := newTestBuilder(t)
	x := b.Input("x", shapes.Make(dtypes.Float32, 2, 2))

	const depth = 100_000
	y := x
	for range depth {
		y = b.Relu(y)
	}
	require.False(t, y.IsError())

	exec := compile(t, b, graph.NewNamedOperands().Set("y", y))
	assert.Len(t, exec.Nodes(), depth+1)
}
