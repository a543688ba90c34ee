// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package reference

import (
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/types"
	"github.com/nngraph/nngraph/types/shapes"
)

// Graph implements backends.Graph by recording the operators in ingestion
// order.
type Graph struct {
	backend *Backend
	name    string

	// nodes are appended in ingestion order. Inputs of a node always precede
	// it, since the front end feeds operators in dependency order.
	nodes   []*Node
	inputs  []*Node
	outputs []outputBinding

	outputNames types.Set[string]
	finished    bool
	compiled    bool
}

var _ backends.Graph = (*Graph)(nil)

type outputBinding struct {
	name string
	node *Node
}

// Node records one ingested operator.
type Node struct {
	graph  *Graph
	idx    int
	opType backends.OpType
	inputs []*Node

	// shape is the descriptor shape, only set for Input and Constant nodes.
	shape shapes.Shape

	// name is only set for Input nodes.
	name string

	// attrs holds the operator-specific attributes, when any.
	attrs any
}

// OpType of the recorded operator.
func (n *Node) OpType() backends.OpType { return n.opType }

// Inputs of the recorded operator, in ingestion order.
func (n *Node) Inputs() []*Node { return slices.Clone(n.inputs) }

func newGraph(backend *Backend, name string) *Graph {
	return &Graph{
		backend:     backend,
		name:        name,
		outputNames: types.MakeSet[string](),
	}
}

// Name implements backends.Graph.
func (g *Graph) Name() string { return g.name }

// Nodes returns the recorded operators in ingestion order. It is not part
// of the backends.Graph contract, only used for inspection.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// checkOpen returns an error if the graph can no longer accept operators.
func (g *Graph) checkOpen(opType backends.OpType) error {
	if g.finished {
		return errors.Errorf("cannot add %s to graph %q, it has already been finished", opType, g.name)
	}
	return nil
}

// checkOps casts the given handles to nodes and verifies they belong to
// this graph.
func (g *Graph) checkOps(opType backends.OpType, ops ...backends.Op) ([]*Node, error) {
	nodes := make([]*Node, len(ops))
	for idx, op := range ops {
		if op == nil {
			return nil, errors.Errorf("%s: input op #%d is nil", opType, idx)
		}
		node, ok := op.(*Node)
		if !ok {
			return nil, errors.Errorf("%s: input op #%d was not created by the %q backend", opType, idx, BackendName)
		}
		if node.graph != g {
			return nil, errors.Errorf("%s: input op #%d was created on a different graph (%q), cannot use it with graph %q",
				opType, idx, node.graph.name, g.name)
		}
		nodes[idx] = node
	}
	return nodes, nil
}

// newNode records a new node of the given opType, it's used by the Add*
// methods after their own checks.
func (g *Graph) newNode(opType backends.OpType, attrs any, inputs ...*Node) *Node {
	n := &Node{
		graph:  g,
		idx:    len(g.nodes),
		opType: opType,
		inputs: slices.Clone(inputs),
		shape:  shapes.Invalid(),
		attrs:  attrs,
	}
	g.nodes = append(g.nodes, n)
	return n
}

// AddInput implements backends.Graph.
func (g *Graph) AddInput(name string, shape shapes.Shape) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeInput); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Errorf("input name must not be empty in graph %q", g.name)
	}
	if err := shape.Check(); err != nil {
		return nil, errors.WithMessagef(err, "invalid shape for input %q", name)
	}
	n := g.newNode(backends.OpTypeInput, nil)
	n.name = name
	n.shape = shape.Clone()
	g.inputs = append(g.inputs, n)
	return n, nil
}

// AddConstant implements backends.Graph.
func (g *Graph) AddConstant(shape shapes.Shape, data []byte) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeConstant); err != nil {
		return nil, err
	}
	if err := shape.Check(); err != nil {
		return nil, errors.WithMessage(err, "invalid shape for constant")
	}
	if uintptr(len(data)) != shape.Memory() {
		return nil, errors.Errorf("constant data has %d bytes, shape %s requires %d", len(data), shape, shape.Memory())
	}
	klog.V(1).Infof("graph %q: constant %s (%s)", g.name, shape, humanize.Bytes(uint64(len(data))))
	n := g.newNode(backends.OpTypeConstant, slices.Clone(data))
	n.shape = shape.Clone()
	return n, nil
}

var unaryOpTypes = types.SetWith(
	backends.OpTypeRelu,
	backends.OpTypeSigmoid,
	backends.OpTypeTanh,
	backends.OpTypeHardSwish,
	backends.OpTypeSoftmax,
)

// AddUnary implements backends.Graph.
func (g *Graph) AddUnary(opType backends.OpType, x backends.Op) (backends.Op, error) {
	if !unaryOpTypes.Has(opType) {
		return nil, errors.Errorf("%s is not a unary operator", opType)
	}
	if err := g.checkOpen(opType); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(opType, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(opType, nil, inputs...), nil
}

var binaryOpTypes = types.SetWith(
	backends.OpTypeAdd,
	backends.OpTypeSub,
	backends.OpTypeMul,
	backends.OpTypeDiv,
	backends.OpTypeMax,
	backends.OpTypeMin,
	backends.OpTypePow,
	backends.OpTypeMatMul,
)

// AddBinary implements backends.Graph.
func (g *Graph) AddBinary(opType backends.OpType, lhs, rhs backends.Op) (backends.Op, error) {
	if !binaryOpTypes.Has(opType) {
		return nil, errors.Errorf("%s is not a binary operator", opType)
	}
	if err := g.checkOpen(opType); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(opType, lhs, rhs)
	if err != nil {
		return nil, err
	}
	return g.newNode(opType, nil, inputs...), nil
}

// AddConv2d implements backends.Graph.
func (g *Graph) AddConv2d(x, filter backends.Op, attrs *backends.ConvAttrs) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeConv2d); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeConv2d, x, filter)
	if err != nil {
		return nil, err
	}
	if attrs != nil && attrs.Activation.Op == backends.FusedClamp {
		// The front end rewrites clamp activations into standalone nodes.
		return nil, errors.Errorf("backend %q does not support fusing a clamp into Conv2d", BackendName)
	}
	return g.newNode(backends.OpTypeConv2d, attrs, inputs...), nil
}

var poolOpTypes = types.SetWith(
	backends.OpTypeAveragePool2d,
	backends.OpTypeMaxPool2d,
)

// AddPool2d implements backends.Graph.
func (g *Graph) AddPool2d(opType backends.OpType, x backends.Op, attrs *backends.PoolAttrs) (backends.Op, error) {
	if !poolOpTypes.Has(opType) {
		return nil, errors.Errorf("%s is not a pooling operator", opType)
	}
	if err := g.checkOpen(opType); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(opType, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(opType, attrs, inputs...), nil
}

// AddReduceMean implements backends.Graph.
func (g *Graph) AddReduceMean(x backends.Op, axes []int, keepDims bool) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeReduceMean); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeReduceMean, x)
	if err != nil {
		return nil, err
	}
	attrs := struct {
		axes     []int
		keepDims bool
	}{slices.Clone(axes), keepDims}
	return g.newNode(backends.OpTypeReduceMean, attrs, inputs...), nil
}

// AddBatchNorm implements backends.Graph.
func (g *Graph) AddBatchNorm(x, mean, variance, scale, bias backends.Op, attrs *backends.NormAttrs) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeBatchNorm); err != nil {
		return nil, err
	}
	ops := []backends.Op{x, mean, variance}
	if scale != nil {
		ops = append(ops, scale)
	}
	if bias != nil {
		ops = append(ops, bias)
	}
	inputs, err := g.checkOps(backends.OpTypeBatchNorm, ops...)
	if err != nil {
		return nil, err
	}
	if attrs != nil && attrs.Activation.Op == backends.FusedClamp {
		return nil, errors.Errorf("backend %q does not support fusing a clamp into BatchNorm", BackendName)
	}
	return g.newNode(backends.OpTypeBatchNorm, attrs, inputs...), nil
}

// AddInstanceNorm implements backends.Graph.
func (g *Graph) AddInstanceNorm(x, scale, bias backends.Op, attrs *backends.NormAttrs) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeInstanceNorm); err != nil {
		return nil, err
	}
	ops := []backends.Op{x}
	if scale != nil {
		ops = append(ops, scale)
	}
	if bias != nil {
		ops = append(ops, bias)
	}
	inputs, err := g.checkOps(backends.OpTypeInstanceNorm, ops...)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeInstanceNorm, attrs, inputs...), nil
}

// AddClamp implements backends.Graph.
func (g *Graph) AddClamp(x backends.Op, minValue, maxValue float32) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeClamp); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeClamp, x)
	if err != nil {
		return nil, err
	}
	attrs := struct{ minValue, maxValue float32 }{minValue, maxValue}
	return g.newNode(backends.OpTypeClamp, attrs, inputs...), nil
}

// AddConcat implements backends.Graph.
func (g *Graph) AddConcat(ops []backends.Op, axis int) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeConcat); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeConcat, ops...)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeConcat, axis, inputs...), nil
}

// AddSplit implements backends.Graph.
func (g *Graph) AddSplit(x backends.Op, splits []int, axis int) ([]backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeSplit); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeSplit, x)
	if err != nil {
		return nil, err
	}
	numOutputs := len(splits)
	if numOutputs == 1 {
		numOutputs = splits[0]
	}
	if numOutputs < 1 {
		return nil, errors.Errorf("Split must produce at least one output, got splits=%v", splits)
	}
	attrs := struct {
		splits []int
		axis   int
	}{slices.Clone(splits), axis}
	node := g.newNode(backends.OpTypeSplit, attrs, inputs...)
	outputs := make([]backends.Op, numOutputs)
	for idx := range outputs {
		outputs[idx] = node
	}
	// All parts share the recorded node: the reference backend does not
	// materialize per-part buffers.
	return outputs, nil
}

// AddGemm implements backends.Graph.
func (g *Graph) AddGemm(a, b, c backends.Op, attrs *backends.GemmAttrs) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeGemm); err != nil {
		return nil, err
	}
	ops := []backends.Op{a, b}
	if c != nil {
		ops = append(ops, c)
	}
	inputs, err := g.checkOps(backends.OpTypeGemm, ops...)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeGemm, attrs, inputs...), nil
}

// AddReshape implements backends.Graph.
func (g *Graph) AddReshape(x backends.Op, newShape []int) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeReshape); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeReshape, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeReshape, slices.Clone(newShape), inputs...), nil
}

// AddTranspose implements backends.Graph.
func (g *Graph) AddTranspose(x backends.Op, permutation []int) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeTranspose); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeTranspose, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeTranspose, slices.Clone(permutation), inputs...), nil
}

// AddPad implements backends.Graph.
func (g *Graph) AddPad(x, padding backends.Op, mode backends.PadMode, value float32) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypePad); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypePad, x, padding)
	if err != nil {
		return nil, err
	}
	attrs := struct {
		mode  backends.PadMode
		value float32
	}{mode, value}
	return g.newNode(backends.OpTypePad, attrs, inputs...), nil
}

// AddResample implements backends.Graph.
func (g *Graph) AddResample(x backends.Op, attrs *backends.ResampleAttrs) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeResample); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeResample, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeResample, attrs, inputs...), nil
}

// AddSqueeze implements backends.Graph.
func (g *Graph) AddSqueeze(x backends.Op, axes []int) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeSqueeze); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeSqueeze, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeSqueeze, slices.Clone(axes), inputs...), nil
}

// AddLeakyRelu implements backends.Graph.
func (g *Graph) AddLeakyRelu(x backends.Op, alpha float32) (backends.Op, error) {
	if err := g.checkOpen(backends.OpTypeLeakyRelu); err != nil {
		return nil, err
	}
	inputs, err := g.checkOps(backends.OpTypeLeakyRelu, x)
	if err != nil {
		return nil, err
	}
	return g.newNode(backends.OpTypeLeakyRelu, alpha, inputs...), nil
}

// AddOutput implements backends.Graph.
func (g *Graph) AddOutput(name string, output backends.Op) error {
	if g.finished {
		return errors.Errorf("cannot add output %q to graph %q, it has already been finished", name, g.name)
	}
	if name == "" {
		return errors.Errorf("output name must not be empty in graph %q", g.name)
	}
	if g.outputNames.Has(name) {
		return errors.Errorf("output %q registered twice in graph %q", name, g.name)
	}
	nodes, err := g.checkOps(backends.OpTypeInvalid, output)
	if err != nil {
		return errors.WithMessagef(err, "output %q", name)
	}
	g.outputNames.Insert(name)
	g.outputs = append(g.outputs, outputBinding{name: name, node: nodes[0]})
	return nil
}

// Finish implements backends.Graph.
func (g *Graph) Finish() error {
	if g.finished {
		return errors.Errorf("graph %q has already been finished", g.name)
	}
	if len(g.outputs) == 0 {
		return errors.Errorf("cannot finish graph %q without any registered output", g.name)
	}
	g.finished = true
	return nil
}

// Compile implements backends.Graph.
func (g *Graph) Compile() (backends.Executable, error) {
	if !g.finished {
		return nil, errors.Errorf("graph %q must be finished before compiling", g.name)
	}
	if g.compiled {
		return nil, errors.Errorf("graph %q has already been compiled", g.name)
	}
	g.compiled = true
	return newExecutable(g), nil
}
