// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package reference

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/types/shapes"
)

// Executable is the compiled artifact of the reference backend: a frozen
// snapshot of the recorded graph. It does not execute.
type Executable struct {
	id   uuid.UUID
	name string

	nodes []*Node

	inputNames  []string
	inputShapes []shapes.Shape
	outputNames []string
}

var _ backends.Executable = (*Executable)(nil)

func newExecutable(g *Graph) *Executable {
	e := &Executable{
		id:    uuid.New(),
		name:  g.name,
		nodes: slices.Clone(g.nodes),
	}
	for _, input := range g.inputs {
		e.inputNames = append(e.inputNames, input.name)
		e.inputShapes = append(e.inputShapes, input.shape)
	}
	for _, binding := range g.outputs {
		e.outputNames = append(e.outputNames, binding.name)
	}
	klog.V(1).Infof("compiled graph %q (%s): %d operators, %d inputs, %d outputs",
		e.name, e.id, len(e.nodes), len(e.inputNames), len(e.outputNames))
	return e
}

// Name implements backends.Executable.
func (e *Executable) Name() string { return e.name }

// String identifies the executable by name and compilation id.
func (e *Executable) String() string {
	return fmt.Sprintf("%s/%s", e.name, e.id)
}

// Inputs implements backends.Executable.
func (e *Executable) Inputs() (names []string, inputShapes []shapes.Shape) {
	return slices.Clone(e.inputNames), slices.Clone(e.inputShapes)
}

// Outputs implements backends.Executable.
func (e *Executable) Outputs() (names []string) {
	return slices.Clone(e.outputNames)
}

// Nodes returns the compiled operators in ingestion order. It is not part
// of the backends.Executable contract, only used for inspection.
func (e *Executable) Nodes() []*Node { return slices.Clone(e.nodes) }

// OpTypes returns the op type of every compiled operator, in ingestion
// order.
func (e *Executable) OpTypes() []backends.OpType {
	opTypes := make([]backends.OpType, len(e.nodes))
	for idx, node := range e.nodes {
		opTypes[idx] = node.opType
	}
	return opTypes
}

// Finalize implements backends.Executable.
func (e *Executable) Finalize() {
	e.nodes = nil
	e.inputNames = nil
	e.inputShapes = nil
	e.outputNames = nil
}
