// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// SplitOptions configures Split operators. Nil options split along axis 0.
type SplitOptions struct {
	Axis int
}

type splitOp struct {
	splits []int
	axis   int
}

func newSplitPayload(splits []int, options *SplitOptions) *splitOp {
	p := &splitOp{splits: slices.Clone(splits)}
	if options != nil {
		p.axis = options.Axis
	}
	return p
}

// numOutputs of the split: a single-element splits is a count of equally
// sized parts, otherwise splits lists the sizes of the parts.
func (p *splitOp) numOutputs() int {
	if len(p.splits) == 1 {
		return p.splits[0]
	}
	return len(p.splits)
}

func (p *splitOp) validate(op *Operator) error {
	input := op.inputs[0]
	if len(p.splits) == 0 {
		return errors.Errorf("split requires at least one split value")
	}
	for _, split := range p.splits {
		if split <= 0 {
			return errors.Errorf("split values must be positive, got %v", p.splits)
		}
	}
	if p.axis < 0 || p.axis >= input.Rank() {
		return errors.Errorf("split axis %d is out of range for input rank %d", p.axis, input.Rank())
	}
	return nil
}

func (p *splitOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	handles, err := g.AddSplit(x, p.splits, p.axis)
	if err != nil {
		return err
	}
	if len(handles) != len(op.outputs) {
		return errors.Errorf("backend split returned %d parts, want %d", len(handles), len(op.outputs))
	}
	for idx, h := range handles {
		st.setHandle(op.outputs[idx], h)
	}
	return nil
}

// Split splits the input along an axis into multiple parts. A single-element
// splits gives the number of equally sized parts; otherwise splits lists the
// size of each part. Each output keeps the input's dtype and rank.
func (b *Builder) Split(input *Operand, splits []int, options *SplitOptions) *OperandArray {
	payload := newSplitPayload(splits, options)
	op := b.newOperator(backends.OpTypeSplit, payload, input)
	if n := payload.numOutputs(); n > 1 {
		for idx := 1; idx < n; idx++ {
			op.outputs = append(op.outputs, newOperand(op))
		}
	}
	return b.validateForOperandArray(op)
}
