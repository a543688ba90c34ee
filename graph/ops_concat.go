// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

type concatOp struct {
	axis int
}

func (p *concatOp) validate(op *Operator) error {
	if len(op.inputs) == 0 {
		return errors.Errorf("concat requires at least one input")
	}
	first := op.inputs[0]
	if p.axis < 0 || p.axis >= first.Rank() {
		return errors.Errorf("concat axis %d is out of range for input rank %d", p.axis, first.Rank())
	}
	for idx, input := range op.inputs[1:] {
		if input.DType() != first.DType() {
			return errors.Errorf("concat inputs must all have the same dtype, input #%d is %s while input #0 is %s",
				idx+1, input.DType(), first.DType())
		}
		if input.Rank() != first.Rank() {
			return errors.Errorf("concat inputs must all have the same rank, input #%d has rank %d while input #0 has rank %d",
				idx+1, input.Rank(), first.Rank())
		}
	}
	return nil
}

func (p *concatOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	handles := make([]backends.Op, len(op.inputs))
	for idx, input := range op.inputs {
		h, err := st.handle(input)
		if err != nil {
			return err
		}
		handles[idx] = h
	}
	h, err := g.AddConcat(handles, p.axis)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Concat concatenates the inputs along the given axis. All inputs must share
// the same dtype and rank.
func (b *Builder) Concat(inputs []*Operand, axis int) *Operand {
	op := b.newOperator(backends.OpTypeConcat, &concatOp{axis: axis}, inputs...)
	return b.validateForOperand(op)
}
