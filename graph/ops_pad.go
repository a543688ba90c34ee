// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// PadOptions configures Pad operators. Nil options pad with constant zeros.
type PadOptions struct {
	Mode backends.PadMode
	// Value fills the padded elements in constant mode.
	Value float32
}

type padOp struct {
	mode  backends.PadMode
	value float32
}

func newPadPayload(options *PadOptions) *padOp {
	if options == nil {
		return &padOp{mode: backends.PadModeConstant}
	}
	return &padOp{mode: options.Mode, value: options.Value}
}

func (p *padOp) validate(op *Operator) error {
	padding := op.inputs[1]
	if padding.Rank() != 2 {
		return errors.Errorf("pad padding must be a 2-D tensor of begin/end counts per axis, got rank %d",
			padding.Rank())
	}
	return nil
}

func (p *padOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	padding, err := st.handle(op.inputs[1])
	if err != nil {
		return err
	}
	h, err := g.AddPad(x, padding, p.mode, p.value)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Pad pads the input as described by the padding operand, a [rank, 2] tensor
// of begin/end counts per axis.
func (b *Builder) Pad(input, padding *Operand, options *PadOptions) *Operand {
	op := b.newOperator(backends.OpTypePad, newPadPayload(options), input, padding)
	return b.validateForOperand(op)
}
