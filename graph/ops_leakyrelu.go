// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/nngraph/nngraph/backends"
)

// LeakyReluOptions configures LeakyRelu operators. Nil options use the
// default alpha of 0.01.
type LeakyReluOptions struct {
	// Alpha is the slope applied to negative values.
	Alpha float32
}

type leakyReluOp struct {
	alpha float32
}

func newLeakyReluPayload(options *LeakyReluOptions) *leakyReluOp {
	if options == nil {
		return &leakyReluOp{alpha: 0.01}
	}
	return &leakyReluOp{alpha: options.Alpha}
}

func (p *leakyReluOp) validate(op *Operator) error {
	return nil
}

func (p *leakyReluOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddLeakyRelu(x, p.alpha)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// LeakyRelu computes x for positive values and alpha*x for negative ones,
// element-wise.
func (b *Builder) LeakyRelu(x *Operand, options *LeakyReluOptions) *Operand {
	return b.validateForOperand(b.newOperator(backends.OpTypeLeakyRelu, newLeakyReluPayload(options), x))
}

// LeakyReluOperator returns a detached leaky-relu for use as a fused
// activation.
func (b *Builder) LeakyReluOperator(options *LeakyReluOptions) *Operator {
	op := b.newOperator(backends.OpTypeLeakyRelu, newLeakyReluPayload(options))
	op.fusedOp = backends.FusedLeakyRelu
	return b.validateFusedOperator(op)
}
