// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// unaryOp covers the element-wise unary operators (Relu, Sigmoid, Tanh,
// HardSwish) plus Softmax.
type unaryOp struct{}

func (unaryOp) validate(op *Operator) error {
	if op.opType == backends.OpTypeSoftmax {
		input := op.inputs[0]
		if input.Rank() != 2 {
			return errors.Errorf("softmax input dimensions is incorrect: the input must be a 2-D tensor, got rank %d", input.Rank())
		}
	}
	return nil
}

func (unaryOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddUnary(op.opType, x)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

func (b *Builder) unary(opType backends.OpType, x *Operand) *Operand {
	return b.validateForOperand(b.newOperator(opType, unaryOp{}, x))
}

// fusedUnary builds a detached unary operator handle for embedding as
// another operator's activation.
func (b *Builder) fusedUnary(opType backends.OpType, role backends.FusedOp) *Operator {
	op := b.newOperator(opType, unaryOp{})
	op.fusedOp = role
	return b.validateFusedOperator(op)
}

// Relu computes max(x, 0) element-wise.
func (b *Builder) Relu(x *Operand) *Operand {
	return b.unary(backends.OpTypeRelu, x)
}

// ReluOperator returns a detached relu for use as a fused activation.
func (b *Builder) ReluOperator() *Operator {
	return b.fusedUnary(backends.OpTypeRelu, backends.FusedRelu)
}

// Sigmoid computes 1/(1+exp(-x)) element-wise.
func (b *Builder) Sigmoid(x *Operand) *Operand {
	return b.unary(backends.OpTypeSigmoid, x)
}

// SigmoidOperator returns a detached sigmoid for use as a fused activation.
func (b *Builder) SigmoidOperator() *Operator {
	return b.fusedUnary(backends.OpTypeSigmoid, backends.FusedSigmoid)
}

// Tanh computes the hyperbolic tangent element-wise.
func (b *Builder) Tanh(x *Operand) *Operand {
	return b.unary(backends.OpTypeTanh, x)
}

// HardSwish computes x * relu6(x+3) / 6 element-wise.
func (b *Builder) HardSwish(x *Operand) *Operand {
	return b.unary(backends.OpTypeHardSwish, x)
}

// HardSwishOperator returns a detached hard-swish for use as a fused
// activation.
func (b *Builder) HardSwishOperator() *Operator {
	return b.fusedUnary(backends.OpTypeHardSwish, backends.FusedHardSwish)
}

// Softmax computes the softmax of a 2-D tensor along its last axis.
func (b *Builder) Softmax(x *Operand) *Operand {
	return b.unary(backends.OpTypeSoftmax, x)
}
