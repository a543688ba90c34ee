// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// binaryOp covers the element-wise binary operators (Add, Sub, Mul, Div,
// Max, Min, Pow) and MatMul.
type binaryOp struct{}

func (binaryOp) validate(op *Operator) error {
	lhs, rhs := op.inputs[0], op.inputs[1]
	if lhs.DType() != rhs.DType() {
		return errors.Errorf("the operands of %s must have the same dtype, got %s and %s",
			op.opType, lhs.DType(), rhs.DType())
	}
	if op.opType == backends.OpTypeMatMul {
		if lhs.Rank() < 2 || rhs.Rank() < 2 {
			return errors.Errorf("the operands of MatMul must be at least 2-D tensors, got ranks %d and %d",
				lhs.Rank(), rhs.Rank())
		}
	}
	return nil
}

func (binaryOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	lhs, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	rhs, err := st.handle(op.inputs[1])
	if err != nil {
		return err
	}
	h, err := g.AddBinary(op.opType, lhs, rhs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

func (b *Builder) binary(opType backends.OpType, lhs, rhs *Operand) *Operand {
	return b.validateForOperand(b.newOperator(opType, binaryOp{}, lhs, rhs))
}

// Add computes lhs + rhs element-wise.
func (b *Builder) Add(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeAdd, lhs, rhs) }

// Sub computes lhs - rhs element-wise.
func (b *Builder) Sub(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeSub, lhs, rhs) }

// Mul computes lhs * rhs element-wise.
func (b *Builder) Mul(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeMul, lhs, rhs) }

// Div computes lhs / rhs element-wise.
func (b *Builder) Div(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeDiv, lhs, rhs) }

// Max computes max(lhs, rhs) element-wise.
func (b *Builder) Max(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeMax, lhs, rhs) }

// Min computes min(lhs, rhs) element-wise.
func (b *Builder) Min(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeMin, lhs, rhs) }

// Pow computes lhs raised to the power rhs, element-wise.
func (b *Builder) Pow(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypePow, lhs, rhs) }

// Matmul computes the matrix product of lhs and rhs.
func (b *Builder) Matmul(lhs, rhs *Operand) *Operand { return b.binary(backends.OpTypeMatMul, lhs, rhs) }
