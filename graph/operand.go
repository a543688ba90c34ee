// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
)

// Operand is a tensor-valued graph edge: the output of exactly one Operator
// (its producer), consumed as input by any number of downstream operators
// and/or registered as a named graph output.
//
// Operands are immutable after construction. An Operand may instead be an
// error sentinel (see Operand.IsError), produced when the operator that
// would have produced it failed validation; sentinels have no producer and
// an invalid dtype.
type Operand struct {
	builder  *Builder
	producer *Operator

	dtype dtypes.DType
	rank  int

	isError bool
}

// newOperand constructs the output operand of op. The dtype and rank
// default to those of the operator's first input; operators without inputs
// default to a Float32 scalar (rank 0). Operator constructors that need a
// different output contract use newOperandWithRank instead.
func newOperand(op *Operator) *Operand {
	o := &Operand{
		builder:  op.builder,
		producer: op,
		dtype:    dtypes.Float32,
		rank:     0,
	}
	if len(op.inputs) >= 1 && op.inputs[0] != nil {
		// The type and rank are the same as inputs[0] by default.
		o.dtype = op.inputs[0].dtype
		o.rank = op.inputs[0].rank
	}
	return o
}

// newOperandWithRank constructs an output operand of op with an explicit
// dtype and rank, overriding the default inheritance from the first input.
func newOperandWithRank(op *Operator, dtype dtypes.DType, rank int) *Operand {
	return &Operand{
		builder:  op.builder,
		producer: op,
		dtype:    dtype,
		rank:     rank,
	}
}

// makeErrorOperand constructs an error-sentinel Operand. The concrete
// diagnostic was already consumed by the builder when validation failed.
func makeErrorOperand(b *Builder) *Operand {
	return &Operand{builder: b, dtype: dtypes.InvalidDType, isError: true}
}

// DType of the operand's elements.
func (o *Operand) DType() dtypes.DType { return o.dtype }

// Rank of the operand: its number of dimensions.
func (o *Operand) Rank() int { return o.rank }

// Producer returns the Operator whose primary (or selected) output this
// operand is. It is nil for error sentinels.
func (o *Operand) Producer() *Operator { return o.producer }

// IsError returns whether the operand is an error sentinel.
func (o *Operand) IsError() bool { return o == nil || o.isError }

// String implements fmt.Stringer.
func (o *Operand) String() string {
	if o.IsError() {
		return "Operand[error]"
	}
	return fmt.Sprintf("Operand[%s](%s, rank=%d)", o.producer.opType, o.dtype, o.rank)
}

// OperandArray is the ordered collection of operands produced by a
// multi-output operator (Split). Like Operand, it has an error-sentinel
// variant.
type OperandArray struct {
	builder  *Builder
	operands []*Operand
	isError  bool
}

// makeErrorOperandArray constructs an error-sentinel OperandArray.
func makeErrorOperandArray(b *Builder) *OperandArray {
	return &OperandArray{builder: b, isError: true}
}

// IsError returns whether the array is an error sentinel.
func (a *OperandArray) IsError() bool { return a == nil || a.isError }

// Len returns the number of operands in the array. Error sentinels have
// length 0.
func (a *OperandArray) Len() int {
	if a.IsError() {
		return 0
	}
	return len(a.operands)
}

// Get returns the idx-th operand. Out-of-range indices (and any index of an
// error-sentinel array) return an error-sentinel Operand, so results can be
// fed to further builder calls without checking.
func (a *OperandArray) Get(idx int) *Operand {
	if a.IsError() || idx < 0 || idx >= len(a.operands) {
		return makeErrorOperand(a.builder)
	}
	return a.operands[idx]
}

// Operands returns a copy of the operands in the array.
func (a *OperandArray) Operands() []*Operand {
	return slices.Clone(a.operands)
}
