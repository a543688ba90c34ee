// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// opPayload holds the variant-specific part of an Operator: its options,
// its validation rule and its lowering to a backend graph.
//
// Together with Operator this forms a closed capability set
// (Validate/Inputs/PrimaryOutput/addToGraph): new operator kinds are added
// as new payload types, not by extending the interface.
type opPayload interface {
	// validate applies the variant-specific rules. It runs after the base
	// validation, so it can rely on op.inputs being non-nil, non-sentinel
	// operands with valid dtypes.
	validate(op *Operator) error

	// addToGraph feeds the operator to the backend graph and records the
	// backend handles of its outputs in st. It is only called on validated
	// operators whose inputs were already added.
	addToGraph(op *Operator, g backends.Graph, st *buildState) error
}

// Operator is a computation node: it consumes zero or more input operands
// and produces one or more output operands (a primary output, plus ordered
// extras for multi-output kinds like Split).
//
// Operators are created by Builder methods and validated at creation time;
// the outputs of an operator that failed validation are never exposed, the
// builder call returns an error sentinel instead.
type Operator struct {
	builder *Builder
	opType  backends.OpType
	inputs  []*Operand
	payload opPayload

	// fusedOp marks a detached fused-role operator: one constructed only to
	// be embedded as the activation of another operator, never materialized
	// as a standalone node.
	fusedOp backends.FusedOp

	outputs []*Operand

	isError bool
}

// newOperator constructs an operator with a single output operand whose
// dtype/rank follow the default inheritance rule (see newOperand). The
// caller validates it via one of the Builder.validate* helpers.
func (b *Builder) newOperator(opType backends.OpType, payload opPayload, inputs ...*Operand) *Operator {
	op := &Operator{
		builder: b,
		opType:  opType,
		inputs:  slices.Clone(inputs),
		payload: payload,
	}
	op.outputs = []*Operand{newOperand(op)}
	return op
}

// makeErrorOperator constructs an error-sentinel Operator, returned by
// fused-role builder calls whose validation failed.
func makeErrorOperator(b *Builder) *Operator {
	return &Operator{builder: b, isError: true}
}

// OpType identifies the operator kind.
func (op *Operator) OpType() backends.OpType {
	if op == nil {
		return backends.OpTypeInvalid
	}
	return op.opType
}

// Inputs returns the ordered input operands.
func (op *Operator) Inputs() []*Operand { return slices.Clone(op.inputs) }

// PrimaryOutput returns the operator's first (usually only) output operand.
func (op *Operator) PrimaryOutput() *Operand {
	if op == nil || len(op.outputs) == 0 {
		return nil
	}
	return op.outputs[0]
}

// Outputs returns all output operands, in order.
func (op *Operator) Outputs() []*Operand { return slices.Clone(op.outputs) }

// IsError returns whether the operator is an error sentinel.
func (op *Operator) IsError() bool { return op == nil || op.isError }

// FusedOperator returns the activation this operator stands for when
// embedded into another operator, or backends.FusedNone for regular
// operators.
func (op *Operator) FusedOperator() backends.FusedOp {
	if op == nil {
		return backends.FusedNone
	}
	return op.fusedOp
}

// fusedActivation returns the attribute form of a fused-role operator, for
// embedding into backend operator attributes.
func (op *Operator) fusedActivation() backends.FusedActivation {
	activation := backends.FusedActivation{Op: op.FusedOperator()}
	if p, ok := op.payload.(*leakyReluOp); ok {
		activation.Alpha = p.alpha
	}
	return activation
}

// clampOptions returns the clamp bounds of a fused-role clamp operator.
func (op *Operator) clampOptions() (*ClampOptions, bool) {
	p, ok := op.payload.(*clampOp)
	if !ok {
		return nil, false
	}
	return &ClampOptions{MinValue: p.minValue, MaxValue: p.maxValue}, true
}

// Validate checks the operator's contract: first the base rules shared by
// all variants, then the variant-specific ones. It must succeed before the
// operator's outputs are well-formed.
func (op *Operator) Validate() error {
	if op.IsError() {
		return errors.Errorf("operator is an error")
	}
	if err := op.validateBase(); err != nil {
		return err
	}
	return op.payload.validate(op)
}

// validateBase holds the arity/input-sanity checks shared by all variants.
func (op *Operator) validateBase() error {
	for idx, input := range op.inputs {
		if input == nil {
			return errors.Errorf("input #%d of %s is nil", idx, op.opType)
		}
		if input.IsError() {
			return errors.Errorf("input #%d of %s is an error operand", idx, op.opType)
		}
		if input.producer == nil {
			return errors.Errorf("input #%d of %s has no producing operator", idx, op.opType)
		}
		if input.producer.fusedOp != backends.FusedNone {
			return errors.Errorf("input #%d of %s was produced by a detached fused-role operator (%s), which is never materialized as a graph node",
				idx, op.opType, input.producer.opType)
		}
		if input.builder != op.builder {
			return errors.Errorf("input #%d of %s was built by a different graph builder", idx, op.opType)
		}
	}
	return nil
}

// addToGraph feeds the operator to the backend graph, in build order.
func (op *Operator) addToGraph(g backends.Graph, st *buildState) error {
	if op.IsError() {
		return errors.Errorf("operator is an error")
	}
	return op.payload.addToGraph(op, g, st)
}

// validateActivation checks an operator option used as a fused activation.
func validateActivation(opType backends.OpType, activation *Operator) error {
	if activation == nil {
		return nil
	}
	if activation.IsError() {
		return errors.Errorf("the activation of %s is an error operator", opType)
	}
	if activation.FusedOperator() == backends.FusedNone {
		return errors.Errorf("the activation of %s must be a fused-role operator (e.g. Builder.ReluOperator), got %s",
			opType, activation.OpType())
	}
	return nil
}
