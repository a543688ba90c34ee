// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// ReduceMeanOptions configures ReduceMean operators. Nil options (or empty
// Axes) reduce over all axes.
type ReduceMeanOptions struct {
	// Axes lists the axes to reduce. Empty means all axes.
	Axes []int
	// KeepDimensions keeps the reduced axes as size-1 dimensions instead of
	// removing them.
	KeepDimensions bool
}

type reduceMeanOp struct {
	axes     []int
	keepDims bool
}

func newReduceMeanPayload(options *ReduceMeanOptions) *reduceMeanOp {
	if options == nil {
		return &reduceMeanOp{}
	}
	return &reduceMeanOp{
		axes:     slices.Clone(options.Axes),
		keepDims: options.KeepDimensions,
	}
}

// outputRank of the reduction given the input rank.
func (p *reduceMeanOp) outputRank(inputRank int) int {
	if p.keepDims {
		return inputRank
	}
	numReduced := len(p.axes)
	if numReduced == 0 {
		numReduced = inputRank
	}
	return inputRank - numReduced
}

func (p *reduceMeanOp) validate(op *Operator) error {
	input := op.inputs[0]
	return checkAxes("reduceMean", p.axes, input.Rank())
}

func (p *reduceMeanOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddReduceMean(x, p.axes, p.keepDims)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// checkAxes verifies that axes are in [0, rank) and unique.
func checkAxes(what string, axes []int, rank int) error {
	seen := make(map[int]bool, len(axes))
	for _, axis := range axes {
		if axis < 0 || axis >= rank {
			return errors.Errorf("%s axis %d is out of range for input rank %d", what, axis, rank)
		}
		if seen[axis] {
			return errors.Errorf("%s axes must be unique, axis %d repeats", what, axis)
		}
		seen[axis] = true
	}
	return nil
}

// ReduceMean reduces the input by taking the mean over the given axes (all
// axes when none are given).
func (b *Builder) ReduceMean(input *Operand, options *ReduceMeanOptions) *Operand {
	payload := newReduceMeanPayload(options)
	op := b.newOperator(backends.OpTypeReduceMean, payload, input)
	if input != nil && !input.IsError() {
		op.outputs[0] = newOperandWithRank(op, input.DType(), payload.outputRank(input.Rank()))
	}
	return b.validateForOperand(op)
}
