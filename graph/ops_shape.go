// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

type reshapeOp struct {
	newShape []int
}

func (p *reshapeOp) validate(op *Operator) error {
	if len(p.newShape) == 0 {
		return errors.Errorf("reshape new shape must not be empty")
	}
	numInferred := 0
	for _, dim := range p.newShape {
		switch {
		case dim == -1:
			numInferred++
		case dim <= 0:
			return errors.Errorf("reshape dimensions must be positive (or a single -1 to infer), got %v", p.newShape)
		}
	}
	if numInferred > 1 {
		return errors.Errorf("reshape allows at most one -1 dimension, got %v", p.newShape)
	}
	return nil
}

func (p *reshapeOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddReshape(x, p.newShape)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Reshape changes the dimensions of the input without changing its data. At
// most one dimension may be -1, inferred from the remaining ones.
func (b *Builder) Reshape(input *Operand, newShape []int) *Operand {
	op := b.newOperator(backends.OpTypeReshape, &reshapeOp{newShape: slices.Clone(newShape)}, input)
	if input != nil && !input.IsError() {
		op.outputs[0] = newOperandWithRank(op, input.DType(), len(newShape))
	}
	return b.validateForOperand(op)
}

// TransposeOptions configures Transpose operators. Nil options (or an empty
// Permutation) reverse the input's axes.
type TransposeOptions struct {
	Permutation []int
}

type transposeOp struct {
	permutation []int
}

func newTransposePayload(inputRank int, options *TransposeOptions) *transposeOp {
	if options != nil && len(options.Permutation) > 0 {
		return &transposeOp{permutation: slices.Clone(options.Permutation)}
	}
	// Default permutation reverses the axes.
	permutation := make([]int, inputRank)
	for idx := range permutation {
		permutation[idx] = inputRank - 1 - idx
	}
	return &transposeOp{permutation: permutation}
}

func (p *transposeOp) validate(op *Operator) error {
	input := op.inputs[0]
	if len(p.permutation) != input.Rank() {
		return errors.Errorf("transpose permutation must have one entry per input axis, got %d entries for rank %d",
			len(p.permutation), input.Rank())
	}
	seen := make([]bool, len(p.permutation))
	for _, axis := range p.permutation {
		if axis < 0 || axis >= len(p.permutation) || seen[axis] {
			return errors.Errorf("transpose permutation %v is not a permutation of the input axes", p.permutation)
		}
		seen[axis] = true
	}
	return nil
}

func (p *transposeOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddTranspose(x, p.permutation)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Transpose permutes the axes of the input. Without an explicit permutation
// the axes are reversed.
func (b *Builder) Transpose(input *Operand, options *TransposeOptions) *Operand {
	inputRank := 0
	if input != nil {
		inputRank = input.Rank()
	}
	op := b.newOperator(backends.OpTypeTranspose, newTransposePayload(inputRank, options), input)
	return b.validateForOperand(op)
}

// SqueezeOptions configures Squeeze operators. Nil options (or empty Axes)
// remove all size-1 axes.
type SqueezeOptions struct {
	// Axes lists the size-1 axes to remove. Empty means all size-1 axes.
	Axes []int
}

type squeezeOp struct {
	axes []int
}

func newSqueezePayload(options *SqueezeOptions) *squeezeOp {
	if options == nil {
		return &squeezeOp{}
	}
	return &squeezeOp{axes: slices.Clone(options.Axes)}
}

func (p *squeezeOp) validate(op *Operator) error {
	input := op.inputs[0]
	if err := checkAxes("squeeze", p.axes, input.Rank()); err != nil {
		return err
	}
	return nil
}

func (p *squeezeOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddSqueeze(x, p.axes)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Squeeze removes size-1 axes from the input: the listed ones, or all of
// them when no axes are given.
//
// With empty axes the output rank depends on the input's concrete
// dimensions, which operands don't track; the output operand then keeps the
// input's rank and the backend resolves the final shape.
func (b *Builder) Squeeze(input *Operand, options *SqueezeOptions) *Operand {
	payload := newSqueezePayload(options)
	op := b.newOperator(backends.OpTypeSqueeze, payload, input)
	if input != nil && !input.IsError() && len(payload.axes) > 0 {
		op.outputs[0] = newOperandWithRank(op, input.DType(), input.Rank()-len(payload.axes))
	}
	return b.validateForOperand(op)
}
