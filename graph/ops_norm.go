// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// BatchNormOptions configures BatchNorm operators. Zero values select the
// defaults: channel axis 1, epsilon 1e-5, no scale/bias and no activation.
type BatchNormOptions struct {
	// Scale and Bias are optional rank-1 operands over the channel axis.
	Scale *Operand
	Bias  *Operand

	// Axis is the channel axis of the input.
	Axis    int
	Epsilon float32

	// Activation is an optional fused-role operator applied to the
	// normalized result.
	Activation *Operator
}

type batchNormOp struct {
	attrs      backends.NormAttrs
	hasScale   bool
	hasBias    bool
	activation *Operator
}

func newBatchNormPayload(options *BatchNormOptions, withActivation bool) *batchNormOp {
	p := &batchNormOp{
		attrs: backends.NormAttrs{Axis: 1, Epsilon: 1e-5},
	}
	if options == nil {
		return p
	}
	if options.Axis != 0 {
		p.attrs.Axis = options.Axis
	}
	if options.Epsilon != 0 {
		p.attrs.Epsilon = options.Epsilon
	}
	p.hasScale = options.Scale != nil
	p.hasBias = options.Bias != nil
	if withActivation {
		p.activation = options.Activation
	}
	return p
}

// batchNormInputs assembles the ordered input list: input, mean, variance,
// then the optional scale and bias.
func batchNormInputs(input, mean, variance *Operand, options *BatchNormOptions) []*Operand {
	inputs := []*Operand{input, mean, variance}
	if options != nil && options.Scale != nil {
		inputs = append(inputs, options.Scale)
	}
	if options != nil && options.Bias != nil {
		inputs = append(inputs, options.Bias)
	}
	return inputs
}

func (p *batchNormOp) validate(op *Operator) error {
	input, mean, variance := op.inputs[0], op.inputs[1], op.inputs[2]
	if input.Rank() < 2 {
		return errors.Errorf("batchNorm input must be at least a 2-D tensor, got rank %d", input.Rank())
	}
	if p.attrs.Axis < 0 || p.attrs.Axis >= input.Rank() {
		return errors.Errorf("batchNorm axis %d is out of range for input rank %d", p.attrs.Axis, input.Rank())
	}
	if mean.Rank() != 1 {
		return errors.Errorf("batchNorm mean must be a 1-D tensor, got rank %d", mean.Rank())
	}
	if variance.Rank() != 1 {
		return errors.Errorf("batchNorm variance must be a 1-D tensor, got rank %d", variance.Rank())
	}
	for idx := 3; idx < len(op.inputs); idx++ {
		if op.inputs[idx].Rank() != 1 {
			return errors.Errorf("batchNorm scale and bias must be 1-D tensors, got rank %d", op.inputs[idx].Rank())
		}
	}
	return validateActivation(op.opType, p.activation)
}

func (p *batchNormOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	handles := make([]backends.Op, len(op.inputs))
	for idx, input := range op.inputs {
		h, err := st.handle(input)
		if err != nil {
			return err
		}
		handles[idx] = h
	}
	var scale, bias backends.Op
	next := 3
	if p.hasScale {
		scale = handles[next]
		next++
	}
	if p.hasBias {
		bias = handles[next]
	}
	attrs := p.attrs
	if p.activation != nil {
		attrs.Activation = p.activation.fusedActivation()
	}
	h, err := g.AddBatchNorm(handles[0], handles[1], handles[2], scale, bias, &attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// BatchNorm normalizes the input over its channel axis using the given
// per-channel mean and variance.
//
// A clamp activation gets the same rewrite as in Conv2d: the normalization
// is validated without the activation and a standalone Clamp node over its
// output is returned instead of embedding the clamp as a fused attribute.
func (b *Builder) BatchNorm(input, mean, variance *Operand, options *BatchNormOptions) *Operand {
	if options != nil && options.Activation != nil &&
		clampRewrittenActivations.Has(options.Activation.FusedOperator()) {
		batchNorm := b.newOperator(backends.OpTypeBatchNorm,
			newBatchNormPayload(options, false), batchNormInputs(input, mean, variance, options)...)
		if b.validateOperator(batchNorm) != nil {
			return makeErrorOperand(b)
		}
		clampOptions, ok := options.Activation.clampOptions()
		if !ok {
			b.consumeError(errors.Errorf("the clamp activation of BatchNorm is not a clamp operator"))
			return makeErrorOperand(b)
		}
		return b.Clamp(batchNorm.PrimaryOutput(), clampOptions)
	}
	op := b.newOperator(backends.OpTypeBatchNorm,
		newBatchNormPayload(options, true), batchNormInputs(input, mean, variance, options)...)
	return b.validateForOperand(op)
}

// InstanceNormOptions configures InstanceNorm operators. Zero values select
// the defaults: epsilon 1e-5 and no scale/bias.
type InstanceNormOptions struct {
	// Scale and Bias are optional rank-1 operands over the channel axis.
	Scale *Operand
	Bias  *Operand

	Epsilon float32
}

type instanceNormOp struct {
	attrs    backends.NormAttrs
	hasScale bool
	hasBias  bool
}

func newInstanceNormPayload(options *InstanceNormOptions) *instanceNormOp {
	p := &instanceNormOp{attrs: backends.NormAttrs{Epsilon: 1e-5}}
	if options == nil {
		return p
	}
	if options.Epsilon != 0 {
		p.attrs.Epsilon = options.Epsilon
	}
	p.hasScale = options.Scale != nil
	p.hasBias = options.Bias != nil
	return p
}

func (p *instanceNormOp) validate(op *Operator) error {
	input := op.inputs[0]
	if input.Rank() != 4 {
		return errors.Errorf("instanceNorm input must be a 4-D tensor, got rank %d", input.Rank())
	}
	for idx := 1; idx < len(op.inputs); idx++ {
		if op.inputs[idx].Rank() != 1 {
			return errors.Errorf("instanceNorm scale and bias must be 1-D tensors, got rank %d", op.inputs[idx].Rank())
		}
	}
	return nil
}

func (p *instanceNormOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	handles := make([]backends.Op, len(op.inputs))
	for idx, input := range op.inputs {
		h, err := st.handle(input)
		if err != nil {
			return err
		}
		handles[idx] = h
	}
	var scale, bias backends.Op
	next := 1
	if p.hasScale {
		scale = handles[next]
		next++
	}
	if p.hasBias {
		bias = handles[next]
	}
	h, err := g.AddInstanceNorm(handles[0], scale, bias, &p.attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// InstanceNorm normalizes each channel of a 4-D input across its spatial
// dimensions.
func (b *Builder) InstanceNorm(input *Operand, options *InstanceNormOptions) *Operand {
	inputs := []*Operand{input}
	if options != nil && options.Scale != nil {
		inputs = append(inputs, options.Scale)
	}
	if options != nil && options.Bias != nil {
		inputs = append(inputs, options.Bias)
	}
	op := b.newOperator(backends.OpTypeInstanceNorm, newInstanceNormPayload(options), inputs...)
	return b.validateForOperand(op)
}
