// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/types"
)

// clampRewrittenActivations lists the fused activations the builder
// rewrites into standalone nodes instead of embedding as attributes. This
// is a closed configuration list, not a pattern: new activation kinds don't
// automatically get the rewrite.
var clampRewrittenActivations = types.SetWith(backends.FusedClamp)

// Conv2dOptions configures a Conv2d operator. Zero values select the
// defaults: no padding, unit strides and dilations, a single group and no
// activation.
type Conv2dOptions struct {
	// Padding is [beginHeight, endHeight, beginWidth, endWidth].
	Padding []int
	// Strides is [strideHeight, strideWidth].
	Strides []int
	// Dilations is [dilationHeight, dilationWidth].
	Dilations []int
	Groups    int

	// Activation is an optional fused-role operator (e.g. ReluOperator)
	// applied to the convolution result.
	Activation *Operator
}

type conv2dOp struct {
	attrs      backends.ConvAttrs
	activation *Operator
}

func newConv2dPayload(options *Conv2dOptions, withActivation bool) *conv2dOp {
	p := &conv2dOp{
		attrs: backends.ConvAttrs{
			Padding:   []int{0, 0, 0, 0},
			Strides:   []int{1, 1},
			Dilations: []int{1, 1},
			Groups:    1,
		},
	}
	if options == nil {
		return p
	}
	if options.Padding != nil {
		p.attrs.Padding = slices.Clone(options.Padding)
	}
	if options.Strides != nil {
		p.attrs.Strides = slices.Clone(options.Strides)
	}
	if options.Dilations != nil {
		p.attrs.Dilations = slices.Clone(options.Dilations)
	}
	if options.Groups != 0 {
		p.attrs.Groups = options.Groups
	}
	if withActivation {
		p.activation = options.Activation
	}
	return p
}

func (p *conv2dOp) validate(op *Operator) error {
	input, filter := op.inputs[0], op.inputs[1]
	if input.Rank() != 4 {
		return errors.Errorf("conv2d input must be a 4-D tensor, got rank %d", input.Rank())
	}
	if filter.Rank() != 4 {
		return errors.Errorf("conv2d filter must be a 4-D tensor, got rank %d", filter.Rank())
	}
	if input.DType() != filter.DType() {
		return errors.Errorf("conv2d input and filter must have the same dtype, got %s and %s",
			input.DType(), filter.DType())
	}
	if len(p.attrs.Padding) != 4 {
		return errors.Errorf("conv2d padding must have 4 values, got %d", len(p.attrs.Padding))
	}
	if err := checkPositive("conv2d strides", p.attrs.Strides, 2); err != nil {
		return err
	}
	if err := checkPositive("conv2d dilations", p.attrs.Dilations, 2); err != nil {
		return err
	}
	if p.attrs.Groups < 1 {
		return errors.Errorf("conv2d groups must be >= 1, got %d", p.attrs.Groups)
	}
	return validateActivation(op.opType, p.activation)
}

func (p *conv2dOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	filter, err := st.handle(op.inputs[1])
	if err != nil {
		return err
	}
	attrs := p.attrs
	if p.activation != nil {
		attrs.Activation = p.activation.fusedActivation()
	}
	h, err := g.AddConv2d(x, filter, &attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// checkPositive verifies values has the wanted length and only positive
// entries.
func checkPositive(what string, values []int, wantLen int) error {
	if len(values) != wantLen {
		return errors.Errorf("%s must have %d values, got %d", what, wantLen, len(values))
	}
	for _, value := range values {
		if value <= 0 {
			return errors.Errorf("%s must be positive, got %v", what, values)
		}
	}
	return nil
}

// Conv2d computes a 2D convolution of a 4-D input with a 4-D filter.
//
// When options carry a clamp activation, the clamp is not embedded as a
// fused attribute: not every backend compiler can fuse a clamp. The builder
// instead validates the convolution without the activation and returns a
// standalone Clamp node over its output, preserving the clamp's min and max
// as explicit graph structure. Other activation kinds stay embedded and are
// fused by the backend itself.
func (b *Builder) Conv2d(input, filter *Operand, options *Conv2dOptions) *Operand {
	if options != nil && options.Activation != nil &&
		clampRewrittenActivations.Has(options.Activation.FusedOperator()) {
		conv := b.newOperator(backends.OpTypeConv2d, newConv2dPayload(options, false), input, filter)
		if b.validateOperator(conv) != nil {
			return makeErrorOperand(b)
		}
		clampOptions, ok := options.Activation.clampOptions()
		if !ok {
			b.consumeError(errors.Errorf("the clamp activation of Conv2d is not a clamp operator"))
			return makeErrorOperand(b)
		}
		return b.Clamp(conv.PrimaryOutput(), clampOptions)
	}
	op := b.newOperator(backends.OpTypeConv2d, newConv2dPayload(options, true), input, filter)
	return b.validateForOperand(op)
}
