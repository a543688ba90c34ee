// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// Pool2dOptions configures AveragePool2d and MaxPool2d operators. Zero
// values select the defaults: a global pooling window, no padding, unit
// strides and dilations.
type Pool2dOptions struct {
	// WindowDimensions is [windowHeight, windowWidth]. Empty means the
	// whole spatial extent (global pooling).
	WindowDimensions []int
	// Padding is [beginHeight, endHeight, beginWidth, endWidth].
	Padding []int
	// Strides is [strideHeight, strideWidth].
	Strides []int
	// Dilations is [dilationHeight, dilationWidth].
	Dilations []int
}

type pool2dOp struct {
	attrs backends.PoolAttrs
}

func newPool2dPayload(options *Pool2dOptions) *pool2dOp {
	p := &pool2dOp{
		attrs: backends.PoolAttrs{
			Padding:   []int{0, 0, 0, 0},
			Strides:   []int{1, 1},
			Dilations: []int{1, 1},
		},
	}
	if options == nil {
		return p
	}
	p.attrs.WindowDimensions = slices.Clone(options.WindowDimensions)
	if options.Padding != nil {
		p.attrs.Padding = slices.Clone(options.Padding)
	}
	if options.Strides != nil {
		p.attrs.Strides = slices.Clone(options.Strides)
	}
	if options.Dilations != nil {
		p.attrs.Dilations = slices.Clone(options.Dilations)
	}
	return p
}

func (p *pool2dOp) validate(op *Operator) error {
	input := op.inputs[0]
	if input.Rank() != 4 {
		return errors.Errorf("%s input must be a 4-D tensor, got rank %d", op.opType, input.Rank())
	}
	if p.attrs.WindowDimensions != nil {
		if err := checkPositive("pool2d window dimensions", p.attrs.WindowDimensions, 2); err != nil {
			return err
		}
	}
	if len(p.attrs.Padding) != 4 {
		return errors.Errorf("pool2d padding must have 4 values, got %d", len(p.attrs.Padding))
	}
	if err := checkPositive("pool2d strides", p.attrs.Strides, 2); err != nil {
		return err
	}
	return checkPositive("pool2d dilations", p.attrs.Dilations, 2)
}

func (p *pool2dOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddPool2d(op.opType, x, &p.attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// AveragePool2d computes an average pooling over the spatial dimensions of
// a 4-D input.
func (b *Builder) AveragePool2d(input *Operand, options *Pool2dOptions) *Operand {
	op := b.newOperator(backends.OpTypeAveragePool2d, newPool2dPayload(options), input)
	return b.validateForOperand(op)
}

// MaxPool2d computes a max pooling over the spatial dimensions of a 4-D
// input.
func (b *Builder) MaxPool2d(input *Operand, options *Pool2dOptions) *Operand {
	op := b.newOperator(backends.OpTypeMaxPool2d, newPool2dPayload(options), input)
	return b.validateForOperand(op)
}
