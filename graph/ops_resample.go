// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// ResampleOptions configures Resample operators. At most one of Scales and
// Sizes may be set; nil options (or neither set) default to scales [1, 1].
type ResampleOptions struct {
	Mode backends.ResampleMode
	// Scales are multiplicative factors for the two spatial axes.
	Scales []float32
	// Sizes are absolute target sizes for the two spatial axes.
	Sizes []int
}

type resampleOp struct {
	attrs backends.ResampleAttrs
	// bothSet records an invalid Scales+Sizes combination for validate.
	bothSet bool
}

func newResamplePayload(options *ResampleOptions) *resampleOp {
	p := &resampleOp{attrs: backends.ResampleAttrs{Scales: []float32{1, 1}}}
	if options == nil {
		return p
	}
	p.attrs.Mode = options.Mode
	p.bothSet = len(options.Scales) > 0 && len(options.Sizes) > 0
	if len(options.Sizes) > 0 {
		p.attrs.Scales = nil
		p.attrs.Sizes = slices.Clone(options.Sizes)
	} else if len(options.Scales) > 0 {
		p.attrs.Scales = slices.Clone(options.Scales)
	}
	return p
}

func (p *resampleOp) validate(op *Operator) error {
	input := op.inputs[0]
	if input.Rank() != 4 {
		return errors.Errorf("resample input must be a 4-D tensor, got rank %d", input.Rank())
	}
	if p.bothSet {
		return errors.Errorf("resample scales and sizes are mutually exclusive, set at most one")
	}
	if p.attrs.Sizes != nil {
		if len(p.attrs.Sizes) != 2 {
			return errors.Errorf("resample sizes must have 2 values, got %d", len(p.attrs.Sizes))
		}
		for _, size := range p.attrs.Sizes {
			if size <= 0 {
				return errors.Errorf("resample sizes must be positive, got %v", p.attrs.Sizes)
			}
		}
		return nil
	}
	if len(p.attrs.Scales) != 2 {
		return errors.Errorf("resample scales must have 2 values, got %d", len(p.attrs.Scales))
	}
	for _, scale := range p.attrs.Scales {
		if scale <= 0 {
			return errors.Errorf("resample scales must be positive, got %v", p.attrs.Scales)
		}
	}
	return nil
}

func (p *resampleOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddResample(x, &p.attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Resample resizes the spatial dimensions of a 4-D input by nearest-neighbor
// or linear interpolation.
func (b *Builder) Resample(input *Operand, options *ResampleOptions) *Operand {
	op := b.newOperator(backends.OpTypeResample, newResamplePayload(options), input)
	return b.validateForOperand(op)
}
