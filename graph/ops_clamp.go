// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// ClampOptions configures Clamp operators. Nil options clamp to
// (-Inf, +Inf), i.e. the identity.
type ClampOptions struct {
	MinValue float32
	MaxValue float32
}

type clampOp struct {
	minValue float32
	maxValue float32
}

func newClampPayload(options *ClampOptions) *clampOp {
	if options == nil {
		return &clampOp{
			minValue: float32(math.Inf(-1)),
			maxValue: float32(math.Inf(1)),
		}
	}
	return &clampOp{minValue: options.MinValue, maxValue: options.MaxValue}
}

func (p *clampOp) validate(op *Operator) error {
	if p.minValue > p.maxValue {
		return errors.Errorf("clamp min value (%g) must be <= max value (%g)", p.minValue, p.maxValue)
	}
	return nil
}

func (p *clampOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	x, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	h, err := g.AddClamp(x, p.minValue, p.maxValue)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Clamp limits x element-wise to [options.MinValue, options.MaxValue].
func (b *Builder) Clamp(x *Operand, options *ClampOptions) *Operand {
	return b.validateForOperand(b.newOperator(backends.OpTypeClamp, newClampPayload(options), x))
}

// ClampOperator returns a detached clamp for use as a fused activation.
//
// Builders embed most fused activations as attributes of the primary
// operator, but rewrite clamp activations into standalone Clamp nodes; see
// Builder.Conv2d.
func (b *Builder) ClampOperator(options *ClampOptions) *Operator {
	op := b.newOperator(backends.OpTypeClamp, newClampPayload(options))
	op.fusedOp = backends.FusedClamp
	return b.validateFusedOperator(op)
}
