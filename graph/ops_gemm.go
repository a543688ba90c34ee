// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/backends"
)

// GemmOptions configures Gemm operators. Zero values select the defaults:
// alpha=1, beta=1, no C operand and no transposes.
type GemmOptions struct {
	// C is an optional operand added (scaled by Beta) to the product.
	C *Operand

	Alpha float32
	Beta  float32

	ATranspose bool
	BTranspose bool
}

type gemmOp struct {
	attrs backends.GemmAttrs
	hasC  bool
}

func newGemmPayload(options *GemmOptions) *gemmOp {
	p := &gemmOp{attrs: backends.GemmAttrs{Alpha: 1, Beta: 1}}
	if options == nil {
		return p
	}
	if options.Alpha != 0 {
		p.attrs.Alpha = options.Alpha
	}
	if options.Beta != 0 {
		p.attrs.Beta = options.Beta
	}
	p.attrs.ATranspose = options.ATranspose
	p.attrs.BTranspose = options.BTranspose
	p.hasC = options.C != nil
	return p
}

func (p *gemmOp) validate(op *Operator) error {
	a, b := op.inputs[0], op.inputs[1]
	if a.Rank() != 2 {
		return errors.Errorf("gemm input a must be a 2-D tensor, got rank %d", a.Rank())
	}
	if b.Rank() != 2 {
		return errors.Errorf("gemm input b must be a 2-D tensor, got rank %d", b.Rank())
	}
	if a.DType() != b.DType() {
		return errors.Errorf("gemm inputs must have the same dtype, got %s and %s", a.DType(), b.DType())
	}
	if p.hasC {
		c := op.inputs[2]
		if c.Rank() > 2 {
			return errors.Errorf("gemm input c must be at most a 2-D tensor, got rank %d", c.Rank())
		}
		if c.DType() != a.DType() {
			return errors.Errorf("gemm inputs must have the same dtype, got %s and %s", a.DType(), c.DType())
		}
	}
	return nil
}

func (p *gemmOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	a, err := st.handle(op.inputs[0])
	if err != nil {
		return err
	}
	b, err := st.handle(op.inputs[1])
	if err != nil {
		return err
	}
	var c backends.Op
	if p.hasC {
		if c, err = st.handle(op.inputs[2]); err != nil {
			return err
		}
	}
	h, err := g.AddGemm(a, b, c, &p.attrs)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Gemm computes the general matrix multiplication alpha*op(a)*op(b) + beta*c
// over 2-D inputs, where op() optionally transposes its argument.
func (b *Builder) Gemm(a, bMat *Operand, options *GemmOptions) *Operand {
	inputs := []*Operand{a, bMat}
	if options != nil && options.C != nil {
		inputs = append(inputs, options.C)
	}
	op := b.newOperator(backends.OpTypeGemm, newGemmPayload(options), inputs...)
	return b.validateForOperand(op)
}
