// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/nngraph/nngraph/backends"
	"github.com/nngraph/nngraph/types/shapes"
)

// inputOp is a named graph input.
type inputOp struct {
	name string
	desc shapes.Shape
}

func (p *inputOp) validate(op *Operator) error {
	if p.name == "" {
		return errors.Errorf("input name must not be empty")
	}
	if err := p.desc.Check(); err != nil {
		return errors.WithMessagef(err, "invalid descriptor for input %q", p.name)
	}
	return nil
}

func (p *inputOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	h, err := g.AddInput(p.name, p.desc)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Input creates a named graph input with the given descriptor shape. The
// value is fed at execution time, keyed by name.
func (b *Builder) Input(name string, desc shapes.Shape) *Operand {
	p := &inputOp{name: name, desc: desc.Clone()}
	op := b.newOperator(backends.OpTypeInput, p)
	op.outputs = []*Operand{newOperandWithRank(op, desc.DType, desc.Rank())}
	return b.validateForOperand(op)
}

// constantOp holds a constant tensor baked into the graph.
type constantOp struct {
	desc shapes.Shape
	data []byte
}

func (p *constantOp) validate(op *Operator) error {
	if err := p.desc.Check(); err != nil {
		return errors.WithMessage(err, "invalid descriptor for constant")
	}
	if uintptr(len(p.data)) != p.desc.Memory() {
		return errors.Errorf("constant data has %d bytes, shape %s requires %d",
			len(p.data), p.desc, p.desc.Memory())
	}
	return nil
}

func (p *constantOp) addToGraph(op *Operator, g backends.Graph, st *buildState) error {
	h, err := g.AddConstant(p.desc, p.data)
	if err != nil {
		return err
	}
	st.setHandle(op.PrimaryOutput(), h)
	return nil
}

// Constant creates a constant tensor with the given descriptor shape. data
// holds the raw little-endian element bytes and must be exactly
// desc.Memory() bytes long.
func (b *Builder) Constant(desc shapes.Shape, data []byte) *Operand {
	p := &constantOp{desc: desc.Clone(), data: slices.Clone(data)}
	op := b.newOperator(backends.OpTypeConstant, p)
	op.outputs = []*Operand{newOperandWithRank(op, desc.DType, desc.Rank())}
	return b.validateForOperand(op)
}

// ConstantFromFloat32s creates a constant tensor from float32 values,
// encoding them to the descriptor's dtype. Float32 and Float16 descriptors
// are supported.
func (b *Builder) ConstantFromFloat32s(desc shapes.Shape, values []float32) *Operand {
	data, err := encodeFloat32s(desc.DType, values)
	if err != nil {
		b.consumeError(err)
		return makeErrorOperand(b)
	}
	return b.Constant(desc, data)
}

func encodeFloat32s(dtype dtypes.DType, values []float32) ([]byte, error) {
	switch dtype {
	case dtypes.Float32:
		data := make([]byte, 4*len(values))
		for idx, value := range values {
			binary.LittleEndian.PutUint32(data[4*idx:], math.Float32bits(value))
		}
		return data, nil
	case dtypes.Float16:
		data := make([]byte, 2*len(values))
		for idx, value := range values {
			binary.LittleEndian.PutUint16(data[2*idx:], float16.Fromfloat32(value).Bits())
		}
		return data, nil
	}
	return nil, errors.Errorf("cannot encode float32 values to a %s constant, only Float32 and Float16 are supported", dtype)
}
