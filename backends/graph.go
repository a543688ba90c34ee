// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"github.com/nngraph/nngraph/types/shapes"
)

// Op represents the output of an operation already ingested by a backend
// Graph.
//
// It is opaque from the nngraph perspective: the graph builder passes Op
// values back as inputs to the other Add* methods.
type Op any

// Graph accumulates the operators of one computation, in dependency order,
// and compiles them into an Executable.
//
// Lifecycle: Add* methods (one call per operator, inputs always added
// before their consumers) -> AddOutput (one call per named output) ->
// Finish (seals the graph, no further additions) -> Compile.
//
// Implementations must return an error, and leave the graph unchanged, for
// any call that arrives out of that order.
type Graph interface {
	// Name of the computation being built.
	Name() string

	// AddInput creates a named graph input with the given descriptor shape.
	AddInput(name string, shape shapes.Shape) (Op, error)

	// AddConstant creates a constant with the given descriptor shape. data
	// holds the raw little-endian element bytes; len(data) always equals
	// shape.Memory().
	AddConstant(shape shapes.Shape, data []byte) (Op, error)

	// AddUnary adds one of the unary operators: OpTypeRelu, OpTypeSigmoid,
	// OpTypeTanh, OpTypeHardSwish or OpTypeSoftmax.
	AddUnary(opType OpType, x Op) (Op, error)

	// AddBinary adds one of the element-wise binary operators (OpTypeAdd,
	// OpTypeSub, OpTypeMul, OpTypeDiv, OpTypeMax, OpTypeMin, OpTypePow) or
	// OpTypeMatMul.
	AddBinary(opType OpType, lhs, rhs Op) (Op, error)

	// AddConv2d adds a 2D convolution of x by filter.
	AddConv2d(x, filter Op, attrs *ConvAttrs) (Op, error)

	// AddPool2d adds a pooling operator: OpTypeAveragePool2d or OpTypeMaxPool2d.
	AddPool2d(opType OpType, x Op, attrs *PoolAttrs) (Op, error)

	// AddReduceMean reduces x by taking the mean over the given axes. Empty
	// axes means all axes.
	AddReduceMean(x Op, axes []int, keepDims bool) (Op, error)

	// AddBatchNorm normalizes x using the given mean and variance. scale and
	// bias may be nil.
	AddBatchNorm(x, mean, variance, scale, bias Op, attrs *NormAttrs) (Op, error)

	// AddInstanceNorm normalizes x across its spatial dimensions. scale and
	// bias may be nil.
	AddInstanceNorm(x, scale, bias Op, attrs *NormAttrs) (Op, error)

	// AddClamp clamps x element-wise to [minValue, maxValue].
	AddClamp(x Op, minValue, maxValue float32) (Op, error)

	// AddConcat concatenates the inputs along the given axis.
	AddConcat(inputs []Op, axis int) (Op, error)

	// AddSplit splits x along the given axis and returns one Op per part.
	// A single-element splits is a count of equally sized parts; otherwise
	// splits lists the sizes of each part.
	AddSplit(x Op, splits []int, axis int) ([]Op, error)

	// AddGemm adds the general matrix multiplication alpha*a*b + beta*c.
	// c may be nil.
	AddGemm(a, b, c Op, attrs *GemmAttrs) (Op, error)

	// AddReshape reshapes x to newShape. A -1 dimension is inferred from the
	// remaining ones.
	AddReshape(x Op, newShape []int) (Op, error)

	// AddTranspose permutes the axes of x.
	AddTranspose(x Op, permutation []int) (Op, error)

	// AddPad pads x as described by the padding operand (a [rank, 2] tensor
	// of begin/end counts per axis).
	AddPad(x, padding Op, mode PadMode, value float32) (Op, error)

	// AddResample resamples the spatial dimensions of x.
	AddResample(x Op, attrs *ResampleAttrs) (Op, error)

	// AddSqueeze removes the given size-1 axes of x. Empty axes means all
	// size-1 axes.
	AddSqueeze(x Op, axes []int) (Op, error)

	// AddLeakyRelu adds a leaky-relu with the given negative-slope alpha.
	AddLeakyRelu(x Op, alpha float32) (Op, error)

	// AddOutput registers op as a graph output under the given name.
	AddOutput(name string, output Op) error

	// Finish seals the graph structure: no further operators or outputs may
	// be added.
	Finish() error

	// Compile produces the executable artifact for the finished graph.
	Compile() (Executable, error)
}

// ConvAttrs are the attributes of a Conv2d operator. Slices are fixed
// length: Padding is [beginHeight, endHeight, beginWidth, endWidth], Strides
// and Dilations are [height, width].
type ConvAttrs struct {
	Padding    []int
	Strides    []int
	Dilations  []int
	Groups     int
	Activation FusedActivation
}

// PoolAttrs are the attributes of an AveragePool2d/MaxPool2d operator.
// WindowDimensions, Strides and Dilations are [height, width]; Padding is
// [beginHeight, endHeight, beginWidth, endWidth]. An empty WindowDimensions
// means global pooling.
type PoolAttrs struct {
	WindowDimensions []int
	Padding          []int
	Strides          []int
	Dilations        []int
}

// NormAttrs are the attributes of BatchNorm and InstanceNorm operators.
type NormAttrs struct {
	// Axis is the channel axis (BatchNorm only).
	Axis       int
	Epsilon    float32
	Activation FusedActivation
}

// GemmAttrs are the attributes of a Gemm operator: alpha*op(a)*op(b) + beta*c.
type GemmAttrs struct {
	Alpha      float32
	Beta       float32
	ATranspose bool
	BTranspose bool
}

// PadMode selects how padded values of a Pad operator are filled.
type PadMode int

const (
	PadModeConstant PadMode = iota
	PadModeEdge
	PadModeReflection
	PadModeSymmetric
)

// String implements fmt.Stringer.
func (m PadMode) String() string {
	switch m {
	case PadModeConstant:
		return "Constant"
	case PadModeEdge:
		return "Edge"
	case PadModeReflection:
		return "Reflection"
	case PadModeSymmetric:
		return "Symmetric"
	}
	return "Invalid"
}

// ResampleMode selects the interpolation of a Resample operator.
type ResampleMode int

const (
	ResampleNearestNeighbor ResampleMode = iota
	ResampleLinear
)

// String implements fmt.Stringer.
func (m ResampleMode) String() string {
	switch m {
	case ResampleNearestNeighbor:
		return "NearestNeighbor"
	case ResampleLinear:
		return "Linear"
	}
	return "Invalid"
}

// ResampleAttrs are the attributes of a Resample operator. Exactly one of
// Scales or Sizes is set, both referring to the two spatial axes.
type ResampleAttrs struct {
	Mode   ResampleMode
	Scales []float32
	Sizes  []int
}
