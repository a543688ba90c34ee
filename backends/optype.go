// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package backends

// OpType is an enum of all operations that can be fed to a backend Graph.
//
// This is a closed set: new operator kinds are added here (and to the Graph
// interface), not discovered dynamically.
type OpType int

const (
	OpTypeInvalid OpType = iota

	OpTypeInput
	OpTypeConstant

	OpTypeRelu
	OpTypeSigmoid
	OpTypeTanh
	OpTypeHardSwish
	OpTypeSoftmax

	OpTypeAdd
	OpTypeSub
	OpTypeMul
	OpTypeDiv
	OpTypeMax
	OpTypeMin
	OpTypePow
	OpTypeMatMul

	OpTypeConv2d
	OpTypeAveragePool2d
	OpTypeMaxPool2d
	OpTypeReduceMean
	OpTypeBatchNorm
	OpTypeInstanceNorm
	OpTypeClamp
	OpTypeConcat
	OpTypeSplit
	OpTypeGemm
	OpTypeReshape
	OpTypeTranspose
	OpTypePad
	OpTypeResample
	OpTypeSqueeze
	OpTypeLeakyRelu

	// opTypeLast is a marker for the number of op types.
	opTypeLast
)

var opTypeNames = [opTypeLast]string{
	OpTypeInvalid:       "Invalid",
	OpTypeInput:         "Input",
	OpTypeConstant:      "Constant",
	OpTypeRelu:          "Relu",
	OpTypeSigmoid:       "Sigmoid",
	OpTypeTanh:          "Tanh",
	OpTypeHardSwish:     "HardSwish",
	OpTypeSoftmax:       "Softmax",
	OpTypeAdd:           "Add",
	OpTypeSub:           "Sub",
	OpTypeMul:           "Mul",
	OpTypeDiv:           "Div",
	OpTypeMax:           "Max",
	OpTypeMin:           "Min",
	OpTypePow:           "Pow",
	OpTypeMatMul:        "MatMul",
	OpTypeConv2d:        "Conv2d",
	OpTypeAveragePool2d: "AveragePool2d",
	OpTypeMaxPool2d:     "MaxPool2d",
	OpTypeReduceMean:    "ReduceMean",
	OpTypeBatchNorm:     "BatchNorm",
	OpTypeInstanceNorm:  "InstanceNorm",
	OpTypeClamp:         "Clamp",
	OpTypeConcat:        "Concat",
	OpTypeSplit:         "Split",
	OpTypeGemm:          "Gemm",
	OpTypeReshape:       "Reshape",
	OpTypeTranspose:     "Transpose",
	OpTypePad:           "Pad",
	OpTypeResample:      "Resample",
	OpTypeSqueeze:       "Squeeze",
	OpTypeLeakyRelu:     "LeakyRelu",
}

// String implements fmt.Stringer.
func (t OpType) String() string {
	if t < 0 || t >= opTypeLast {
		return "Invalid"
	}
	return opTypeNames[t]
}

// FusedOp identifies an activation that can be embedded ("fused") into
// another operator, like Conv2d or BatchNorm, instead of materialized as a
// standalone graph node.
type FusedOp int

const (
	FusedNone FusedOp = iota
	FusedRelu
	FusedSigmoid
	FusedHardSwish
	FusedLeakyRelu
	FusedClamp
)

// String implements fmt.Stringer.
func (f FusedOp) String() string {
	switch f {
	case FusedNone:
		return "None"
	case FusedRelu:
		return "Relu"
	case FusedSigmoid:
		return "Sigmoid"
	case FusedHardSwish:
		return "HardSwish"
	case FusedLeakyRelu:
		return "LeakyRelu"
	case FusedClamp:
		return "Clamp"
	}
	return "Invalid"
}

// FusedActivation is the attribute form of an activation embedded into
// Conv2d or BatchNorm operators. The zero value means no activation.
//
// Clamp never reaches a backend in this form: the graph builder rewrites a
// clamp activation into a standalone Clamp node (not every backend compiler
// can fuse a clamp).
type FusedActivation struct {
	Op FusedOp

	// Alpha is the negative-slope coefficient, only used when Op == FusedLeakyRelu.
	Alpha float32
}
