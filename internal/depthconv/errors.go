package depthconv

import (
	"fmt"
	"strings"

	"github.com/born-ml/depthconv/internal/tensor"
)

// Kind classifies why a call was rejected.
type Kind int

// Error kinds.
const (
	// InvalidShape: a tensor rank, size or geometry parameter violates the convolution contract.
	InvalidShape Kind = iota + 1
	// InvalidOperand: an operand is not contiguous, not on the CPU, or has the wrong element type.
	InvalidOperand
	// ArithmeticOverflow: a derived size does not fit in an int.
	ArithmeticOverflow
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case InvalidShape:
		return "InvalidShape"
	case InvalidOperand:
		return "InvalidOperand"
	case ArithmeticOverflow:
		return "ArithmeticOverflow"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rule identifies the specific check that failed. Dims lists the operands the
// rule was evaluated on, in the order given next to each rule.
type Rule int

// Validation rules, in evaluation order.
const (
	RuleWeightRank             Rule = iota + 1 // weight rank
	RuleKernelSize                             // kH, kW
	RuleKernelMismatch                         // kH, kW, weight kH, weight kW
	RuleStride                                 // strideH, strideW
	RuleDilation                               // dilationH, dilationW
	RuleInputRank                              // input rank
	RulePadding                                // padH, padW
	RuleOutputSize                             // C, H, W, OutC, outH, outW
	RuleInputSmallerThanKernel                 // H, W, kH, kW
	RuleInputChannels                          // input C, weight InC
	RuleDepthRank                              // depth rank, input rank
	RuleDepthChannels                          // depth channels
	RuleDepthSize                              // H, W, depth H, depth W
	RuleDepthBatch                             // input N, depth N
	RuleBiasRank                               // bias rank
	RuleBiasSize                               // OutC, bias length
	RuleGradOutputRank                         // gradOutput rank, input rank
	RuleGradOutputPlanes                       // OutC, gradOutput planes
	RuleGradOutputSize                         // outH, outW, gradOutput H, gradOutput W
	RuleGradOutputBatch                        // input N, gradOutput N

	RuleNotContiguous // (none)
	RuleDevice        // device
	RuleDType         // dtype
	RuleDTypeMismatch // dtype, expected dtype

	RuleSizeOverflow // (none)
)

var ruleText = map[Rule]string{
	RuleWeightRank:             "4D weight tensor (nOutputPlane,nInputPlane,kH,kW) expected, but got rank %d",
	RuleKernelSize:             "kernel size should be greater than zero, but got kH: %d kW: %d",
	RuleKernelMismatch:         "kernel size should be consistent with weight, but got kH: %d kW: %d weight kH: %d weight kW: %d",
	RuleStride:                 "stride should be greater than zero, but got strideH: %d strideW: %d",
	RuleDilation:               "dilation should be greater than zero, but got dilationH: %d dilationW: %d",
	RuleInputRank:              "3D or 4D input tensor expected but got rank %d",
	RulePadding:                "padding should not be negative, but got padH: %d padW: %d",
	RuleOutputSize:             "given input size (%d x %d x %d), calculated output size (%d x %d x %d) is too small",
	RuleInputSmallerThanKernel: "input image (%d x %d) is smaller than kernel (%d x %d)",
	RuleInputChannels:          "input has %d channels but weight expects %d",
	RuleDepthRank:              "input depth of rank %d does not match input of rank %d",
	RuleDepthChannels:          "input depth should have only 1 channel, but got %d",
	RuleDepthSize:              "input image (%d x %d) and input depth (%d x %d) should be the same size",
	RuleDepthBatch:             "invalid batch size of input depth: input has %d, depth has %d",
	RuleBiasRank:               "need bias of rank 1 but got %d",
	RuleBiasSize:               "need bias of size %d but got %d",
	RuleGradOutputRank:         "gradOutput of rank %d does not match input of rank %d",
	RuleGradOutputPlanes:       "invalid number of gradOutput planes, expected: %d, but got: %d",
	RuleGradOutputSize:         "invalid size of gradOutput, expected height: %d width: %d, but got height: %d width: %d",
	RuleGradOutputBatch:        "invalid batch size of gradOutput: input has %d, gradOutput has %d",
	RuleNotContiguous:          "must be contiguous",
	RuleDevice:                 "must be a CPU tensor, but is on device %s",
	RuleDType:                  "must be floating point, but has dtype %s",
	RuleDTypeMismatch:          "has dtype %s but the call uses dtype %s",
	RuleSizeOverflow:           "intermediate size computation overflows",
}

// Error is the structured error returned by every entry point. The message is
// rendered from Rule and Dims on demand; callers match on Kind and Rule.
type Error struct {
	Kind    Kind
	Rule    Rule
	Operand string // Offending operand, e.g. "input_depth"; empty for geometry rules.
	Dims    []int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	if e.Operand != "" {
		sb.WriteString(e.Operand)
		sb.WriteString(" ")
	}
	format, ok := ruleText[e.Rule]
	if !ok {
		fmt.Fprintf(&sb, "rule %d %v", int(e.Rule), e.Dims)
		return sb.String()
	}
	args := make([]any, len(e.Dims))
	for i, d := range e.Dims {
		switch e.Rule {
		case RuleDevice:
			args[i] = tensor.Device(d)
		case RuleDType, RuleDTypeMismatch:
			args[i] = tensor.DataType(d)
		default:
			args[i] = d
		}
	}
	fmt.Fprintf(&sb, format, args...)
	return sb.String()
}

// Is matches another *Error with the same Kind and either the same Rule or no Rule,
// so the sentinels below match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Rule == 0 || t.Rule == e.Rule)
}

// Sentinels for errors.Is.
var (
	ErrInvalidShape       = &Error{Kind: InvalidShape}
	ErrInvalidOperand     = &Error{Kind: InvalidOperand}
	ErrArithmeticOverflow = &Error{Kind: ArithmeticOverflow}
)

func shapeError(rule Rule, dims ...int) *Error {
	return &Error{Kind: InvalidShape, Rule: rule, Dims: dims}
}

func operandError(operand string, rule Rule, dims ...int) *Error {
	return &Error{Kind: InvalidOperand, Rule: rule, Operand: operand, Dims: dims}
}

func overflowError() *Error {
	return &Error{Kind: ArithmeticOverflow, Rule: RuleSizeOverflow}
}
