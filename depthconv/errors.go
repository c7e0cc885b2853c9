// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package depthconv

import "github.com/born-ml/depthconv/internal/depthconv"

// Error is the structured error returned by every entry point.
type Error = depthconv.Error

// Kind classifies why a call was rejected.
type Kind = depthconv.Kind

// Rule identifies the specific check that failed.
type Rule = depthconv.Rule

// Error kinds.
const (
	InvalidShape       = depthconv.InvalidShape
	InvalidOperand     = depthconv.InvalidOperand
	ArithmeticOverflow = depthconv.ArithmeticOverflow
)

// Sentinels for errors.Is.
var (
	ErrInvalidShape       = depthconv.ErrInvalidShape
	ErrInvalidOperand     = depthconv.ErrInvalidOperand
	ErrArithmeticOverflow = depthconv.ErrArithmeticOverflow
)

// Validation rules, in evaluation order.
const (
	RuleWeightRank             = depthconv.RuleWeightRank
	RuleKernelSize             = depthconv.RuleKernelSize
	RuleKernelMismatch         = depthconv.RuleKernelMismatch
	RuleStride                 = depthconv.RuleStride
	RuleDilation               = depthconv.RuleDilation
	RuleInputRank              = depthconv.RuleInputRank
	RulePadding                = depthconv.RulePadding
	RuleOutputSize             = depthconv.RuleOutputSize
	RuleInputSmallerThanKernel = depthconv.RuleInputSmallerThanKernel
	RuleInputChannels          = depthconv.RuleInputChannels
	RuleDepthRank              = depthconv.RuleDepthRank
	RuleDepthChannels          = depthconv.RuleDepthChannels
	RuleDepthSize              = depthconv.RuleDepthSize
	RuleDepthBatch             = depthconv.RuleDepthBatch
	RuleBiasRank               = depthconv.RuleBiasRank
	RuleBiasSize               = depthconv.RuleBiasSize
	RuleGradOutputRank         = depthconv.RuleGradOutputRank
	RuleGradOutputPlanes       = depthconv.RuleGradOutputPlanes
	RuleGradOutputSize         = depthconv.RuleGradOutputSize
	RuleGradOutputBatch        = depthconv.RuleGradOutputBatch
	RuleNotContiguous          = depthconv.RuleNotContiguous
	RuleDevice                 = depthconv.RuleDevice
	RuleDType                  = depthconv.RuleDType
	RuleDTypeMismatch          = depthconv.RuleDTypeMismatch
	RuleSizeOverflow           = depthconv.RuleSizeOverflow
)
