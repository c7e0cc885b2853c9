package depthconv

import (
	"github.com/born-ml/depthconv/internal/tensor"
)

// batched is a rank-4 view of an operand together with whether its batch axis
// was synthesized at the entry point. Results computed on a synthesized batch
// are returned without it.
type batched struct {
	t           *tensor.RawTensor
	synthesized bool
}

// asBatched wraps t, adding a unit batch axis to rank-3 tensors. t must be
// contiguous and of rank 3 or 4.
func asBatched(t *tensor.RawTensor) (batched, error) {
	if t.Rank() == 4 {
		return batched{t: t}, nil
	}
	v, err := t.Unsqueeze0()
	if err != nil {
		return batched{}, err
	}
	return batched{t: v, synthesized: true}, nil
}

// size returns the batch size N.
func (b batched) size() int {
	return b.t.Dim(0)
}

// elt returns the [C, H, W] view of batch element n.
func (b batched) elt(n int) *tensor.RawTensor {
	return b.t.Select(n)
}

// strip removes the batch axis from a result computed on b when b's axis was synthesized.
func (b batched) strip(result *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !b.synthesized {
		return result, nil
	}
	return result.Squeeze0()
}

// batchOperands wraps input and depth and checks that their batch sizes agree.
func batchOperands(input, depth *tensor.RawTensor) (in, dep batched, err error) {
	if in, err = asBatched(input); err != nil {
		return batched{}, batched{}, err
	}
	if dep, err = asBatched(depth); err != nil {
		return batched{}, batched{}, err
	}
	if dep.size() != in.size() {
		return batched{}, batched{}, shapeError(RuleDepthBatch, in.size(), dep.size())
	}
	return in, dep, nil
}
