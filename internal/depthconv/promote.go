package depthconv

import (
	"github.com/born-ml/depthconv/internal/tensor"
)

// computeType is the dtype kernels run in for operands of dtype d. Float16
// operands are computed in Float32.
func computeType(d tensor.DataType) tensor.DataType {
	if d == tensor.Float16 {
		return tensor.Float32
	}
	return d
}

// promote converts operands to their compute type. Nil operands stay nil and
// operands already in the compute type are returned as is.
func promote(ts ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(ts))
	for i, t := range ts {
		if t == nil || computeType(t.DType()) == t.DType() {
			out[i] = t
			continue
		}
		c, err := tensor.Cast(t, computeType(t.DType()))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// demote converts a result back to the caller's dtype.
func demote(t *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if t == nil || t.DType() == dtype {
		return t, nil
	}
	return tensor.Cast(t, dtype)
}
