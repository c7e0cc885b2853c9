package nn

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/tensor"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values.
//
// Example:
//
//	var mse nn.MSELoss
//	loss, grad, err := mse.Forward(conv.Forward(image, depth), targets)
//	conv.Backward(grad)
type MSELoss struct{}

// Forward returns the loss together with its gradient with respect to
// predictions, 2 * (predictions - targets) / numel. Both tensors must be
// contiguous Float32 with the same shape.
func (MSELoss) Forward(predictions, targets *tensor.RawTensor) (float64, *tensor.RawTensor, error) {
	if !predictions.Shape().Equal(targets.Shape()) {
		return 0, nil, fmt.Errorf("mse: predictions %v and targets %v must have the same shape",
			predictions.Shape(), targets.Shape())
	}
	if predictions.DType() != tensor.Float32 || targets.DType() != tensor.Float32 {
		return 0, nil, fmt.Errorf("mse: float32 operands expected, got %s and %s",
			predictions.DType(), targets.DType())
	}
	grad, err := tensor.NewRaw(predictions.Shape(), tensor.Float32, tensor.CPU)
	if err != nil {
		return 0, nil, err
	}

	p, t, g := predictions.AsFloat32(), targets.AsFloat32(), grad.AsFloat32()
	n := float64(len(p))
	var sum float64
	for i := range p {
		diff := float64(p[i]) - float64(t[i])
		sum += diff * diff
		g[i] = float32(2 * diff / n)
	}
	return sum / n, grad, nil
}
