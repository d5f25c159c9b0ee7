package nn

import (
	"math"

	"cipherprobe/tensor"
)

type CrossEntropyLoss struct{}

// Value computes the cross-entropy of the softmax output against an integer
// class label.
func (c *CrossEntropyLoss) Value(softmaxOut *tensor.Tensor, label int) float64 {
	p := softmaxOut.Data[label]
	if p < 1e-12 {
		p = 1e-12
	}
	return -math.Log(p)
}

// Backward computes the gradient of the cross-entropy loss with softmax.
// grad = (softmax_output - one_hot_label)
func (c *CrossEntropyLoss) Backward(softmaxOut *tensor.Tensor, label int) *tensor.Tensor {
	grad := tensor.New(len(softmaxOut.Data))
	copy(grad.Data, softmaxOut.Data)
	grad.Data[label] -= 1
	return grad
}

// Softmax applies the softmax function to a tensor.
func Softmax(logits *tensor.Tensor) *tensor.Tensor {
	maxLogit := logits.Data[0]
	for _, v := range logits.Data {
		if v > maxLogit {
			maxLogit = v
		}
	}
	expSum := 0.0
	exps := make([]float64, len(logits.Data))
	for i, v := range logits.Data {
		e := math.Exp(v - maxLogit)
		exps[i] = e
		expSum += e
	}
	softmax := tensor.New(len(logits.Data))
	for i, e := range exps {
		softmax.Data[i] = e / expSum
	}
	return softmax
}
