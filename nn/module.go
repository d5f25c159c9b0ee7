// Package nn holds the trainable classifiers: a small layer zoo, the
// softmax/cross-entropy head, and a factory that assembles whole networks
// from an architecture spec. Training is plain per-sample SGD.
package nn

import (
	"cipherprobe/tensor"
)

// Module defines a single layer/unit in the network.
type Module interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	// Backward computes gradients and propagates them. It takes the gradient
	// of the loss with respect to the module's output and returns the
	// gradient with respect to the module's input.
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	// Update applies accumulated gradients with the given learning rate and
	// clears them. Stateless modules do nothing.
	Update(lr float64)
}

// LengthAware is implemented by modules that only attend to a prefix of
// their input sequence. SetLength returns the length as seen by the next
// module, so stride-reducing layers can shrink it on the way through.
type LengthAware interface {
	SetLength(n int) int
}

// ModeAware is implemented by modules that behave differently during
// training, such as dropout.
type ModeAware interface {
	SetTraining(training bool)
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := x
	for _, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Sequential) Update(lr float64) {
	for _, layer := range s.Layers {
		layer.Update(lr)
	}
}

// SetLength tells sequence layers how many leading positions of the next
// input are real, threading the length through stride-reducing layers.
func (s *Sequential) SetLength(n int) int {
	for _, layer := range s.Layers {
		if la, ok := layer.(LengthAware); ok {
			n = la.SetLength(n)
		}
	}
	return n
}

func (s *Sequential) SetTraining(training bool) {
	for _, layer := range s.Layers {
		if ma, ok := layer.(ModeAware); ok {
			ma.SetTraining(training)
		}
	}
}
