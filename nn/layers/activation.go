package layers

import (
	"fmt"
	"math"

	"cipherprobe/tensor"
)

// Activator is an elementwise nonlinearity and its derivative with respect
// to the pre-activation value.
type Activator interface {
	Activate(v float64) float64
	Derivative(v float64) float64
	fmt.Stringer
}

var ActivatorLookup = map[string]Activator{
	"sigmoid": Sigmoid{},
	"tanh":    Tanh{},
	"relu":    ReLU{},
}

type Sigmoid struct{}

func (Sigmoid) Activate(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func (s Sigmoid) Derivative(v float64) float64 {
	a := s.Activate(v)
	return a * (1 - a)
}

func (Sigmoid) String() string { return "sigmoid" }

type Tanh struct{}

func (Tanh) Activate(v float64) float64 { return math.Tanh(v) }

func (Tanh) Derivative(v float64) float64 {
	t := math.Tanh(v)
	return 1 - t*t
}

func (Tanh) String() string { return "tanh" }

type ReLU struct{}

func (ReLU) Activate(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

func (ReLU) Derivative(v float64) float64 {
	if v > 0 {
		return 1
	}
	return 0
}

func (ReLU) String() string { return "relu" }

// Activation applies an Activator elementwise.
type Activation struct {
	act    Activator
	lastIn *tensor.Tensor
}

func NewActivation(act Activator) *Activation {
	return &Activation{act: act}
}

func (a *Activation) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	a.lastIn = x
	y := tensor.New(x.Shape...)
	for i, v := range x.Data {
		y.Data[i] = a.act.Activate(v)
	}
	return y, nil
}

func (a *Activation) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if gradOut.Size() != a.lastIn.Size() {
		return nil, fmt.Errorf("%s: gradient size %d, want %d", a.act, gradOut.Size(), a.lastIn.Size())
	}
	gradIn := tensor.New(a.lastIn.Shape...)
	for i, g := range gradOut.Data {
		gradIn.Data[i] = g * a.act.Derivative(a.lastIn.Data[i])
	}
	return gradIn, nil
}

func (a *Activation) Update(lr float64) {}
