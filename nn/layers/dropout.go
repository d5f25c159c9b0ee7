package layers

import (
	"fmt"
	"math/rand"

	"cipherprobe/tensor"
)

// Dropout zeroes units with probability rate during training, scaling the
// survivors by 1/(1-rate) so evaluation needs no adjustment.
type Dropout struct {
	rate     float64
	rng      *rand.Rand
	training bool
	mask     []float64
}

func NewDropout(rate float64, rng *rand.Rand) (*Dropout, error) {
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("dropout rate %v outside [0, 1)", rate)
	}
	return &Dropout{rate: rate, rng: rng}, nil
}

func (d *Dropout) SetTraining(training bool) { d.training = training }

func (d *Dropout) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if !d.training || d.rate == 0 {
		d.mask = nil
		return x, nil
	}
	keep := 1 - d.rate
	d.mask = make([]float64, x.Size())
	y := tensor.New(x.Shape...)
	for i, v := range x.Data {
		if d.rng.Float64() < keep {
			d.mask[i] = 1 / keep
			y.Data[i] = v / keep
		}
	}
	return y, nil
}

func (d *Dropout) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if d.mask == nil {
		return gradOut, nil
	}
	if gradOut.Size() != len(d.mask) {
		return nil, fmt.Errorf("dropout: gradient size %d, want %d", gradOut.Size(), len(d.mask))
	}
	gradIn := tensor.New(gradOut.Shape...)
	for i, g := range gradOut.Data {
		gradIn.Data[i] = g * d.mask[i]
	}
	return gradIn, nil
}

func (d *Dropout) Update(lr float64) {}
