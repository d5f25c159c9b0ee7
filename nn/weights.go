package nn

import (
	"fmt"

	"cipherprobe/tensor"
)

// Parameterized is implemented by layers that expose trainable tensors.
type Parameterized interface {
	Params() map[string]*tensor.Tensor
}

// Weights returns the classifier's trainable tensors keyed by layer index
// and parameter name, e.g. "0/W". The tensors are the live ones, not copies.
func (c *Classifier) Weights() map[string]*tensor.Tensor {
	out := map[string]*tensor.Tensor{}
	for i, layer := range c.net.Layers {
		p, ok := layer.(Parameterized)
		if !ok {
			continue
		}
		for name, t := range p.Params() {
			out[fmt.Sprintf("%d/%s", i, name)] = t
		}
	}
	return out
}

// SetWeights copies saved tensors into the classifier. Every key must name
// an existing parameter of matching size; extra or missing parameters are
// an architecture mismatch.
func (c *Classifier) SetWeights(weights map[string]*tensor.Tensor) error {
	have := c.Weights()
	if len(weights) != len(have) {
		return fmt.Errorf("%w: %d saved parameters for %d in the model", ErrArchitecture, len(weights), len(have))
	}
	for key, src := range weights {
		dst, ok := have[key]
		if !ok {
			return fmt.Errorf("%w: no parameter %q", ErrArchitecture, key)
		}
		if len(src.Data) != len(dst.Data) {
			return fmt.Errorf("%w: parameter %q has %d values, want %d", ErrArchitecture, key, len(src.Data), len(dst.Data))
		}
		copy(dst.Data, src.Data)
	}
	return nil
}
