package layers

import (
	"fmt"

	exprand "golang.org/x/exp/rand"

	"cipherprobe/tensor"
)

// Conv1D slides F filters of width kernel over a [L, C] input with the given
// stride, producing a [T, F] output, T = (L-kernel)/stride + 1. Padding rows
// of the input are all zero, so they contribute nothing; masking past the
// real sequence end is left to the recurrent layers downstream.
type Conv1D struct {
	filters, kernel, stride, channels int

	W *tensor.Tensor // [filters, kernel*channels]
	B *tensor.Tensor // [filters]

	dW, dB *tensor.Tensor
	lastIn *tensor.Tensor
}

func NewConv1D(channels, filters, kernel, stride int, src exprand.Source) (*Conv1D, error) {
	if channels <= 0 || filters <= 0 || kernel <= 0 || stride <= 0 {
		return nil, fmt.Errorf("conv1d: bad geometry %d channels, %d filters, kernel %d, stride %d",
			channels, filters, kernel, stride)
	}
	fan := kernel * channels
	w := tensor.New(filters, fan)
	copy(w.Data, randomArray(filters*fan, float64(fan), src))
	return &Conv1D{
		filters:  filters,
		kernel:   kernel,
		stride:   stride,
		channels: channels,
		W:        w,
		B:        tensor.New(filters),
		dW:       tensor.New(filters, fan),
		dB:       tensor.New(filters),
	}, nil
}

// SetLength maps a real input length onto the number of conv windows that
// cover it, so downstream sequence layers mask consistently. A length shorter
// than the kernel still counts one window: its trailing rows are all-zero
// padding, and the recurrent stack needs at least one step to consume.
func (c *Conv1D) SetLength(n int) int {
	out := (n - c.kernel) / c.stride
	if out < 0 {
		out = 0
	}
	return out + 1
}

func (c *Conv1D) outSteps(inLen int) int {
	return (inLen-c.kernel)/c.stride + 1
}

func (c *Conv1D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 2 || x.Shape[1] != c.channels {
		return nil, fmt.Errorf("conv1d: input shape %v, want [L, %d]", x.Shape, c.channels)
	}
	if x.Shape[0] < c.kernel {
		return nil, fmt.Errorf("conv1d: input length %d shorter than kernel %d", x.Shape[0], c.kernel)
	}
	c.lastIn = x
	steps := c.outSteps(x.Shape[0])
	fan := c.kernel * c.channels
	y := tensor.New(steps, c.filters)
	for t := 0; t < steps; t++ {
		window := x.Data[t*c.stride*c.channels : t*c.stride*c.channels+fan]
		for f := 0; f < c.filters; f++ {
			sum := c.B.Data[f]
			row := c.W.Data[f*fan : (f+1)*fan]
			for i, v := range window {
				sum += row[i] * v
			}
			y.Data[t*c.filters+f] = sum
		}
	}
	return y, nil
}

func (c *Conv1D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	steps := c.outSteps(c.lastIn.Shape[0])
	if gradOut.Size() != steps*c.filters {
		return nil, fmt.Errorf("conv1d: gradient size %d, want %d", gradOut.Size(), steps*c.filters)
	}
	fan := c.kernel * c.channels
	gradIn := tensor.New(c.lastIn.Shape...)
	for t := 0; t < steps; t++ {
		base := t * c.stride * c.channels
		window := c.lastIn.Data[base : base+fan]
		for f := 0; f < c.filters; f++ {
			g := gradOut.Data[t*c.filters+f]
			if g == 0 {
				continue
			}
			c.dB.Data[f] += g
			row := c.W.Data[f*fan : (f+1)*fan]
			dRow := c.dW.Data[f*fan : (f+1)*fan]
			for i := 0; i < fan; i++ {
				dRow[i] += g * window[i]
				gradIn.Data[base+i] += g * row[i]
			}
		}
	}
	return gradIn, nil
}

func (c *Conv1D) Update(lr float64) {
	for i, g := range c.dW.Data {
		c.W.Data[i] -= lr * g
		c.dW.Data[i] = 0
	}
	for i, g := range c.dB.Data {
		c.B.Data[i] -= lr * g
		c.dB.Data[i] = 0
	}
}

// Params exposes the layer's trainable tensors for checkpointing.
func (c *Conv1D) Params() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"W": c.W, "B": c.B}
}
