// Package layers implements the individual network modules: fully-connected,
// activation, dropout, 1-D convolution, recurrent, and flatten. All layers
// work on flat float64 tensors and keep their own gradient accumulators.
package layers

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"cipherprobe/tensor"
)

// randomArray draws uniform values in ±1/sqrt(fanIn), the usual scaled
// initialization for small dense stacks.
func randomArray(size int, fanIn float64, src exprand.Source) []float64 {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(fanIn),
		Max: 1 / math.Sqrt(fanIn),
		Src: src,
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = dist.Rand()
	}
	return data
}

// Linear is a fully-connected layer: y = Wx + b.
type Linear struct {
	W *tensor.Tensor // [out, in]
	B *tensor.Tensor // [out]

	dW, dB *tensor.Tensor
	lastIn *tensor.Tensor
}

func NewLinear(inDim, outDim int, src exprand.Source) *Linear {
	w := tensor.New(outDim, inDim)
	copy(w.Data, randomArray(outDim*inDim, float64(inDim), src))
	return &Linear{
		W:  w,
		B:  tensor.New(outDim),
		dW: tensor.New(outDim, inDim),
		dB: tensor.New(outDim),
	}
}

func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	in := l.W.Shape[1]
	if x.Size() != in {
		return nil, fmt.Errorf("linear: input size %d, want %d", x.Size(), in)
	}
	l.lastIn = x
	out := l.W.Shape[0]
	y := tensor.New(out)
	for o := 0; o < out; o++ {
		sum := l.B.Data[o]
		row := l.W.Data[o*in : (o+1)*in]
		for i, v := range x.Data {
			sum += row[i] * v
		}
		y.Data[o] = sum
	}
	return y, nil
}

func (l *Linear) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	out, in := l.W.Shape[0], l.W.Shape[1]
	if gradOut.Size() != out {
		return nil, fmt.Errorf("linear: gradient size %d, want %d", gradOut.Size(), out)
	}
	gradIn := tensor.New(in)
	for o := 0; o < out; o++ {
		g := gradOut.Data[o]
		l.dB.Data[o] += g
		row := l.W.Data[o*in : (o+1)*in]
		dRow := l.dW.Data[o*in : (o+1)*in]
		for i := 0; i < in; i++ {
			dRow[i] += g * l.lastIn.Data[i]
			gradIn.Data[i] += g * row[i]
		}
	}
	return gradIn, nil
}

func (l *Linear) Update(lr float64) {
	for i, g := range l.dW.Data {
		l.W.Data[i] -= lr * g
		l.dW.Data[i] = 0
	}
	for i, g := range l.dB.Data {
		l.B.Data[i] -= lr * g
		l.dB.Data[i] = 0
	}
}

// Params exposes the layer's trainable tensors for checkpointing.
func (l *Linear) Params() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"W": l.W, "B": l.B}
}
