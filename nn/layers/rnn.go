package layers

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"

	"cipherprobe/tensor"
)

// RNN is an Elman recurrent layer with tanh state updates, trained with
// full backpropagation through the real prefix of the sequence. With
// returnSequences it emits the hidden state at every step (zero past the
// masked length); otherwise it emits only the final hidden state.
type RNN struct {
	inDim, hidden   int
	returnSequences bool

	Wxh *tensor.Tensor // [hidden, in]
	Whh *tensor.Tensor // [hidden, hidden]
	Bh  *tensor.Tensor // [hidden]

	dWxh, dWhh, dBh *tensor.Tensor

	length int
	lastIn *tensor.Tensor
	hs     []*tensor.Tensor // hs[0] is the zero initial state
}

func NewRNN(inDim, hidden int, returnSequences bool, src exprand.Source) *RNN {
	wxh := tensor.New(hidden, inDim)
	copy(wxh.Data, randomArray(hidden*inDim, float64(inDim), src))
	whh := tensor.New(hidden, hidden)
	copy(whh.Data, randomArray(hidden*hidden, float64(hidden), src))
	return &RNN{
		inDim:           inDim,
		hidden:          hidden,
		returnSequences: returnSequences,
		Wxh:             wxh,
		Whh:             whh,
		Bh:              tensor.New(hidden),
		dWxh:            tensor.New(hidden, inDim),
		dWhh:            tensor.New(hidden, hidden),
		dBh:             tensor.New(hidden),
	}
}

// SetLength masks the sequence: only the first n steps are walked.
func (r *RNN) SetLength(n int) int {
	r.length = n
	return n
}

func (r *RNN) steps(total int) int {
	if r.length <= 0 || r.length > total {
		return total
	}
	return r.length
}

func (r *RNN) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 2 || x.Shape[1] != r.inDim {
		return nil, fmt.Errorf("rnn: input shape %v, want [T, %d]", x.Shape, r.inDim)
	}
	r.lastIn = x
	total := x.Shape[0]
	steps := r.steps(total)

	r.hs = make([]*tensor.Tensor, steps+1)
	r.hs[0] = tensor.New(r.hidden)
	for t := 0; t < steps; t++ {
		xt := x.Data[t*r.inDim : (t+1)*r.inDim]
		prev := r.hs[t]
		h := tensor.New(r.hidden)
		for j := 0; j < r.hidden; j++ {
			sum := r.Bh.Data[j]
			wx := r.Wxh.Data[j*r.inDim : (j+1)*r.inDim]
			for i, v := range xt {
				sum += wx[i] * v
			}
			wh := r.Whh.Data[j*r.hidden : (j+1)*r.hidden]
			for i, v := range prev.Data {
				sum += wh[i] * v
			}
			h.Data[j] = math.Tanh(sum)
		}
		r.hs[t+1] = h
	}

	if !r.returnSequences {
		out := tensor.New(r.hidden)
		copy(out.Data, r.hs[steps].Data)
		return out, nil
	}
	out := tensor.New(total, r.hidden)
	for t := 0; t < steps; t++ {
		copy(out.Data[t*r.hidden:(t+1)*r.hidden], r.hs[t+1].Data)
	}
	return out, nil
}

func (r *RNN) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	total := r.lastIn.Shape[0]
	steps := len(r.hs) - 1
	wantSize := r.hidden
	if r.returnSequences {
		wantSize = total * r.hidden
	}
	if gradOut.Size() != wantSize {
		return nil, fmt.Errorf("rnn: gradient size %d, want %d", gradOut.Size(), wantSize)
	}

	gradIn := tensor.New(r.lastIn.Shape...)
	dh := make([]float64, r.hidden)
	if !r.returnSequences {
		copy(dh, gradOut.Data)
	}
	for t := steps - 1; t >= 0; t-- {
		if r.returnSequences {
			for j := 0; j < r.hidden; j++ {
				dh[j] += gradOut.Data[t*r.hidden+j]
			}
		}
		h := r.hs[t+1]
		prev := r.hs[t]
		xt := r.lastIn.Data[t*r.inDim : (t+1)*r.inDim]

		// tanh' recovered from the activation itself.
		dz := make([]float64, r.hidden)
		for j := 0; j < r.hidden; j++ {
			dz[j] = dh[j] * (1 - h.Data[j]*h.Data[j])
		}

		next := make([]float64, r.hidden)
		for j := 0; j < r.hidden; j++ {
			g := dz[j]
			if g == 0 {
				continue
			}
			r.dBh.Data[j] += g
			dwx := r.dWxh.Data[j*r.inDim : (j+1)*r.inDim]
			wx := r.Wxh.Data[j*r.inDim : (j+1)*r.inDim]
			for i, v := range xt {
				dwx[i] += g * v
				gradIn.Data[t*r.inDim+i] += g * wx[i]
			}
			dwh := r.dWhh.Data[j*r.hidden : (j+1)*r.hidden]
			wh := r.Whh.Data[j*r.hidden : (j+1)*r.hidden]
			for i, v := range prev.Data {
				dwh[i] += g * v
				next[i] += g * wh[i]
			}
		}
		dh = next
	}
	return gradIn, nil
}

func (r *RNN) Update(lr float64) {
	for _, pair := range []struct{ w, g *tensor.Tensor }{
		{r.Wxh, r.dWxh}, {r.Whh, r.dWhh}, {r.Bh, r.dBh},
	} {
		for i, g := range pair.g.Data {
			pair.w.Data[i] -= lr * g
			pair.g.Data[i] = 0
		}
	}
}

// Params exposes the layer's trainable tensors for checkpointing.
func (r *RNN) Params() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"Wxh": r.Wxh, "Whh": r.Whh, "Bh": r.Bh}
}
