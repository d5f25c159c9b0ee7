// Package encode maps raw ciphertext (or plaintext) bytes onto the fixed
// tensor representations the model families consume. Encoding is a pure
// function of the input bytes and the shape policy; nothing else — in
// particular no key material — ever reaches the tensor.
package encode

import (
	"errors"
	"fmt"

	"cipherprobe/tensor"
)

// Policy selects the tensor representation.
type Policy int

const (
	// FlatScaled produces a [maxLen] vector with each byte scaled to
	// (b-128)/256, zero-padded past the input's end. Feed-forward family.
	FlatScaled Policy = iota
	// OneHotSequence produces a [maxLen, 256] matrix with one one-hot row
	// per byte and all-zero rows past the input's end. The recurrent family
	// walks only the first Length rows, so padding is never attended to.
	OneHotSequence
)

func (p Policy) String() string {
	switch p {
	case FlatScaled:
		return "flat-scaled"
	case OneHotSequence:
		return "one-hot-sequence"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Example is one model-ready unit: input tensor, the number of real (non
// padding) positions, and the integer class label.
type Example struct {
	X      *tensor.Tensor
	Length int
	Label  int
}

// Encoder converts byte sequences under one shape policy.
type Encoder struct {
	policy Policy
	maxLen int
}

var errMaxLen = errors.New("encoder max length must be positive")

func New(policy Policy, maxLen int) (*Encoder, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: got %d", errMaxLen, maxLen)
	}
	return &Encoder{policy: policy, maxLen: maxLen}, nil
}

// Policy returns the encoder's shape policy.
func (e *Encoder) Policy() Policy { return e.policy }

// MaxLen returns the configured maximum input length.
func (e *Encoder) MaxLen() int { return e.maxLen }

// Encode maps data to a tensor, truncating at the configured maximum. The
// returned length is the number of encoded positions.
func (e *Encoder) Encode(data []byte) (*tensor.Tensor, int) {
	n := len(data)
	if n > e.maxLen {
		n = e.maxLen
	}
	switch e.policy {
	case OneHotSequence:
		x := tensor.New(e.maxLen, 256)
		for i := 0; i < n; i++ {
			x.Data[i*256+int(data[i])] = 1
		}
		return x, n
	default:
		x := tensor.New(e.maxLen)
		for i := 0; i < n; i++ {
			x.Data[i] = (float64(data[i]) - 128) / 256
		}
		return x, n
	}
}
