package nn

import (
	"errors"
	"fmt"
	"math/rand"

	exprand "golang.org/x/exp/rand"

	"cipherprobe/encode"
	"cipherprobe/nn/layers"
)

// Family selects the overall network shape.
type Family int

const (
	// FeedForward consumes flat-scaled vectors through dense layers.
	FeedForward Family = iota
	// ConvRecurrent consumes one-hot byte sequences through a strided 1-D
	// convolution followed by a recurrent stack.
	ConvRecurrent
)

func (f Family) String() string {
	switch f {
	case FeedForward:
		return "feed-forward"
	case ConvRecurrent:
		return "conv-recurrent"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ErrArchitecture reports an architecture spec no network can be built from.
var ErrArchitecture = errors.New("invalid architecture")

// ArchSpec describes a classifier to build. Zero values fall back to the
// defaults noted per field.
type ArchSpec struct {
	Family     Family
	InputSize  int // flat input width, or max sequence length
	NumClasses int

	HiddenLayers  int     // dense layers before the head; default 1
	UnitsPerLayer int     // default 128
	Activation    string  // dense nonlinearity; default "relu"
	Dropout       float64 // rate after each hidden, conv and recurrent layer; 0 disables

	ConvFilters     int // default UnitsPerLayer
	ConvKernel      int // default 128
	ConvStride      int // default ConvKernel
	RecurrentLayers int // default 1

	LearningRate float64 // default 0.01
	Seed         int64
}

func (s *ArchSpec) applyDefaults() {
	if s.HiddenLayers <= 0 {
		s.HiddenLayers = 1
	}
	if s.UnitsPerLayer <= 0 {
		s.UnitsPerLayer = 128
	}
	if s.Activation == "" {
		s.Activation = "relu"
	}
	if s.ConvFilters <= 0 {
		s.ConvFilters = s.UnitsPerLayer
	}
	if s.ConvKernel <= 0 {
		s.ConvKernel = 128
	}
	if s.ConvStride <= 0 {
		s.ConvStride = s.ConvKernel
	}
	if s.RecurrentLayers <= 0 {
		s.RecurrentLayers = 1
	}
	if s.LearningRate <= 0 {
		s.LearningRate = 0.01
	}
}

// Classifier wraps a network with its loss head and per-sample SGD loop.
type Classifier struct {
	net     *Sequential
	loss    CrossEntropyLoss
	lr      float64
	classes int
}

// Build assembles a classifier for the given architecture. The seed fixes
// weight initialization and dropout masks.
func Build(spec ArchSpec) (*Classifier, error) {
	spec.applyDefaults()
	if spec.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d", ErrArchitecture, spec.InputSize)
	}
	if spec.NumClasses < 2 {
		return nil, fmt.Errorf("%w: %d classes", ErrArchitecture, spec.NumClasses)
	}
	act, ok := layers.ActivatorLookup[spec.Activation]
	if !ok {
		return nil, fmt.Errorf("%w: unknown activation %q", ErrArchitecture, spec.Activation)
	}

	src := exprand.NewSource(uint64(spec.Seed))
	dropRNG := rand.New(rand.NewSource(spec.Seed + 1))
	net := &Sequential{}

	addDropout := func() error {
		if spec.Dropout == 0 {
			return nil
		}
		d, err := layers.NewDropout(spec.Dropout, dropRNG)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrArchitecture, err)
		}
		net.Layers = append(net.Layers, d)
		return nil
	}

	switch spec.Family {
	case FeedForward:
		in := spec.InputSize
		for i := 0; i < spec.HiddenLayers; i++ {
			net.Layers = append(net.Layers,
				layers.NewLinear(in, spec.UnitsPerLayer, src),
				layers.NewActivation(act))
			if err := addDropout(); err != nil {
				return nil, err
			}
			in = spec.UnitsPerLayer
		}
		net.Layers = append(net.Layers, layers.NewLinear(in, spec.NumClasses, src))

	case ConvRecurrent:
		if spec.InputSize < spec.ConvKernel {
			return nil, fmt.Errorf("%w: sequence length %d shorter than conv kernel %d",
				ErrArchitecture, spec.InputSize, spec.ConvKernel)
		}
		conv, err := layers.NewConv1D(256, spec.ConvFilters, spec.ConvKernel, spec.ConvStride, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArchitecture, err)
		}
		net.Layers = append(net.Layers, conv)
		if err := addDropout(); err != nil {
			return nil, err
		}
		in := spec.ConvFilters
		for i := 0; i < spec.RecurrentLayers; i++ {
			last := i == spec.RecurrentLayers-1
			net.Layers = append(net.Layers, layers.NewRNN(in, spec.UnitsPerLayer, !last, src))
			if err := addDropout(); err != nil {
				return nil, err
			}
			in = spec.UnitsPerLayer
		}
		net.Layers = append(net.Layers, layers.NewLinear(spec.UnitsPerLayer, spec.NumClasses, src))

	default:
		return nil, fmt.Errorf("%w: unknown family %v", ErrArchitecture, spec.Family)
	}

	return &Classifier{net: net, lr: spec.LearningRate, classes: spec.NumClasses}, nil
}

func (c *Classifier) NumClasses() int { return c.classes }

// TrainStep runs one per-sample SGD pass over the batch and reports the mean
// loss and accuracy observed while training.
func (c *Classifier) TrainStep(batch []encode.Example) (float64, float64, error) {
	return c.run(batch, true)
}

// Evaluate scores the batch without touching the weights.
func (c *Classifier) Evaluate(batch []encode.Example) (float64, float64, error) {
	return c.run(batch, false)
}

func (c *Classifier) run(batch []encode.Example, train bool) (float64, float64, error) {
	if len(batch) == 0 {
		return 0, 0, fmt.Errorf("%w: empty batch", ErrArchitecture)
	}
	c.net.SetTraining(train)
	totalLoss := 0.0
	correct := 0
	for _, ex := range batch {
		if ex.Label < 0 || ex.Label >= c.classes {
			return 0, 0, fmt.Errorf("%w: label %d outside %d classes", ErrArchitecture, ex.Label, c.classes)
		}
		c.net.SetLength(ex.Length)
		logits, err := c.net.Forward(ex.X)
		if err != nil {
			return 0, 0, err
		}
		sm := Softmax(logits)
		totalLoss += c.loss.Value(sm, ex.Label)
		if sm.Argmax() == ex.Label {
			correct++
		}
		if train {
			grad := c.loss.Backward(sm, ex.Label)
			if _, err := c.net.Backward(grad); err != nil {
				return 0, 0, err
			}
			c.net.Update(c.lr)
		}
	}
	n := float64(len(batch))
	return totalLoss / n, float64(correct) / n, nil
}
