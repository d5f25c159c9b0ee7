package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"cipherprobe/encode"
	"cipherprobe/nn/layers"
	"cipherprobe/tensor"
)

func TestBuildRejectsBadSpecs(t *testing.T) {
	cases := []ArchSpec{
		{Family: FeedForward, InputSize: 0, NumClasses: 2},
		{Family: FeedForward, InputSize: 8, NumClasses: 1},
		{Family: FeedForward, InputSize: 8, NumClasses: 2, Activation: "swish"},
		{Family: ConvRecurrent, InputSize: 64, NumClasses: 2, ConvKernel: 128},
		{Family: Family(42), InputSize: 8, NumClasses: 2},
	}
	for _, spec := range cases {
		_, err := Build(spec)
		require.ErrorIs(t, err, ErrArchitecture, "%+v", spec)
	}
}

func TestTrainStepRejectsEmptyBatch(t *testing.T) {
	c, err := Build(ArchSpec{Family: FeedForward, InputSize: 4, NumClasses: 2})
	require.NoError(t, err)
	_, _, err = c.TrainStep(nil)
	require.Error(t, err)
}

func TestClassifierRejectsOutOfRangeLabel(t *testing.T) {
	c, err := Build(ArchSpec{Family: FeedForward, InputSize: 4, NumClasses: 2})
	require.NoError(t, err)
	batch := []encode.Example{{X: tensor.New(4), Length: 4, Label: 5}}
	_, _, err = c.Evaluate(batch)
	require.ErrorIs(t, err, ErrArchitecture)
}

// meanBatch builds a linearly separable task: class 1 inputs sit above zero
// on average, class 0 below.
func meanBatch(rng *rand.Rand, n, dim int) []encode.Example {
	batch := make([]encode.Example, n)
	for i := range batch {
		label := i % 2
		shift := -0.25
		if label == 1 {
			shift = 0.25
		}
		x := tensor.New(dim)
		for j := range x.Data {
			x.Data[j] = shift + rng.NormFloat64()*0.1
		}
		batch[i] = encode.Example{X: x, Length: dim, Label: label}
	}
	return batch
}

func TestFeedForwardLearnsSeparableTask(t *testing.T) {
	c, err := Build(ArchSpec{
		Family:        FeedForward,
		InputSize:     8,
		NumClasses:    2,
		HiddenLayers:  1,
		UnitsPerLayer: 16,
		Activation:    "relu",
		LearningRate:  0.05,
		Seed:          1,
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 30; round++ {
		_, _, err := c.TrainStep(meanBatch(rng, 32, 8))
		require.NoError(t, err)
	}
	loss, acc, err := c.Evaluate(meanBatch(rng, 200, 8))
	require.NoError(t, err)
	require.Greater(t, acc, 0.95)
	require.Less(t, loss, 0.5)
}

func TestConvRecurrentForwardAndTrainStep(t *testing.T) {
	c, err := Build(ArchSpec{
		Family:          ConvRecurrent,
		InputSize:       64,
		NumClasses:      3,
		UnitsPerLayer:   8,
		ConvFilters:     8,
		ConvKernel:      16,
		ConvStride:      16,
		RecurrentLayers: 2,
		LearningRate:    0.01,
		Seed:            2,
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	batch := make([]encode.Example, 6)
	for i := range batch {
		x := tensor.New(64, 256)
		length := 32 + rng.Intn(32)
		for row := 0; row < length; row++ {
			x.Data[row*256+rng.Intn(256)] = 1
		}
		batch[i] = encode.Example{X: x, Length: length, Label: i % 3}
	}
	loss, acc, err := c.TrainStep(batch)
	require.NoError(t, err)
	require.False(t, math.IsNaN(loss))
	require.GreaterOrEqual(t, acc, 0.0)
	require.LessOrEqual(t, acc, 1.0)
}

func TestDropoutFollowsEveryLayer(t *testing.T) {
	countDropout := func(net *Sequential) int {
		n := 0
		for _, l := range net.Layers {
			if _, ok := l.(*layers.Dropout); ok {
				n++
			}
		}
		return n
	}

	ff, err := Build(ArchSpec{
		Family:       FeedForward,
		InputSize:    16,
		NumClasses:   2,
		HiddenLayers: 2,
		Dropout:      0.1,
		Seed:         5,
	})
	require.NoError(t, err)
	require.Equal(t, 2, countDropout(ff.net))

	// Conv and every recurrent layer get their own dropout.
	cr, err := Build(ArchSpec{
		Family:          ConvRecurrent,
		InputSize:       64,
		NumClasses:      2,
		UnitsPerLayer:   8,
		ConvKernel:      16,
		RecurrentLayers: 2,
		Dropout:         0.1,
		Seed:            5,
	})
	require.NoError(t, err)
	require.Equal(t, 3, countDropout(cr.net))
}

func TestDropoutOnlyPerturbsTraining(t *testing.T) {
	c, err := Build(ArchSpec{
		Family:        FeedForward,
		InputSize:     8,
		NumClasses:    2,
		UnitsPerLayer: 16,
		Dropout:       0.5,
		Seed:          3,
	})
	require.NoError(t, err)
	x := tensor.New(8)
	for i := range x.Data {
		x.Data[i] = 0.5
	}
	batch := []encode.Example{{X: x, Length: 8, Label: 0}}
	// Evaluation is deterministic with dropout disabled.
	lossA, _, err := c.Evaluate(batch)
	require.NoError(t, err)
	lossB, _, err := c.Evaluate(batch)
	require.NoError(t, err)
	require.Equal(t, lossA, lossB)
}
