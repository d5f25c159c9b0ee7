package layers

import (
	"testing"

	"github.com/stretchr/testify/require"
	exprand "golang.org/x/exp/rand"

	"cipherprobe/tensor"
)

func TestLinearForwardKnownValues(t *testing.T) {
	l := NewLinear(2, 2, exprand.NewSource(1))
	copy(l.W.Data, []float64{1, 2, 3, 4})
	copy(l.B.Data, []float64{0.5, -0.5})

	x := tensor.NewWithData([]float64{1, -1})
	y, err := l.Forward(x)
	require.NoError(t, err)
	require.InDelta(t, 1*1+2*(-1)+0.5, y.Data[0], 1e-12)
	require.InDelta(t, 3*1+4*(-1)-0.5, y.Data[1], 1e-12)
}

func TestLinearRejectsWrongInputSize(t *testing.T) {
	l := NewLinear(4, 2, exprand.NewSource(1))
	_, err := l.Forward(tensor.New(3))
	require.Error(t, err)
}

// Compares the analytic weight and input gradients against central finite
// differences of the scalar loss <g, Forward(x)>.
func TestLinearGradientsNumerically(t *testing.T) {
	const eps = 1e-6
	l := NewLinear(3, 2, exprand.NewSource(7))
	x := tensor.NewWithData([]float64{0.3, -0.7, 1.1})
	g := tensor.NewWithData([]float64{0.9, -0.4})

	lossAt := func() float64 {
		y, err := l.Forward(x)
		require.NoError(t, err)
		sum := 0.0
		for i, v := range y.Data {
			sum += g.Data[i] * v
		}
		return sum
	}

	_, err := l.Forward(x)
	require.NoError(t, err)
	gradIn, err := l.Backward(g)
	require.NoError(t, err)

	for i := range l.W.Data {
		orig := l.W.Data[i]
		l.W.Data[i] = orig + eps
		plus := lossAt()
		l.W.Data[i] = orig - eps
		minus := lossAt()
		l.W.Data[i] = orig
		require.InDelta(t, (plus-minus)/(2*eps), l.dW.Data[i], 1e-6, "dW[%d]", i)
	}
	for i := range x.Data {
		orig := x.Data[i]
		x.Data[i] = orig + eps
		plus := lossAt()
		x.Data[i] = orig - eps
		minus := lossAt()
		x.Data[i] = orig
		require.InDelta(t, (plus-minus)/(2*eps), gradIn.Data[i], 1e-6, "dx[%d]", i)
	}
}

func TestLinearUpdateAppliesAndClearsGradients(t *testing.T) {
	l := NewLinear(2, 1, exprand.NewSource(2))
	copy(l.W.Data, []float64{1, 1})
	x := tensor.NewWithData([]float64{2, 3})
	_, err := l.Forward(x)
	require.NoError(t, err)
	_, err = l.Backward(tensor.NewWithData([]float64{1}))
	require.NoError(t, err)

	l.Update(0.1)
	require.InDelta(t, 1-0.1*2, l.W.Data[0], 1e-12)
	require.InDelta(t, 1-0.1*3, l.W.Data[1], 1e-12)
	require.Zero(t, l.dW.Data[0])
	require.Zero(t, l.dB.Data[0])
}

func TestRandomArrayRange(t *testing.T) {
	data := randomArray(1000, 16, exprand.NewSource(5))
	for _, v := range data {
		require.Less(t, v, 0.25)
		require.Greater(t, v, -0.25)
	}
}
