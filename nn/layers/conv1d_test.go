package layers

import (
	"testing"

	"github.com/stretchr/testify/require"
	exprand "golang.org/x/exp/rand"

	"cipherprobe/tensor"
)

func TestConv1DOutputShape(t *testing.T) {
	c, err := NewConv1D(4, 3, 2, 2, exprand.NewSource(1))
	require.NoError(t, err)
	y, err := c.Forward(tensor.New(8, 4))
	require.NoError(t, err)
	require.Equal(t, []int{4, 3}, y.Shape)
}

func TestConv1DRejectsBadInput(t *testing.T) {
	c, err := NewConv1D(4, 3, 2, 2, exprand.NewSource(1))
	require.NoError(t, err)
	_, err = c.Forward(tensor.New(8, 5))
	require.Error(t, err)
	_, err = c.Forward(tensor.New(1, 4))
	require.Error(t, err)
}

func TestConv1DKnownValues(t *testing.T) {
	// One filter of width 2 over 1 channel: sliding dot product.
	c, err := NewConv1D(1, 1, 2, 1, exprand.NewSource(1))
	require.NoError(t, err)
	copy(c.W.Data, []float64{1, -1})
	c.B.Data[0] = 0.5

	x := tensor.New(4, 1)
	copy(x.Data, []float64{1, 3, 2, 2})
	y, err := c.Forward(x)
	require.NoError(t, err)
	require.Equal(t, []int{3, 1}, y.Shape)
	require.InDelta(t, 1-3+0.5, y.Data[0], 1e-12)
	require.InDelta(t, 3-2+0.5, y.Data[1], 1e-12)
	require.InDelta(t, 2-2+0.5, y.Data[2], 1e-12)
}

func TestConv1DGradientsNumerically(t *testing.T) {
	const eps = 1e-6
	c, err := NewConv1D(2, 2, 2, 2, exprand.NewSource(9))
	require.NoError(t, err)
	x := tensor.New(6, 2)
	for i := range x.Data {
		x.Data[i] = float64(i%5) - 2
	}
	g := tensor.New(3, 2)
	for i := range g.Data {
		g.Data[i] = float64(i)*0.3 - 0.5
	}

	lossAt := func() float64 {
		y, err := c.Forward(x)
		require.NoError(t, err)
		sum := 0.0
		for i, v := range y.Data {
			sum += g.Data[i] * v
		}
		return sum
	}

	_, err = c.Forward(x)
	require.NoError(t, err)
	gradIn, err := c.Backward(g)
	require.NoError(t, err)

	for i := range c.W.Data {
		orig := c.W.Data[i]
		c.W.Data[i] = orig + eps
		plus := lossAt()
		c.W.Data[i] = orig - eps
		minus := lossAt()
		c.W.Data[i] = orig
		require.InDelta(t, (plus-minus)/(2*eps), c.dW.Data[i], 1e-6, "dW[%d]", i)
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

func TestConv1DSetLength(t *testing.T) {
	c, err := NewConv1D(4, 2, 128, 128, exprand.NewSource(1))
	require.NoError(t, err)
	require.Equal(t, 1, c.SetLength(128))
	require.Equal(t, 1, c.SetLength(255))
	require.Equal(t, 2, c.SetLength(256))
	// Shorter than the kernel still yields one (partial) window downstream.
	require.Equal(t, 1, c.SetLength(50))
}
