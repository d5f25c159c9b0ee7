package encode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadMaxLen(t *testing.T) {
	_, err := New(FlatScaled, 0)
	require.Error(t, err)
}

func TestFlatScaledShapeAndValues(t *testing.T) {
	e, err := New(FlatScaled, 8)
	require.NoError(t, err)
	x, n := e.Encode([]byte{0, 128, 255})
	require.Equal(t, []int{8}, x.Shape)
	require.Equal(t, 3, n)
	require.InDelta(t, -0.5, x.Data[0], 1e-12)
	require.InDelta(t, 0.0, x.Data[1], 1e-12)
	require.InDelta(t, 127.0/256, x.Data[2], 1e-12)
	// Padding positions stay zero.
	for i := 3; i < 8; i++ {
		require.Zero(t, x.Data[i])
	}
}

func TestFlatScaledTruncates(t *testing.T) {
	e, err := New(FlatScaled, 4)
	require.NoError(t, err)
	x, n := e.Encode(make([]byte, 100))
	require.Equal(t, 4, n)
	require.Equal(t, 4, x.Size())
}

func TestOneHotSequence(t *testing.T) {
	e, err := New(OneHotSequence, 5)
	require.NoError(t, err)
	x, n := e.Encode([]byte{7, 255})
	require.Equal(t, []int{5, 256}, x.Shape)
	require.Equal(t, 2, n)
	require.Equal(t, 1.0, x.At(0, 7))
	require.Equal(t, 1.0, x.At(1, 255))
	// Each encoded row sums to one, padding rows to zero.
	for row := 0; row < 5; row++ {
		sum := 0.0
		for col := 0; col < 256; col++ {
			sum += x.At(row, col)
		}
		if row < 2 {
			require.Equal(t, 1.0, sum, "row %d", row)
		} else {
			require.Zero(t, sum, "row %d", row)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	for _, policy := range []Policy{FlatScaled, OneHotSequence} {
		e, err := New(policy, 16)
		require.NoError(t, err)
		data := []byte("determinism check")
		a, na := e.Encode(data)
		b, nb := e.Encode(data)
		require.Equal(t, na, nb)
		require.Equal(t, a.Data, b.Data)
	}
}
