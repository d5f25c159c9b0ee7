package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewShapeAndSize(t *testing.T) {
	x := New(3, 4)
	require.Equal(t, []int{3, 4}, x.Shape)
	require.Equal(t, 12, x.Size())
}

func TestAtSetRowMajor(t *testing.T) {
	x := New(2, 3)
	x.Set(7, 1, 2)
	require.Equal(t, 7.0, x.At(1, 2))
	require.Equal(t, 7.0, x.Data[1*3+2])
}

func TestCloneIsDeep(t *testing.T) {
	x := NewWithData([]float64{1, 2, 3})
	y := x.Clone()
	y.Data[0] = 9
	require.Equal(t, 1.0, x.Data[0])
}

func TestReshape(t *testing.T) {
	x := NewWithData([]float64{1, 2, 3, 4, 5, 6})
	y, err := x.Reshape(2, 3)
	require.NoError(t, err)
	require.Equal(t, 6.0, y.At(1, 2))

	_, err = x.Reshape(4, 2)
	require.Error(t, err)
}

func TestArgmax(t *testing.T) {
	x := NewWithData([]float64{0.1, 0.7, 0.2})
	require.Equal(t, 1, x.Argmax())
}
