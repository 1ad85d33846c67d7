package guard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

func TestAddOverflow(t *testing.T) {
	_, err := Add(math.MaxInt64, 1, Ok)
	require.Error(t, err)
	assert.True(t, ctkerr.Is(err, ctkerr.Data))

	v, err := Add(1, 2, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestAddGuardedPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Add(math.MaxInt64, 1, Guarded)
	})
}

func TestSubUnderflow(t *testing.T) {
	_, err := Sub(math.MinInt64, 1, Ok)
	require.Error(t, err)
}

func TestMulOverflow(t *testing.T) {
	cases := []struct {
		a, b int64
	}{
		{math.MaxInt64, 2},
		{math.MinInt64, 2},
		{math.MaxInt64, -2},
		{math.MinInt64, -1},
	}
	for _, c := range cases {
		_, err := Mul(c.a, c.b, Ok)
		assert.Error(t, err, "a=%d b=%d", c.a, c.b)
	}
}

func TestDivByZero(t *testing.T) {
	_, err := Div(10, 0, Ok)
	require.Error(t, err)
}

func TestDivMinIntByMinusOne(t *testing.T) {
	_, err := Div(math.MinInt64, -1, Ok)
	require.Error(t, err)
}

func TestArithmeticNeverTruncatesSilentlyUnderOk(t *testing.T) {
	// property 1: for representable (a,b) the "ok" guard returns the
	// true result; for non-representable it returns an error, never a
	// truncated value.
	pairs := [][2]int64{{5, 7}, {-3, 9}, {1 << 40, 1 << 40}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		v, err := Add(a, b, Ok)
		if err == nil {
			assert.Equal(t, a+b, v)
		}
	}
}

func TestAsBitsAsBytesRoundtrip(t *testing.T) {
	b, err := AsBits(10, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(80), b)

	back, err := AsBytes(b, Floor, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(10), back)
}

func TestAsBytesCeil(t *testing.T) {
	v, err := AsBytes(9, Ceil, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = AsBytes(9, Floor, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestCast(t *testing.T) {
	_, err := Cast(300, 0, 255, Ok)
	assert.Error(t, err)

	v, err := Cast(200, 0, 255, Ok)
	require.NoError(t, err)
	assert.Equal(t, int64(200), v)
}
