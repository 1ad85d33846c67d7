package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/block"
)

func TestRoundtripNaturalOrder(t *testing.T) {
	h, l := 4, 8
	order := Natural(h)

	client := make([]int64, h*l)
	for s := 0; s < l; s++ {
		for c := 0; c < h; c++ {
			client[s*h+c] = int64(s*10 + c)
		}
	}

	enc, err := EncodeColumnMajor(client, order, l, 32, block.Extended)
	require.NoError(t, err)

	dec, err := DecodeColumnMajor(enc, order, l, 32, block.Extended)
	require.NoError(t, err)

	assert.Equal(t, client, dec)
}

func TestRoundtripPermutedOrder(t *testing.T) {
	h, l := 4, 6
	order := RowOrder{2, 0, 3, 1}
	require.NoError(t, order.Validate(h))

	client := make([]int64, h*l)
	for s := 0; s < l; s++ {
		for c := 0; c < h; c++ {
			client[s*h+c] = int64(s*100 + c)
		}
	}

	enc, err := EncodeColumnMajor(client, order, l, 32, block.Extended)
	require.NoError(t, err)

	dec, err := DecodeColumnMajor(enc, order, l, 32, block.Extended)
	require.NoError(t, err)

	assert.Equal(t, client, dec)
}

func TestRowOrderValidation(t *testing.T) {
	assert.NoError(t, RowOrder{0, 1, 2}.Validate(3))
	assert.Error(t, RowOrder{0, 0, 2}.Validate(3))
	assert.Error(t, RowOrder{0, 1}.Validate(3))
	assert.Error(t, RowOrder{0, 1, 5}.Validate(3))
}

func TestMaxEncodedSizeIsUpperBound(t *testing.T) {
	h, l := 4, 1024
	order := Natural(h)

	client := make([]int64, h*l)
	for i := range client {
		client[i] = int64(i % 7)
	}

	enc, err := EncodeColumnMajor(client, order, l, 32, block.Extended)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(enc), MaxEncodedSize(h, l, 32, block.Extended))
}
