package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/bitio"
)

func fitsWord(row []int64, wordBits uint8) bool {
	for _, v := range row {
		if !fitsSigned(v, wordBits) {
			return false
		}
	}
	return true
}

func TestRoundtripAllMethodsAndWidths(t *testing.T) {
	widths := []uint8{8, 16, 32, 64}
	formats := []Format{Reflib, Extended}

	rows := map[string][]int64{
		"copy-ish":  {100, -50, 999, -999, 0, 1, 2},
		"time-ish":  {0, 1, 2, 3, 4, 5, 6},
		"time2-ish": {0, 0, 1, 4, 9, 16, 25},
		"wide":      {1 << 20, -(1 << 20), 1 << 10, 0},
	}

	for _, format := range formats {
		for _, w := range widths {
			if format == Reflib && w != 16 && w != 32 {
				continue
			}
			for name, row := range rows {
				if !fitsWord(row, w) {
					continue
				}
				prev := make([]int64, len(row))
				for i := range prev {
					prev[i] = row[i] / 2
				}

				p := Select(row, prev, w, format)
				enc, err := Encode(p)
				require.NoError(t, err, "%s/%d/%v", name, w, format)

				dec, err := Decode(enc, len(row), format, prev)
				require.NoError(t, err, "%s/%d/%v", name, w, format)
				assert.Equal(t, row, dec, "%s/%d/%v method=%d", name, w, format, p.Method)
			}
		}
	}
}

func TestTimePredictionCompressesMonotonicRamp(t *testing.T) {
	row := make([]int64, 1024)
	for i := range row {
		row[i] = int64(i)
	}

	p := Select(row, nil, 32, Extended)
	assert.Equal(t, Time, p.Method)

	enc, err := Encode(p)
	require.NoError(t, err)

	uncompressed := 4 * len(row)
	assert.Less(t, len(enc), uncompressed)
}

func TestChanPredictionUsesPreviousRow(t *testing.T) {
	prev := []int64{10, 20, 30, 40}
	row := []int64{10, 21, 29, 41}

	p := Select(row, prev, 16, Reflib)
	enc, err := Encode(p)
	require.NoError(t, err)

	dec, err := Decode(enc, len(row), Reflib, prev)
	require.NoError(t, err)
	assert.Equal(t, row, dec)
}

func TestDecodeRejectsBadFields(t *testing.T) {
	assert.Error(t, validateFields(1, 4, 32))
	assert.Error(t, validateFields(4, 2, 32))
	assert.Error(t, validateFields(4, 40, 32))
	assert.NoError(t, validateFields(4, 32, 32))
}

func TestMultiRowSharedBitStream(t *testing.T) {
	// matrix.go packs rows back-to-back on one bit stream with no
	// per-row byte padding; verify that still roundtrips.
	rows := [][]int64{
		{1, 2, 3, 4},
		{5, 4, 3, 2},
		{-1, -2, -3, -4},
	}

	wr := bitio.NewWriter()
	var prev []int64
	for _, row := range rows {
		p := Select(row, prev, 32, Extended)
		require.NoError(t, EncodeInto(wr, p))
		prev = row
	}
	wr.Align()

	rd := bitio.NewReader(wr.Bytes())
	prev = nil
	for _, want := range rows {
		got, err := DecodeFrom(rd, len(want), Extended, prev)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		prev = want
	}
}

func TestHistogramMatchesExhaustiveSearch(t *testing.T) {
	res := []int64{0, 1, -1, 2, -2, 100, -100, 3, 3, 3}
	n, nexc, cost := planResiduals(res, 32)

	var bestN uint8
	bestCost := ^uint64(0)
	for candidate := uint8(2); candidate <= nexc; candidate++ {
		c := costForN(res, candidate, nexc)
		if c < bestCost {
			bestCost = c
			bestN = candidate
		}
	}
	assert.Equal(t, bestN, n)
	assert.Equal(t, bestCost, cost)
}
