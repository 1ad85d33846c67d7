package event

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatinski/ctk-sub001/container"
)

func TestTriggerRoundTrip32(t *testing.T) {
	triggers := []Trigger{
		{Sample: 0, Code: [8]byte{'S', 'T', 'I', 'M'}},
		{Sample: 1 << 20, Code: [8]byte{0, 0, 0, 0, 0, 0, 0, 0}},
	}
	buf, err := EncodeTriggers(triggers, container.Width32)
	require.NoError(t, err)

	got, err := DecodeTriggers(buf, container.Width32)
	require.NoError(t, err)
	assert.Equal(t, triggers, got)
}

func TestTriggerRoundTripManyCodes(t *testing.T) {
	var triggers []Trigger
	for i := 0; i < 10000; i++ {
		var code [8]byte
		for j := range code {
			code[j] = byte((i + j) % 256)
		}
		triggers = append(triggers, Trigger{Sample: int64(i) * 37, Code: code})
	}
	buf, err := EncodeTriggers(triggers, container.Width64)
	require.NoError(t, err)
	got, err := DecodeTriggers(buf, container.Width64)
	require.NoError(t, err)
	assert.Equal(t, triggers, got)
}

func TestTriggerRejectsOutOfRangeFor32(t *testing.T) {
	triggers := []Trigger{{Sample: math.MaxInt32 + 1}}
	_, err := EncodeTriggers(triggers, container.Width32)
	assert.Error(t, err)
}

func TestEventFileRoundTrip(t *testing.T) {
	stamp := time.Date(2021, time.June, 15, 10, 0, 0, 0, time.UTC)
	ev := Events{
		Impedances: []EventImpedance{
			{Stamp: stamp, Values: []float32{10.5, 20.25, 5}},
		},
		Videos: []EventVideo{
			{
				Stamp: stamp, Duration: 12.5, TriggerCode: -7,
				ConditionLabel: "cond-A", Description: "clip one", VideoFile: "clip.mp4",
			},
		},
		Epochs: []EventEpoch{
			{Stamp: stamp, Duration: 1.0, Offset: -0.1, TriggerCode: 3, ConditionLabel: "epoch-1"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ev))

	got, err := Read(&buf)
	require.NoError(t, err)

	require.Len(t, got.Impedances, 1)
	assert.InDeltaSlice(t, []float64{10.5, 20.25, 5}, toFloat64s(got.Impedances[0].Values), 1e-4)
	assert.WithinDuration(t, stamp, got.Impedances[0].Stamp, 500*time.Nanosecond)

	require.Len(t, got.Videos, 1)
	assert.Equal(t, ev.Videos[0].ConditionLabel, got.Videos[0].ConditionLabel)
	assert.Equal(t, ev.Videos[0].Description, got.Videos[0].Description)
	assert.Equal(t, ev.Videos[0].VideoFile, got.Videos[0].VideoFile)
	assert.Equal(t, ev.Videos[0].TriggerCode, got.Videos[0].TriggerCode)

	require.Len(t, got.Epochs, 1)
	assert.Equal(t, ev.Epochs[0].ConditionLabel, got.Epochs[0].ConditionLabel)
	assert.Equal(t, ev.Epochs[0].Offset, got.Epochs[0].Offset)
}

func TestEventFileTolerantOfTrailingWhitespace(t *testing.T) {
	ev := Events{Epochs: []EventEpoch{{Duration: 1, ConditionLabel: "x"}}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ev))
	buf.WriteString("\r\n\r\n")

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Len(t, got.Epochs, 1)
}

func toFloat64s(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
