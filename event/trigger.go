package event

import (
	"encoding/binary"
	"math"

	"github.com/slatinski/ctk-sub001/container"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opEvent = "event"

// Trigger is one container-embedded trigger: a sample index and an
// up-to-8-byte ASCII code, NUL-padded on the wire.
type Trigger struct {
	Sample int64
	Code   [8]byte
}

func triggerWidth(width container.SizeWidth) int {
	if width == container.Width64 {
		return 8
	}
	return 4
}

// EncodeTriggers serializes triggers as the "evt " chunk body: each
// record is <sample><code>, sample stored as a signed 32-bit value in
// a RIFF (Width32) container or an unsigned 64-bit value in RF64.
func EncodeTriggers(triggers []Trigger, width container.SizeWidth) ([]byte, error) {
	w := triggerWidth(width)
	out := make([]byte, 0, len(triggers)*(w+8))
	for _, t := range triggers {
		if width == container.Width32 {
			if t.Sample < math.MinInt32 || t.Sample > math.MaxInt32 {
				return nil, ctkerr.Dataf(opEvent, errTriggerRange)
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(int32(t.Sample)))
			out = append(out, buf[:]...)
		} else {
			if t.Sample < 0 {
				return nil, ctkerr.Dataf(opEvent, errTriggerRange)
			}
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(t.Sample))
			out = append(out, buf[:]...)
		}
		out = append(out, t.Code[:]...)
	}
	return out, nil
}

// DecodeTriggers parses an "evt " chunk body back into Trigger
// records.
func DecodeTriggers(data []byte, width container.SizeWidth) ([]Trigger, error) {
	w := triggerWidth(width)
	recLen := w + 8
	if len(data)%recLen != 0 {
		return nil, ctkerr.Dataf(opEvent, errTruncatedTrigger)
	}

	triggers := make([]Trigger, 0, len(data)/recLen)
	for off := 0; off < len(data); off += recLen {
		rec := data[off : off+recLen]
		var sample int64
		if width == container.Width32 {
			sample = int64(int32(binary.LittleEndian.Uint32(rec[:4])))
		} else {
			u := binary.LittleEndian.Uint64(rec[:8])
			if u > math.MaxInt64 {
				return nil, ctkerr.Dataf(opEvent, errTriggerRange)
			}
			sample = int64(u)
		}
		var t Trigger
		t.Sample = sample
		copy(t.Code[:], rec[w:])
		triggers = append(triggers, t)
	}
	return triggers, nil
}

var (
	errTriggerRange     = eventErr("trigger sample does not fit the container's sample width")
	errTruncatedTrigger = eventErr("evt chunk length is not a multiple of the trigger record size")
)
