package event

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"time"
	"unicode/utf16"

	"github.com/slatinski/ctk-sub001/dcdate"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

type recordTag byte

const (
	tagImpedance recordTag = 1
	tagVideo     recordTag = 2
	tagEpoch     recordTag = 3
)

// EventImpedance records one impedance measurement sweep.
type EventImpedance struct {
	Stamp  time.Time
	Values []float32 // ohms, typically one per electrode
}

// EventVideo records one video-marker event.
type EventVideo struct {
	Stamp          time.Time
	Duration       float64
	TriggerCode    int32
	ConditionLabel string
	Description    string
	VideoFile      string
}

// EventEpoch records one epoch-boundary event.
type EventEpoch struct {
	Stamp          time.Time
	Duration       float64
	Offset         float64
	TriggerCode    int32
	ConditionLabel string
}

// Events is the parsed content of a .evt file.
type Events struct {
	Impedances []EventImpedance
	Videos     []EventVideo
	Epochs     []EventEpoch
}

func putStamp(dst []byte, t time.Time) []byte {
	d := dcdate.FromTime(t)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(d.Date))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(d.Fraction))
	return append(dst, buf[:]...)
}

func readStamp(r *bufio.Reader) (time.Time, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return time.Time{}, ctkerr.Dataf(opEvent, err)
	}
	d := dcdate.DcDate{
		Date:     math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
		Fraction: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
	}
	return d.ToTime(), nil
}

func putFloat64(dst []byte, f float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return append(dst, buf[:]...)
}

func readFloat64(r *bufio.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ctkerr.Dataf(opEvent, err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func putASCII(dst []byte, s string) []byte {
	dst = putUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readASCII(r *bufio.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ctkerr.Dataf(opEvent, err)
	}
	return string(buf), nil
}

func putUTF16(dst []byte, s string) []byte {
	units := utf16.Encode([]rune(s))
	body := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(body[i*2:], u)
	}
	dst = putUvarint(dst, uint64(len(body)))
	return append(dst, body...)
}

func readUTF16(r *bufio.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	if n%2 != 0 {
		return "", ctkerr.Dataf(opEvent, errOddUTF16Length)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ctkerr.Dataf(opEvent, err)
	}
	units := make([]uint16, n/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// Write serializes ev to w as a flat sequence of tagged records:
// every impedance, then every video, then every epoch event.
func Write(w io.Writer, ev Events) error {
	var buf []byte
	for _, e := range ev.Impedances {
		buf = append(buf, byte(tagImpedance))
		buf = putStamp(buf, e.Stamp)
		buf = putUvarint(buf, uint64(len(e.Values)))
		for _, v := range e.Values {
			var f [4]byte
			binary.LittleEndian.PutUint32(f[:], math.Float32bits(v))
			buf = append(buf, f[:]...)
		}
	}
	for _, e := range ev.Videos {
		buf = append(buf, byte(tagVideo))
		buf = putStamp(buf, e.Stamp)
		buf = putFloat64(buf, e.Duration)
		buf = putVarint(buf, int64(e.TriggerCode))
		buf = putUTF16(buf, e.ConditionLabel)
		buf = putASCII(buf, e.Description)
		buf = putUTF16(buf, e.VideoFile)
	}
	for _, e := range ev.Epochs {
		buf = append(buf, byte(tagEpoch))
		buf = putStamp(buf, e.Stamp)
		buf = putFloat64(buf, e.Duration)
		buf = putFloat64(buf, e.Offset)
		buf = putVarint(buf, int64(e.TriggerCode))
		buf = putUTF16(buf, e.ConditionLabel)
	}

	if _, err := w.Write(buf); err != nil {
		return ctkerr.Dataf(opEvent, err)
	}
	return nil
}

// Read parses a tagged-record stream back into Events. It is tolerant
// of trailing-whitespace differences between writer implementations,
// skipping any run of '\r'/'\n' bytes between records.
func Read(r io.Reader) (Events, error) {
	br := bufio.NewReader(r)
	var ev Events

	for {
		if err := skipTrailingWhitespace(br); err != nil {
			return Events{}, err
		}
		tagByte, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Events{}, ctkerr.Dataf(opEvent, err)
		}

		switch recordTag(tagByte) {
		case tagImpedance:
			e, err := readImpedance(br)
			if err != nil {
				return Events{}, err
			}
			ev.Impedances = append(ev.Impedances, e)
		case tagVideo:
			e, err := readVideo(br)
			if err != nil {
				return Events{}, err
			}
			ev.Videos = append(ev.Videos, e)
		case tagEpoch:
			e, err := readEpoch(br)
			if err != nil {
				return Events{}, err
			}
			ev.Epochs = append(ev.Epochs, e)
		default:
			return Events{}, ctkerr.Dataf(opEvent, errUnknownTag)
		}
	}
	return ev, nil
}

func skipTrailingWhitespace(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ctkerr.Dataf(opEvent, err)
		}
		if b[0] != '\r' && b[0] != '\n' {
			return nil
		}
		br.ReadByte()
	}
}

func readImpedance(r *bufio.Reader) (EventImpedance, error) {
	stamp, err := readStamp(r)
	if err != nil {
		return EventImpedance{}, err
	}
	count, err := readUvarint(r)
	if err != nil {
		return EventImpedance{}, err
	}
	values := make([]float32, count)
	for i := range values {
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return EventImpedance{}, ctkerr.Dataf(opEvent, err)
		}
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}
	return EventImpedance{Stamp: stamp, Values: values}, nil
}

func readVideo(r *bufio.Reader) (EventVideo, error) {
	stamp, err := readStamp(r)
	if err != nil {
		return EventVideo{}, err
	}
	duration, err := readFloat64(r)
	if err != nil {
		return EventVideo{}, err
	}
	code, err := readVarint(r)
	if err != nil {
		return EventVideo{}, err
	}
	cond, err := readUTF16(r)
	if err != nil {
		return EventVideo{}, err
	}
	desc, err := readASCII(r)
	if err != nil {
		return EventVideo{}, err
	}
	video, err := readUTF16(r)
	if err != nil {
		return EventVideo{}, err
	}
	return EventVideo{
		Stamp: stamp, Duration: duration, TriggerCode: int32(code),
		ConditionLabel: cond, Description: desc, VideoFile: video,
	}, nil
}

func readEpoch(r *bufio.Reader) (EventEpoch, error) {
	stamp, err := readStamp(r)
	if err != nil {
		return EventEpoch{}, err
	}
	duration, err := readFloat64(r)
	if err != nil {
		return EventEpoch{}, err
	}
	offset, err := readFloat64(r)
	if err != nil {
		return EventEpoch{}, err
	}
	code, err := readVarint(r)
	if err != nil {
		return EventEpoch{}, err
	}
	cond, err := readUTF16(r)
	if err != nil {
		return EventEpoch{}, err
	}
	return EventEpoch{
		Stamp: stamp, Duration: duration, Offset: offset,
		TriggerCode: int32(code), ConditionLabel: cond,
	}, nil
}

// WriteFile serializes ev to path, truncating any existing file.
func WriteFile(path string, ev Events) error {
	f, err := os.Create(path)
	if err != nil {
		return ctkerr.Dataf(opEvent, err)
	}
	defer f.Close()
	return Write(f, ev)
}

// ReadFile parses the .evt file at path.
func ReadFile(path string) (Events, error) {
	f, err := os.Open(path)
	if err != nil {
		return Events{}, ctkerr.Dataf(opEvent, err)
	}
	defer f.Close()
	return Read(f)
}

var (
	errUnknownTag     = eventErr("unknown event record tag")
	errOddUTF16Length = eventErr("UTF-16 string byte length is not even")
)
