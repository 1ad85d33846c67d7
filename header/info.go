package header

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/slatinski/ctk-sub001/dcdate"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Info is the parsed content of an "info" chunk. Absent string fields
// mean "not specified"; SubjectSex and SubjectHandedness use a single
// space for "not specified" per spec.md §4.8.
type Info struct {
	StartDate          float64
	StartFraction      float64
	Hospital           string
	TestName           string
	TestSerial         string
	Physician          string
	Technician         string
	MachineMake        string
	MachineModel       string
	MachineSN          string
	SubjectName        string
	SubjectID          string
	SubjectAddress     string
	SubjectPhone       string
	SubjectSex         byte
	SubjectHandedness  byte
	SubjectDateOfBirth dcdate.Tm
	Comment            string
}

var infoStringFields = []struct {
	name string
	get  func(*Info) *string
}{
	{"Hospital", func(i *Info) *string { return &i.Hospital }},
	{"TestName", func(i *Info) *string { return &i.TestName }},
	{"TestSerial", func(i *Info) *string { return &i.TestSerial }},
	{"Physician", func(i *Info) *string { return &i.Physician }},
	{"Technician", func(i *Info) *string { return &i.Technician }},
	{"MachineMake", func(i *Info) *string { return &i.MachineMake }},
	{"MachineModel", func(i *Info) *string { return &i.MachineModel }},
	{"MachineSN", func(i *Info) *string { return &i.MachineSN }},
	{"SubjectName", func(i *Info) *string { return &i.SubjectName }},
	{"SubjectID", func(i *Info) *string { return &i.SubjectID }},
	{"SubjectAddress", func(i *Info) *string { return &i.SubjectAddress }},
	{"SubjectPhone", func(i *Info) *string { return &i.SubjectPhone }},
	{"Comment", func(i *Info) *string { return &i.Comment }},
}

// WriteInfo serializes info into the "info" chunk's ASCII body.
func WriteInfo(info Info) []byte {
	var buf bytes.Buffer
	writeSection(&buf, "File Version", "1.0")
	writeSection(&buf, "StartDate", formatFloat(info.StartDate))
	writeSection(&buf, "StartFraction", formatFloat(info.StartFraction))

	for _, f := range infoStringFields {
		writeSection(&buf, f.name, *f.get(&info))
	}

	writeSection(&buf, "SubjectSex", sexString(info.SubjectSex))
	writeSection(&buf, "SubjectHandedness", handednessString(info.SubjectHandedness))
	writeSection(&buf, "SubjectDateOfBirth", formatDOB(info.SubjectDateOfBirth))

	buf.WriteString("[Comment]\n")
	buf.WriteString(info.Comment)
	buf.WriteByte('\n')

	return buf.Bytes()
}

func sexString(b byte) string {
	if b == 'F' || b == 'M' {
		return string(b)
	}
	return " "
}

func handednessString(b byte) string {
	if b == 'L' || b == 'R' || b == 'M' {
		return string(b)
	}
	return " "
}

func formatDOB(t dcdate.Tm) string {
	fields := []int{t.Sec, t.Min, t.Hour, t.MDay, t.Mon, t.Year, t.WDay, t.YDay, t.IsDST}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, " ")
}

func parseDOB(s string) (dcdate.Tm, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 9 {
		return dcdate.Tm{}, ctkerr.Dataf(opHeader, errBadDOB)
	}
	vals := make([]int, 9)
	for i, tok := range tokens {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return dcdate.Tm{}, ctkerr.Dataf(opHeader, err)
		}
		vals[i] = v
	}
	return dcdate.Tm{
		Sec: vals[0], Min: vals[1], Hour: vals[2],
		MDay: vals[3], Mon: vals[4], Year: vals[5],
		WDay: vals[6], YDay: vals[7], IsDST: vals[8],
	}, nil
}

// ParseInfo parses an "info" chunk's ASCII body. When fileVersion is
// "0.0" (the file's eeph-reported format version, supplied by the
// caller) and data's first 16 bytes hold two little-endian IEEE-754
// doubles, they are taken as the legacy binary StartDate/StartFraction
// pair instead of parsing ASCII (spec.md §4.8 compatibility path).
func ParseInfo(data []byte, fileVersion string) (Info, error) {
	if fileVersion == "0.0" && len(data) >= 16 {
		return Info{
			StartDate:     math.Float64frombits(binary.LittleEndian.Uint64(data[0:8])),
			StartFraction: math.Float64frombits(binary.LittleEndian.Uint64(data[8:16])),
		}, nil
	}

	secs, _, err := sections(data)
	if err != nil {
		return Info{}, err
	}

	var info Info
	if v, ok := secs["StartDate"]; ok {
		if info.StartDate, err = parseFloat(v); err != nil {
			return Info{}, err
		}
	}
	if v, ok := secs["StartFraction"]; ok {
		if info.StartFraction, err = parseFloat(v); err != nil {
			return Info{}, err
		}
	}
	for _, f := range infoStringFields {
		*f.get(&info) = secs[f.name]
	}
	if v, ok := secs["SubjectSex"]; ok && len(v) > 0 {
		info.SubjectSex = v[0]
	} else {
		info.SubjectSex = ' '
	}
	if v, ok := secs["SubjectHandedness"]; ok && len(v) > 0 {
		info.SubjectHandedness = v[0]
	} else {
		info.SubjectHandedness = ' '
	}
	if v, ok := secs["SubjectDateOfBirth"]; ok {
		if info.SubjectDateOfBirth, err = parseDOB(v); err != nil {
			return Info{}, err
		}
	}
	return info, nil
}

type infoErr string

func (e infoErr) Error() string { return string(e) }

var errBadDOB = infoErr("SubjectDateOfBirth does not have 9 integer fields")
