package header

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Header is the parsed content of an "eeph" chunk.
type Header struct {
	VersionMajor int
	VersionMinor int
	SamplingRate float64
	Samples      int64
	Channels     int
	Electrodes   []Electrode
	History      string
}

// WriteEEPH serializes h into the "eeph" chunk's ASCII body.
func WriteEEPH(h Header) ([]byte, error) {
	if h.SamplingRate != h.SamplingRate || h.SamplingRate <= 0 {
		return nil, ctkerr.Bugf(opHeader, errBadSamplingRate)
	}
	if len(h.Electrodes) != h.Channels {
		return nil, ctkerr.Bugf(opHeader, errChannelMismatch)
	}

	var buf bytes.Buffer
	writeSection(&buf, "File Version", strconv.Itoa(h.VersionMajor)+"."+strconv.Itoa(h.VersionMinor))
	writeSection(&buf, "Sampling Rate", formatFloat(h.SamplingRate))
	writeSection(&buf, "Samples", strconv.FormatInt(h.Samples, 10))
	writeSection(&buf, "Channels", strconv.Itoa(h.Channels))

	lines := make([]string, len(h.Electrodes))
	for i, e := range h.Electrodes {
		lines[i] = formatElectrode(e)
	}
	writeSection(&buf, "Basic Channel Data", strings.Join(lines, "\n"))

	buf.WriteString("[History]\n")
	if h.History != "" {
		buf.WriteString(h.History)
		buf.WriteByte('\n')
	}
	buf.WriteString("EOH\n")

	return buf.Bytes(), nil
}

// ParseEEPH parses an "eeph" chunk's ASCII body.
func ParseEEPH(data []byte) (Header, error) {
	secs, _, err := sections(data)
	if err != nil {
		return Header{}, err
	}

	version, ok := secs["File Version"]
	if !ok {
		return Header{}, ctkerr.Dataf(opHeader, errMissingSection("File Version"))
	}
	major, minor, err := parseVersion(version)
	if err != nil {
		return Header{}, err
	}

	rateStr, ok := secs["Sampling Rate"]
	if !ok {
		return Header{}, ctkerr.Dataf(opHeader, errMissingSection("Sampling Rate"))
	}
	rate, err := parseFloat(rateStr)
	if err != nil {
		return Header{}, err
	}
	if rate <= 0 {
		return Header{}, ctkerr.Dataf(opHeader, errBadSamplingRate)
	}

	samplesStr, ok := secs["Samples"]
	if !ok {
		return Header{}, ctkerr.Dataf(opHeader, errMissingSection("Samples"))
	}
	samples, err := strconv.ParseInt(samplesStr, 10, 64)
	if err != nil {
		return Header{}, ctkerr.Dataf(opHeader, err)
	}

	channelsStr, ok := secs["Channels"]
	if !ok {
		return Header{}, ctkerr.Dataf(opHeader, errMissingSection("Channels"))
	}
	channels, err := strconv.Atoi(channelsStr)
	if err != nil {
		return Header{}, ctkerr.Dataf(opHeader, err)
	}

	var electrodes []Electrode
	if body, ok := secs["Basic Channel Data"]; ok && body != "" {
		for _, line := range strings.Split(body, "\n") {
			if line == "" {
				continue
			}
			e, err := parseElectrode(line)
			if err != nil {
				return Header{}, err
			}
			electrodes = append(electrodes, e)
		}
	}
	if len(electrodes) != channels {
		return Header{}, ctkerr.Dataf(opHeader, errChannelMismatch)
	}

	return Header{
		VersionMajor: major,
		VersionMinor: minor,
		SamplingRate: rate,
		Samples:      samples,
		Channels:     channels,
		Electrodes:   electrodes,
		History:      secs["History"],
	}, nil
}

func parseVersion(s string) (int, int, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return 0, 0, ctkerr.Dataf(opHeader, errBadVersion)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ctkerr.Dataf(opHeader, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ctkerr.Dataf(opHeader, err)
	}
	return major, minor, nil
}

type eephErr string

func (e eephErr) Error() string { return string(e) }

func errMissingSection(name string) error { return eephErr("eeph chunk missing [" + name + "] section") }

var (
	errBadSamplingRate = eephErr("sampling rate is not finite and positive")
	errChannelMismatch = eephErr("channel count does not match the number of electrode lines")
	errBadVersion       = eephErr("file version is not of the form major.minor")
)
