// Package header implements the ASCII "eeph"/"info" chunk serializer
// (C8): a small `[Section]\nvalue\n` format, an electrode-line
// tokenizer, and the legacy binary-doubles compatibility path for
// "info" chunks written by older files.
package header

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

const opHeader = "header"

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 11, 64)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ctkerr.Dataf(opHeader, err)
	}
	if isNonFinite(f) {
		return 0, ctkerr.Dataf(opHeader, errNonFinite)
	}
	return f, nil
}

func isNonFinite(f float64) bool {
	return f != f || f > maxFinite || f < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// sections splits an eeph/info body into an ordered list of
// [Section]\nvalue\n blocks. "History" is special-cased: its value
// runs until a line that is exactly "EOH", since free text may itself
// contain lines that look like "[Section]".
func sections(data []byte) (map[string]string, []string, error) {
	out := map[string]string{}
	var order []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var current string
	var haveCurrent bool
	var buf []string

	flush := func() {
		if haveCurrent {
			out[current] = strings.Join(buf, "\n")
			order = append(order, current)
		}
		haveCurrent = false
		buf = nil
	}

	inHistory := false
	for scanner.Scan() {
		line := scanner.Text()
		if inHistory {
			if line == "EOH" {
				inHistory = false
				flush()
				continue
			}
			buf = append(buf, line)
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			current = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			haveCurrent = true
			buf = nil
			if current == "History" {
				inHistory = true
			}
			continue
		}
		if haveCurrent {
			buf = append(buf, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, ctkerr.Dataf(opHeader, err)
	}
	if inHistory {
		return nil, nil, ctkerr.Dataf(opHeader, errUnterminatedHistory)
	}
	flush()
	return out, order, nil
}

func writeSection(buf *bytes.Buffer, name, value string) {
	fmt.Fprintf(buf, "[%s]\n%s\n", name, value)
}

type asciiErr string

func (e asciiErr) Error() string { return string(e) }

var (
	errNonFinite           = asciiErr("value is not finite")
	errUnterminatedHistory = asciiErr("[History] section missing its EOH terminator")
)
