package header

import "strings"

const maxFieldLen = 10

// Electrode is one line of the "Basic Channel Data" section of an
// eeph chunk.
type Electrode struct {
	Label     string
	IScale    float64
	RScale    float64
	Unit      string
	Reference string
	Status    string
	Type      string
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxFieldLen {
		r = r[:maxFieldLen]
	}
	return string(r)
}

// formatElectrode renders one "Basic Channel Data" line: four
// positional tokens followed by whichever tagged optional tokens are
// set, in REF/STAT/TYPE order, per spec.md §4.8.
func formatElectrode(e Electrode) string {
	fields := []string{
		truncate(e.Label),
		formatFloat(e.IScale),
		formatFloat(e.RScale),
		truncate(e.Unit),
	}
	if e.Reference != "" {
		fields = append(fields, "REF:"+truncate(e.Reference))
	}
	if e.Status != "" {
		fields = append(fields, "STAT:"+truncate(e.Status))
	}
	if e.Type != "" {
		fields = append(fields, "TYPE:"+truncate(e.Type))
	}
	return strings.Join(fields, " ")
}

// parseElectrode tokenizes one "Basic Channel Data" line: the first
// four whitespace-separated tokens are positional and required, any
// remaining tokens are optional tagged fields in arbitrary order.
func parseElectrode(line string) (Electrode, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 4 {
		return Electrode{}, errElectrodeShort
	}

	iscale, err := parseFloat(tokens[1])
	if err != nil {
		return Electrode{}, err
	}
	rscale, err := parseFloat(tokens[2])
	if err != nil {
		return Electrode{}, err
	}

	e := Electrode{
		Label:  tokens[0],
		IScale: iscale,
		RScale: rscale,
		Unit:   tokens[3],
	}
	if strings.HasPrefix(e.Label, "[") || strings.HasPrefix(e.Label, ";") {
		return Electrode{}, errElectrodeLabel
	}

	for _, tok := range tokens[4:] {
		switch {
		case strings.HasPrefix(tok, "REF:"):
			e.Reference = strings.TrimPrefix(tok, "REF:")
		case strings.HasPrefix(tok, "STAT:"):
			e.Status = strings.TrimPrefix(tok, "STAT:")
		case strings.HasPrefix(tok, "TYPE:"):
			e.Type = strings.TrimPrefix(tok, "TYPE:")
		}
	}
	return e, nil
}

type electrodeErr string

func (e electrodeErr) Error() string { return string(e) }

var (
	errElectrodeShort = electrodeErr("electrode line has fewer than 4 positional tokens")
	errElectrodeLabel = electrodeErr("electrode label starts with a reserved character")
)
