package container

import (
	"bytes"
	"sort"

	"github.com/go-kit/log/level"

	"github.com/slatinski/ctk-sub001/internal/ctklog"
)

// brokenScanIDs are the identifiers the recovery scan looks for, in
// the order spec.md §4.6 lists them.
var brokenScanIDs = []ID{IDInfo, IDChan, IDData, IDEp, IDEeph, IDEvt}

// brokenHit is one identifier's first occurrence.
type brokenHit struct {
	id     ID
	offset int64
}

// BrokenScan recovers approximate chunk ranges for a reflib-compatible
// 32-bit container whose nested chunk table is damaged but whose
// payload bytes are intact. It scans the file for the six known
// identifiers at 2-byte alignment (every legitimate chunk start is
// even-offset, since RIFF/RF64 padding keeps every chunk even-length,
// so odd offsets can never hold a genuine chunk header) and guesses
// each chunk's range as the span from just after that identifier's
// 8-byte id+size-field header to the next identifier's offset, or EOF
// for the last one found. Falls back to a 1-byte-aligned scan, logged
// as degraded, only if the 2-byte scan finds nothing.
func BrokenScan(data []byte, logger ctklog.Logger) (*Index, error) {
	hits := scan(data, 2)
	if len(hits) == 0 {
		_ = level.Warn(logger).Log("msg", "2-byte chunk scan found nothing, falling back to 1-byte alignment", "degraded", true)
		hits = scan(data, 1)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	idx := &Index{Width: Width32, Embedded: map[ID]Range{}}
	for i, hit := range hits {
		start := hit.offset + 8 // skip the (assumed intact) id+size32 header
		end := int64(len(data))
		if i+1 < len(hits) {
			end = hits[i+1].offset
		}
		if end < start {
			end = start
		}
		rg := Range{Offset: start, Size: end - start}

		switch hit.id {
		case IDInfo:
			idx.Info = rg
		case IDChan:
			idx.Chan = rg
		case IDData:
			idx.Data = rg
		case IDEp:
			idx.Ep = rg
		case IDEeph:
			idx.Eeph = rg
		case IDEvt:
			idx.Evt = &rg
		}
	}
	return idx, nil
}

func scan(data []byte, step int) []brokenHit {
	seen := make(map[ID]bool, len(brokenScanIDs))
	var hits []brokenHit

	for pos := 0; pos+4 <= len(data) && len(seen) < len(brokenScanIDs); pos += step {
		window := data[pos : pos+4]
		for _, id := range brokenScanIDs {
			if seen[id] {
				continue
			}
			if bytes.Equal(window, id[:]) {
				seen[id] = true
				hits = append(hits, brokenHit{id: id, offset: int64(pos)})
				break
			}
		}
	}
	return hits
}
