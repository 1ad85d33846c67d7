package block

import "github.com/slatinski/ctk-sub001/bitio"

// planResiduals picks nexc (bits needed for the largest residual,
// clamped to [2, wordBits]) and the n in [2, nexc] minimising the
// total packed size, the histogram-based selection of spec §4.3.
func planResiduals(res []int64, wordBits uint8) (n, nexc uint8, costBits uint64) {
	nexc = 2
	for _, v := range res {
		if need := signedBitsNeeded(v); need > nexc {
			nexc = need
		}
	}
	if nexc > wordBits {
		nexc = wordBits
	}

	bestN := nexc
	bestCost := costForN(res, nexc, nexc)
	for candidate := uint8(2); candidate < nexc; candidate++ {
		cost := costForN(res, candidate, nexc)
		if cost < bestCost {
			bestCost = cost
			bestN = candidate
		}
	}
	return bestN, nexc, bestCost
}

func costForN(res []int64, n, nexc uint8) uint64 {
	var total uint64
	for _, v := range res {
		total += entityCostBits(v, n, nexc)
	}
	return total
}

// fieldValue encodes n (or nexc) as the wire field value: the field
// holds n directly, except word-width n is encoded as 0.
func fieldValue(n, wordBits uint8) uint64 {
	if n == wordBits {
		return 0
	}
	return uint64(n)
}

func fieldDecode(v uint64, wordBits uint8) uint8 {
	if v == 0 {
		return wordBits
	}
	return uint8(v)
}

// Plan is the chosen method/width/format and its exact encoded size,
// computed by Select for one row.
type Plan struct {
	Method   Method
	Format   Format
	WordBits uint8
	N, Nexc  uint8
	master   int64
	res      []int64
	costBits uint64
}

// Select chooses the method minimising the encoded size of row, given
// the previous row (for Chan; pass nil for the first row of an
// epoch), the word width and the header format. Copy is costed against
// its own uncompressed layout (a 1-byte header plus L raw words), not
// against the n/nexc residual search the other three methods use.
func Select(row []int64, prevRow []int64, wordBits uint8, format Format) Plan {
	_, fieldWidthN, err := sFields(format, wordBits)
	if err != nil {
		fieldWidthN = 6
	}
	compressedHeaderBits := uint64(4 + 2*int(fieldWidthN))

	var best Plan
	best.costBits = ^uint64(0)

	methods := []Method{Copy, Time, Time2, Chan}
	for _, m := range methods {
		master, res := residuals(m, row, prevRow)

		var n, nexc uint8
		var cost uint64
		if m == Copy {
			n, nexc = wordBits, wordBits
			cost = 8 + uint64(len(row))*uint64(wordBits)
		} else {
			n, nexc, cost = planResiduals(res, wordBits)
			cost += compressedHeaderBits + uint64(wordBits) // header + master
		}

		if cost < best.costBits {
			best = Plan{
				Method: m, Format: format, WordBits: wordBits,
				N: n, Nexc: nexc, master: master, res: res, costBits: cost,
			}
		}
	}
	return best
}

// Encode packs the plan's row into a self-delimited byte block.
func Encode(p Plan) ([]byte, error) {
	w := bitio.NewWriter()
	if err := EncodeInto(w, p); err != nil {
		return nil, err
	}
	w.Align()
	return w.Bytes(), nil
}

// EncodeInto writes the plan's block onto an existing bit stream
// without aligning to a byte boundary afterwards, so that a whole
// epoch's rows can be packed back-to-back with no wasted padding
// between rows (the matrix codec, C4, is the caller that does this).
//
// Copy gets its own uncompressed layout: a single header byte
// `s s m m 0 0 0 0` with no n/nexc fields, followed by every one of
// the row's L values (the would-be master included) packed verbatim
// at the full word width. The other three methods use the compressed
// layout: s/m/n/nexc header, a fixed-width master, then L-1 residuals.
func EncodeInto(w *bitio.Writer, p Plan) error {
	sval, fieldWidthN, err := sFields(p.Format, p.WordBits)
	if err != nil {
		return err
	}

	if p.Method == Copy {
		w.Write(2, uint64(sval))
		w.Write(2, uint64(p.Method))
		w.Write(4, 0) // pad s+m out to a full header byte, no n/nexc fields

		w.Write(p.WordBits, lowBits(p.master, p.WordBits))
		for _, v := range p.res {
			w.Write(p.WordBits, lowBits(v, p.WordBits))
		}
		return nil
	}

	w.Write(2, uint64(sval))
	w.Write(2, uint64(p.Method))
	w.Write(fieldWidthN, fieldValue(p.N, p.WordBits))
	w.Write(fieldWidthN, fieldValue(p.Nexc, p.WordBits))
	w.Write(p.WordBits, lowBits(p.master, p.WordBits))

	for _, v := range p.res {
		writeEntity(w, v, p.N, p.Nexc)
	}
	return nil
}

// EncodeRow is the convenience path: select the best method and
// encode in one call.
func EncodeRow(row []int64, prevRow []int64, wordBits uint8, format Format) ([]byte, Method, error) {
	p := Select(row, prevRow, wordBits, format)
	b, err := Encode(p)
	return b, p.Method, err
}

// MaxEncodedSize is the worst-case byte size of an encoded row: the
// header plus L words stored verbatim, rounded up to a byte.
func MaxEncodedSize(rowLen int, wordBits uint8, format Format) int {
	_, fieldWidthN, err := sFields(format, wordBits)
	if err != nil {
		fieldWidthN = 6
	}
	headerBits := 4 + 2*int(fieldWidthN) // s(2)+m(2)+n+nexc
	bits := headerBits + rowLen*int(wordBits)
	return (bits + 7) / 8
}
