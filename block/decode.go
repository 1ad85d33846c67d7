package block

import (
	"github.com/slatinski/ctk-sub001/bitio"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Decode reverses Encode: given the raw block bytes, the expected
// header format and the row length (L, the epoch length or the
// shorter final-epoch length), it returns the reconstructed row.
// prevRow is the previously decoded row of the same epoch, used only
// when the block's method is Chan.
func Decode(data []byte, rowLen int, format Format, prevRow []int64) ([]int64, error) {
	r := bitio.NewReader(data)
	return DecodeFrom(r, rowLen, format, prevRow)
}

// DecodeFrom reads one row's block off an existing bit stream,
// leaving the cursor positioned at the start of the next row's
// header, the counterpart to EncodeInto.
//
// A Copy block carries no n/nexc fields: after the s/m header bits,
// four padding bits fill out the header byte, and the row's L values
// follow packed verbatim at the full word width.
func DecodeFrom(r *bitio.Reader, rowLen int, format Format, prevRow []int64) ([]int64, error) {
	if rowLen < 1 {
		return nil, ctkerr.Dataf(opDecode, errShortRow)
	}

	sval, ok := r.Read(2)
	if !ok {
		return nil, ctkerr.Dataf(opDecode, errTruncated)
	}
	mval, ok := r.Read(2)
	if !ok {
		return nil, ctkerr.Dataf(opDecode, errTruncated)
	}
	method := Method(mval)
	if method >= methodCount {
		return nil, ctkerr.Dataf(opDecode, errBadMethod)
	}

	wordBits, fieldWidthN, err := wordBitsFromS(format, uint8(sval))
	if err != nil {
		return nil, err
	}

	if method == Copy {
		if _, ok := r.Read(4); !ok { // header padding
			return nil, ctkerr.Dataf(opDecode, errTruncated)
		}
		row := make([]int64, rowLen)
		for i := range row {
			bits, ok := r.Read(wordBits)
			if !ok {
				return nil, ctkerr.Dataf(opDecode, errTruncated)
			}
			row[i] = bitio.RestoreSign(bits, wordBits)
		}
		return row, nil
	}

	nField, ok := r.Read(fieldWidthN)
	if !ok {
		return nil, ctkerr.Dataf(opDecode, errTruncated)
	}
	nexcField, ok := r.Read(fieldWidthN)
	if !ok {
		return nil, ctkerr.Dataf(opDecode, errTruncated)
	}
	n := fieldDecode(nField, wordBits)
	nexc := fieldDecode(nexcField, wordBits)

	if err := validateFields(n, nexc, wordBits); err != nil {
		return nil, err
	}

	masterBits, ok := r.Read(wordBits)
	if !ok {
		return nil, ctkerr.Dataf(opDecode, errTruncated)
	}
	master := bitio.RestoreSign(masterBits, wordBits)

	res := make([]int64, rowLen-1)
	for i := range res {
		v, ok := readEntity(r, n, nexc)
		if !ok {
			return nil, ctkerr.Dataf(opDecode, errTruncated)
		}
		res[i] = v
	}

	return reconstruct(method, master, res, prevRow), nil
}

var (
	errTruncated = dataErr("block: truncated bit stream")
	errBadMethod = dataErr("block: invalid method field")
)

// validateFields rejects header fields that cannot have come from a
// well-formed encoder, per spec §4.3's validation rules.
func validateFields(n, nexc, wordBits uint8) error {
	if n < 2 {
		return ctkerr.Dataf(opDecode, errBadFields)
	}
	if nexc < n {
		return ctkerr.Dataf(opDecode, errBadFields)
	}
	if nexc > wordBits {
		return ctkerr.Dataf(opDecode, errBadFields)
	}
	return nil
}
