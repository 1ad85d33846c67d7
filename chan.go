package ctk

import (
	"encoding/binary"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
	"github.com/slatinski/ctk-sub001/matrix"
)

// encodeRowOrder serializes the "chan" chunk: one little-endian
// int16 per storage row, holding the client (electrode) row it maps
// to.
func encodeRowOrder(order matrix.RowOrder) []byte {
	buf := make([]byte, len(order)*2)
	for i, v := range order {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func decodeRowOrder(data []byte) (matrix.RowOrder, error) {
	if len(data)%2 != 0 {
		return nil, ctkerr.Dataf(opFacade, errBadChanChunk)
	}
	order := make(matrix.RowOrder, len(data)/2)
	for i := range order {
		order[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return order, nil
}

var errBadChanChunk = facadeErr("chan chunk length is not a whole number of int16 entries")
