package block

// residuals computes, for the given method, the master value (row[0])
// and the L-1 residuals for row[1:], given the optional previous row
// (used only by Chan; nil/empty for the first row of an epoch).
func residuals(method Method, row []int64, prevRow []int64) (master int64, res []int64) {
	if len(row) == 0 {
		return 0, nil
	}
	master = row[0]
	if len(row) == 1 {
		return master, nil
	}

	res = make([]int64, len(row)-1)
	switch method {
	case Copy:
		copy(res, row[1:])
	case Time:
		for i := 1; i < len(row); i++ {
			res[i-1] = row[i] - row[i-1]
		}
	case Time2:
		res[0] = row[1] - row[0]
		for i := 2; i < len(row); i++ {
			res[i-1] = row[i] - 2*row[i-1] + row[i-2]
		}
	case Chan:
		for i := 1; i < len(row); i++ {
			var prev int64
			if i < len(prevRow) {
				prev = prevRow[i]
			}
			res[i-1] = row[i] - prev
		}
	}
	return master, res
}

// reconstruct reverses residuals for the three compressed (non-Copy)
// methods: given master, the residuals and (for Chan) the previous
// row, it rebuilds the original row. Copy never reaches here - its
// uncompressed layout is decoded directly in DecodeFrom.
func reconstruct(method Method, master int64, res []int64, prevRow []int64) []int64 {
	row := make([]int64, len(res)+1)
	row[0] = master
	switch method {
	case Time:
		for i := 1; i < len(row); i++ {
			row[i] = row[i-1] + res[i-1]
		}
	case Time2:
		if len(res) > 0 {
			row[1] = row[0] + res[0]
		}
		for i := 2; i < len(row); i++ {
			row[i] = res[i-1] + 2*row[i-1] - row[i-2]
		}
	case Chan:
		for i := 1; i < len(row); i++ {
			var prev int64
			if i < len(prevRow) {
				prev = prevRow[i]
			}
			row[i] = res[i-1] + prev
		}
	}
	return row
}
