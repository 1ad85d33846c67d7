package guard

// Strong-typed counters. Each wraps an int64 tagged by purpose so
// that, for instance, a SampleCount cannot be added to a ByteCount
// without an explicit conversion. Arithmetic between two values of
// the same type always goes through the package-level Add/Sub/Mul/Div
// with an explicit Policy at the call site.

type BitCount int64
type ByteCount int64
type SensorCount int64
type MeasurementCount int64
type EpochCount int64
type SegmentCount int64

// Bits converts a byte count to a bit count.
func (b ByteCount) Bits(p Policy) (BitCount, error) {
	v, err := AsBits(int64(b), p)
	return BitCount(v), err
}

// Bytes converts a bit count to a byte count, rounding per r.
func (b BitCount) Bytes(r Rounding, p Policy) (ByteCount, error) {
	v, err := AsBytes(int64(b), r, p)
	return ByteCount(v), err
}

// Add adds two measurement counts under policy p.
func (m MeasurementCount) Add(n MeasurementCount, p Policy) (MeasurementCount, error) {
	v, err := Add(int64(m), int64(n), p)
	return MeasurementCount(v), err
}

// Sub subtracts n from m under policy p.
func (m MeasurementCount) Sub(n MeasurementCount, p Policy) (MeasurementCount, error) {
	v, err := Sub(int64(m), int64(n), p)
	return MeasurementCount(v), err
}

// Mul multiplies a sensor count by a measurement count to produce a
// total sample count, a deliberately named widening helper rather
// than a same-type operation: multiplying H by L is meaningful, but
// H and L are not interchangeable units.
func (h SensorCount) Mul(l MeasurementCount, p Policy) (MeasurementCount, error) {
	v, err := Mul(int64(h), int64(l), p)
	return MeasurementCount(v), err
}

// EpochOf returns the epoch index containing measurement index m,
// and the offset of m within that epoch, given the epoch length.
func EpochOf(m MeasurementCount, epochLength MeasurementCount, p Policy) (EpochCount, MeasurementCount, error) {
	q, err := Div(int64(m), int64(epochLength), p)
	if err != nil {
		return 0, 0, err
	}
	r, err := Div(int64(m)%int64(epochLength), 1, p)
	if err != nil {
		return 0, 0, err
	}
	return EpochCount(q), MeasurementCount(r), nil
}
