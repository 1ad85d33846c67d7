// Package dcdate converts between the CNT wire date representation
// (a fractional-days double, offset from 30 Dec 1899) and
// nanosecond-precise time.Time, and between a C-style calendar tm and
// time.Time.
package dcdate

import "time"

// epoch is the wire format's day zero: 1899-12-30T00:00:00Z.
var epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const secondsPerDay = 86400

// DcDate is (Date: whole days since epoch, Fraction: sub-day seconds,
// permitted to exceed 86400 - excess carries into the day count on
// conversion to a time.Time).
type DcDate struct {
	Date     float64
	Fraction float64
}

// ToTime converts d to a UTC time.Time.
func (d DcDate) ToTime() time.Time {
	days := int64(round(d.Date))
	t := epoch.AddDate(0, 0, int(days))
	return t.Add(durationFromSeconds(d.Fraction))
}

// FromTime converts t (read as UTC) to a DcDate.
func FromTime(t time.Time) DcDate {
	t = t.UTC()
	elapsed := t.Sub(epoch)
	days := int64(elapsed / (secondsPerDay * time.Second))
	dayStart := epoch.AddDate(0, 0, int(days))
	remainder := t.Sub(dayStart)
	return DcDate{
		Date:     float64(days),
		Fraction: remainder.Seconds(),
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func round(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

// Tm is a C-style broken-down calendar time: tm_year counts years
// since 1900, tm_mon is 0-based (January = 0).
type Tm struct {
	Sec, Min, Hour  int
	MDay, Mon, Year int
	WDay, YDay      int
	IsDST           int
}

// IsZero reports whether every field of t is zero, the wire
// representation of "unspecified" per spec.md §9's resolved ambiguity:
// an all-zero tm is treated as unspecified everywhere, never as
// 1900-01-01.
func (t Tm) IsZero() bool {
	return t == Tm{}
}

// TmToTime converts a calendar tm to a UTC time.Time using a
// proleptic Gregorian calendar (time.Date already implements one).
// The zero Tm converts to the zero time.Time; callers that must treat
// an all-zero Tm as "unspecified" should check Tm.IsZero first.
func TmToTime(t Tm) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year+1900, time.Month(t.Mon+1), t.MDay, t.Hour, t.Min, t.Sec, 0, time.UTC)
}

// TimeToTm converts t (read as UTC) to a calendar tm.
func TimeToTm(t time.Time) Tm {
	t = t.UTC()
	return Tm{
		Sec:   t.Second(),
		Min:   t.Minute(),
		Hour:  t.Hour(),
		MDay:  t.Day(),
		Mon:   int(t.Month()) - 1,
		Year:  t.Year() - 1900,
		WDay:  int(t.Weekday()),
		YDay:  t.YearDay() - 1,
		IsDST: 0,
	}
}
