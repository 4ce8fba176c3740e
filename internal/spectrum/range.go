package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// Range names a frequency window that a grid can listen to.
type Range int

const (
	Full Range = iota
	Low
	Mid
	High
)

var rangeNames = [...]string{"full", "low", "mid", "high"}

func (r Range) String() string {
	if r < 0 || int(r) >= len(rangeNames) {
		return fmt.Sprintf("Range(%d)", int(r))
	}
	return rangeNames[r]
}

// Next cycles through the ranges in declaration order.
func (r Range) Next() Range {
	return (r + 1) % Range(len(rangeNames))
}

// ParseRange converts a range name into a Range.
func ParseRange(s string) (Range, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Full, nil
	}
	for i, n := range rangeNames {
		if n == name {
			return Range(i), nil
		}
	}
	return Full, fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Band is a frequency window in Hz. HighHz may be +Inf to mean Nyquist.
type Band struct {
	LowHz  float64
	HighHz float64
}

// DefaultBands returns the Hz windows used for the named ranges.
func DefaultBands() map[Range]Band {
	return map[Range]Band{
		Low:  {LowHz: 20, HighHz: 250},
		Mid:  {LowHz: 250, HighHz: 4000},
		High: {LowHz: 4000, HighHz: math.Inf(1)},
	}
}

// binWindow maps a band onto [start, end) bin indices of a spectrum with
// binCount bins covering 0..nyquist.
func binWindow(b Band, nyquist float64, binCount int) (int, int) {
	if binCount <= 0 || nyquist <= 0 {
		return 0, 0
	}
	lo := math.Max(0, b.LowHz)
	hi := math.Min(nyquist, b.HighHz)
	start := int(math.Floor(lo / nyquist * float64(binCount)))
	end := int(math.Floor(hi / nyquist * float64(binCount)))
	if start > binCount {
		start = binCount
	}
	if end > binCount {
		end = binCount
	}
	if end < start {
		end = start
	}
	return start, end
}
