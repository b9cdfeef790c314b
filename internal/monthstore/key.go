package monthstore

import (
	"fmt"
	"time"
)

// Key identifies one statement month.
type Key struct {
	Year  int
	Month time.Month
}

// NewKey validates a year and a 1-based month.
func NewKey(year, month int) (Key, error) {
	k := Key{Year: year, Month: time.Month(month)}
	if !k.Valid() {
		return Key{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidMonth, year, month)
	}
	return k, nil
}

// Valid reports whether the month is in 1..12 and the year is positive.
func (k Key) Valid() bool {
	return k.Year > 0 && k.Month >= time.January && k.Month <= time.December
}

// Before orders keys chronologically.
func (k Key) Before(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}
