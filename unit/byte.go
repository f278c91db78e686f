package unit

import (
	"strconv"
)

const (
	Byte     = 1
	Kibibyte = 1024 * Byte
	Mebibyte = 1024 * Kibibyte
	Gibibyte = 1024 * Mebibyte
)

// Size is a byte count printed with binary prefixes.
type Size int64

func (s Size) String() string {
	switch {
	case s >= Gibibyte:
		return strconv.FormatFloat(float64(s)/Gibibyte, 'f', 2, 64) + " GiB"
	case s >= Mebibyte:
		return strconv.FormatFloat(float64(s)/Mebibyte, 'f', 2, 64) + " MiB"
	case s >= Kibibyte:
		return strconv.FormatFloat(float64(s)/Kibibyte, 'f', 2, 64) + " KiB"
	default:
		return strconv.FormatInt(int64(s), 10) + " B"
	}
}
