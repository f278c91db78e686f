package types

import (
	"fmt"
	"strings"
)

type Quality int

const (
	QualityMinimum Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityLossless
	QualityHiFi
)

var qualityNames = [...]string{"minimum", "low", "medium", "high", "lossless", "hifi"}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("quality(%d)", int(q))
	}

	return qualityNames[q]
}

func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if strings.EqualFold(name, s) {
			return Quality(i), nil
		}
	}

	return 0, fmt.Errorf("unknown quality %q", s)
}

type Codec string

const (
	CodecAAC  Codec = "aac"
	CodecFLAC Codec = "flac"
)

// Extension is the file extension, without dot, files of this codec are
// stored with.
func (c Codec) Extension() string {
	switch c {
	case CodecFLAC:
		return "flac"
	default:
		return "m4a"
	}
}
