package mapper

import (
	"github.com/xeptore/beatportdl/beatport/types"
)

const (
	FormatMedium   = "medium"
	FormatHigh     = "high"
	FormatLossless = "lossless"

	// SubscriptionPro is the subscription that unlocks high and lossless
	// downloads.
	SubscriptionPro = "bp_link_pro"
)

// QualityMap resolves a requested tier to the download format the account
// is entitled to.
type QualityMap map[types.Quality]string

func DefaultQualities() QualityMap {
	return QualityMap{
		types.QualityMinimum:  FormatMedium,
		types.QualityLow:      FormatMedium,
		types.QualityMedium:   FormatMedium,
		types.QualityHigh:     FormatMedium,
		types.QualityLossless: FormatMedium,
		types.QualityHiFi:     FormatMedium,
	}
}

func QualitiesFor(subscription string) QualityMap {
	q := DefaultQualities()
	if subscription == SubscriptionPro {
		q[types.QualityHigh] = FormatHigh
		q[types.QualityLossless] = FormatLossless
		q[types.QualityHiFi] = FormatLossless
	}

	return q
}

func (m QualityMap) Format(q types.Quality) string {
	if f, ok := m[q]; ok {
		return f
	}

	return FormatMedium
}

// Bitrate is in kbit/s.
func Bitrate(format string) int {
	switch format {
	case FormatLossless:
		return 1411
	case FormatHigh:
		return 256
	default:
		return 128
	}
}

func Codec(format string) types.Codec {
	if format == FormatLossless {
		return types.CodecFLAC
	}

	return types.CodecAAC
}
