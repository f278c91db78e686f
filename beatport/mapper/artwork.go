package mapper

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/mathutil"
)

// MaxCoverSize is the largest artwork edge the image service renders.
const MaxCoverSize = 1400

var resolutionPattern = regexp.MustCompile(`\d{3,4}x\d{3,4}`)

// ArtworkURL turns an image URI into a URL for a size×size rendition. Fixed
// resolutions embedded in the URI are replaced with the {w}x{h} template
// first.
func ArtworkURL(uri string, size int) string {
	if uri == "" {
		return ""
	}

	size = mathutil.Clamp(size, 1, MaxCoverSize)
	uri = resolutionPattern.ReplaceAllString(uri, "{w}x{h}")
	s := strconv.Itoa(size)

	return strings.NewReplacer("{w}", s, "{h}", s).Replace(uri)
}

func imageFileType(uri string) types.ImageFileType {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(uri), ".")) {
	case "png":
		return types.ImageFileTypePNG
	case "webp":
		return types.ImageFileTypeWEBP
	default:
		return types.ImageFileTypeJPG
	}
}
