package beatport

import (
	"errors"
	"regexp"

	"github.com/xeptore/beatportdl/beatport/types"
)

var (
	ErrUnsupportedLink = errors.New("unsupported beatport link")

	linkPattern = regexp.MustCompile(
		`https?://(www\.)?beatport\.com/(?:[a-z]{2}/)?(?P<type>track|release|artist|playlists|chart|label)/(?P<slug>.+)/(?P<id>\d+)`,
	)
)

// ParseLink extracts the media kind and id from a Beatport web URL, e.g.
// https://www.beatport.com/track/darkside/10844269.
func ParseLink(l string) (types.Link, error) {
	m := linkPattern.FindStringSubmatch(l)
	if nil == m {
		return types.Link{}, ErrUnsupportedLink //nolint:exhaustruct
	}

	var (
		id      = m[linkPattern.SubexpIndex("id")]
		kind    types.LinkKind
		isChart bool
	)
	switch k := m[linkPattern.SubexpIndex("type")]; k {
	case "track":
		kind = types.LinkKindTrack
	case "release":
		kind = types.LinkKindAlbum
	case "artist":
		kind = types.LinkKindArtist
	case "label":
		kind = types.LinkKindLabel
	case "playlists":
		kind = types.LinkKindPlaylist
	case "chart":
		kind = types.LinkKindPlaylist
		isChart = true
	default:
		panic("unexpected link media type: " + k)
	}

	return types.Link{Kind: kind, ID: id, IsChart: isChart}, nil
}
