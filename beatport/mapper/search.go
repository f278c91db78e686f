package mapper

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/xeptore/beatportdl/beatport/catalog"
	"github.com/xeptore/beatportdl/beatport/types"
)

const searchCoverSize = 500

// SearchType is the catalog search type listing results of kind. Playlist
// searches return DJ charts.
func SearchType(kind types.LinkKind) string {
	switch kind {
	case types.LinkKindTrack:
		return "tracks"
	case types.LinkKindAlbum:
		return "releases"
	case types.LinkKindPlaylist:
		return "charts"
	case types.LinkKindArtist:
		return "artists"
	case types.LinkKindLabel:
		return "labels"
	}

	return ""
}

func SearchResults(kind types.LinkKind, items []catalog.SearchItem) []types.SearchResult {
	return lo.Map(items, func(i catalog.SearchItem, _ int) types.SearchResult {
		return searchResult(kind, i)
	})
}

func searchResult(kind types.LinkKind, i catalog.SearchItem) types.SearchResult {
	res := types.SearchResult{
		ID:         ID(i.ID),
		Kind:       kind,
		Name:       i.Name,
		Artists:    nil,
		Year:       0,
		Duration:   0,
		Additional: nil,
		CoverURL:   ArtworkURL(i.Image.Template(), searchCoverSize),
		Explicit:   i.Explicit,
		IsChart:    false,
	}

	switch kind {
	case types.LinkKindPlaylist:
		res.IsChart = true
		switch {
		case nil != i.Artist && i.Artist.Name != "":
			res.Artists = []string{i.Artist.Name}
		case nil != i.Person && i.Person.OwnerName != "":
			res.Artists = []string{i.Person.OwnerName}
		default:
			res.Artists = []string{"Beatport"}
		}
		res.Year = yearPrefix(lo.CoalesceOrEmpty(i.PublishDate, i.ChangeDate))
	case types.LinkKindTrack:
		res.Artists = names(i.Artists)
		res.Year = yearPrefix(i.PublishDate)
		res.Duration = int(i.LengthMS / 1000)
		if i.BPM != 0 {
			res.Additional = append(res.Additional, strconv.Itoa(i.BPM)+"BPM")
		}
		if res.Name != "" {
			res.Name = trackName(res.Name, i.MixName)
		}
	case types.LinkKindAlbum:
		res.Artists = names(i.Artists)
		res.Year = yearPrefix(i.PublishDate)
		if i.CatalogNumber != "" {
			res.Additional = append(res.Additional, "Cat: "+i.CatalogNumber)
		}
	case types.LinkKindArtist, types.LinkKindLabel:
		if i.Name != "" {
			res.Artists = []string{i.Name}
		}
		if genres := names(i.Genres); len(genres) > 0 {
			res.Additional = append(res.Additional, strings.Join(genres, ", "))
		}
	}

	if i.Exclusive {
		res.Additional = append(res.Additional, "Exclusive")
	}

	if len(res.Artists) == 0 {
		res.Artists = []string{unknownArtist}
	}

	return res
}

func yearPrefix(date string) int {
	if len(date) < 4 {
		return 0
	}

	y, err := strconv.Atoi(date[:4])
	if nil != err {
		return 0
	}

	return y
}
