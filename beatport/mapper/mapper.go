// Package mapper converts catalog records into the canonical media model.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/beatportdl/beatport/catalog"
	"github.com/xeptore/beatportdl/beatport/types"
)

const unknownArtist = "Unknown Artist"

func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ReleaseYear accepts RFC 3339 timestamps and plain dates. Zero means the
// year could not be determined.
func ReleaseYear(date string) int {
	if date == "" {
		return 0
	}

	if t, err := time.Parse(time.RFC3339, date); nil == err {
		return t.Year()
	}

	day, _, _ := strings.Cut(date, "T")
	if t, err := time.Parse(time.DateOnly, day); nil == err {
		return t.Year()
	}

	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); nil == err {
			return y
		}
	}

	return 0
}

func names(ns []catalog.Named) []string {
	return lo.FilterMap(ns, func(n catalog.Named, _ int) (string, bool) { return n.Name, n.Name != "" })
}

func trackName(name, mix string) string {
	if mix == "" {
		return name
	}

	return name + " (" + mix + ")"
}

func copyright(year int, label string) string {
	parts := []string{"©"}
	if year != 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	if label != "" {
		parts = append(parts, label)
	}

	return strings.Join(parts, " ")
}

// Track maps a track record. release may be nil when it could not be
// fetched.
func Track(t *catalog.Track, release *catalog.Release, format string, coverSize int) *types.TrackInfo {
	year := ReleaseYear(t.PublishDate)

	genres := make([]string, 0, 2)
	if nil != t.Genre {
		genres = append(genres, t.Genre.Name)
	}
	if nil != t.SubGenre {
		genres = append(genres, t.SubGenre.Name)
	}

	extra := make(map[string]string, 3)
	if t.BPM != 0 {
		extra["BPM"] = strconv.Itoa(t.BPM)
	}
	if nil != t.Key && t.Key.Name != "" {
		extra["Key"] = t.Key.Name
	}
	if t.CatalogNumber != "" {
		extra["Catalog number"] = t.CatalogNumber
	}

	var label, coverURI string
	if nil != t.Release {
		coverURI = t.Release.Image.Template()
		if nil != t.Release.Label {
			label = t.Release.Label.Name
		}
	}

	info := &types.TrackInfo{
		ID:          ID(t.ID),
		Name:        trackName(t.Name, t.MixName),
		Album:       "",
		AlbumID:     "",
		Artists:     names(t.Artists),
		ArtistID:    "",
		ReleaseYear: year,
		Duration:    int(t.LengthMS / 1000),
		Bitrate:     Bitrate(format),
		BitDepth:    lo.Ternary(format == FormatLossless, 16, 0),
		SampleRate:  44.1,
		CoverURL:    ArtworkURL(coverURI, coverSize),
		Tags: types.Tags{
			AlbumArtist: "",
			TrackNumber: t.Number,
			TotalTracks: 0,
			UPC:         "",
			ISRC:        t.ISRC,
			Genres:      genres,
			ReleaseDate: t.PublishDate,
			Copyright:   copyright(year, label),
			Label:       label,
			Extra:       extra,
		},
		Codec:   Codec(format),
		Quality: format,
		Error:   "",
	}
	if len(t.Artists) > 0 {
		info.ArtistID = ID(t.Artists[0].ID)
	}

	if nil != release {
		info.Album = release.Name
		info.AlbumID = ID(release.ID)
		info.Tags.TotalTracks = release.TrackCount
		info.Tags.UPC = release.UPC
		if len(release.Artists) > 0 {
			info.Tags.AlbumArtist = release.Artists[0].Name
		}
	}

	switch {
	case !t.IsAvailableForStreaming:
		info.Error = fmt.Sprintf("track '%s' is not streamable", t.Name)
	case t.Preorder:
		info.Error = fmt.Sprintf("track '%s' is not yet released", t.Name)
	}

	return info
}

func Album(r *catalog.Release, tracks []catalog.Track, coverSize int) *types.AlbumInfo {
	info := &types.AlbumInfo{
		ID:          ID(r.ID),
		Name:        r.Name,
		ReleaseYear: ReleaseYear(r.PublishDate),
		Duration:    lo.SumBy(tracks, func(t catalog.Track) int { return int(t.LengthMS / 1000) }),
		UPC:         r.UPC,
		CoverURL:    ArtworkURL(r.Image.Template(), coverSize),
		Artist:      "",
		ArtistID:    "",
		TrackIDs:    trackIDs(tracks),
		Partial:     false,
	}
	if len(r.Artists) > 0 {
		info.Artist = r.Artists[0].Name
		info.ArtistID = ID(r.Artists[0].ID)
	}

	return info
}

func trackIDs(tracks []catalog.Track) []string {
	return lo.Map(tracks, func(t catalog.Track, _ int) string { return ID(t.ID) })
}

func Chart(logger zerolog.Logger, c *catalog.Chart, tracks []catalog.Track, coverSize int) *types.PlaylistInfo {
	creator := c.CuratorName
	var creatorID string
	if nil != c.Artist {
		creatorID = ID(c.Artist.ID)
		if creator == "" {
			creator = c.Artist.Name
		}
	}
	if creator == "" {
		creator = "Beatport"
	}

	info := &types.PlaylistInfo{
		ID:          ID(c.ID),
		Name:        lo.CoalesceOrEmpty(c.Name, "Unknown Playlist"),
		Creator:     creator,
		CreatorID:   creatorID,
		Description: c.Description,
		ReleaseYear: ReleaseYear(c.PublishDate),
		CoverURL:    ArtworkURL(c.Image.Template(), coverSize),
		CoverType:   imageFileType(c.Image.Template()),
		TrackIDs:    trackIDs(tracks),
		Explicit:    c.Explicit,
		IsChart:     true,
		Partial:     false,
	}

	declared := lo.Ternary(c.TrackCount != 0, c.TrackCount, len(info.TrackIDs))
	if declared != len(info.TrackIDs) {
		logger.Warn().Int("declared", declared).Int("listed", len(info.TrackIDs)).Msg("Chart track count differs from listed tracks")
	}

	return info
}

func Playlist(logger zerolog.Logger, p *catalog.Playlist, items []catalog.PlaylistItem, coverSize int) *types.PlaylistInfo {
	info := &types.PlaylistInfo{
		ID:          ID(p.ID),
		Name:        lo.CoalesceOrEmpty(p.Name, "Unknown Playlist"),
		Creator:     "Unknown Creator",
		CreatorID:   "",
		Description: p.Description,
		ReleaseYear: ReleaseYear(p.CreatedAt),
		CoverURL:    ArtworkURL(p.Image.Template(), coverSize),
		CoverType:   imageFileType(p.Image.Template()),
		TrackIDs: lo.FilterMap(items, func(item catalog.PlaylistItem, _ int) (string, bool) {
			if nil == item.Track {
				return "", false
			}
			return ID(item.Track.ID), true
		}),
		Explicit: false,
		IsChart:  false,
		Partial:  false,
	}
	if nil != p.User {
		info.CreatorID = ID(p.User.ID)
		if p.User.Username != "" {
			info.Creator = p.User.Username
		}
	}

	declared := lo.Ternary(p.TracksCount != 0, p.TracksCount, len(info.TrackIDs))
	if declared != len(info.TrackIDs) {
		logger.Warn().Int("declared", declared).Int("listed", len(info.TrackIDs)).Msg("Playlist track count differs from listed tracks")
	}

	return info
}

func Artist(a *catalog.Artist, tracks []catalog.Track) *types.ArtistInfo {
	return &types.ArtistInfo{
		ID:       ID(a.ID),
		Name:     a.Name,
		TrackIDs: trackIDs(tracks),
		Partial:  false,
	}
}

func Label(l *catalog.Label, releases []catalog.Release, tracks []catalog.Track) *types.LabelInfo {
	return &types.LabelInfo{
		ID:         ID(l.ID),
		Name:       l.Name,
		ReleaseIDs: lo.Map(releases, func(r catalog.Release, _ int) string { return ID(r.ID) }),
		TrackIDs:   trackIDs(tracks),
		Partial:    false,
	}
}
