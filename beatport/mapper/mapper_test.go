package mapper_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/beatportdl/beatport/catalog"
	"github.com/xeptore/beatportdl/beatport/mapper"
	"github.com/xeptore/beatportdl/beatport/types"
)

func TestArtworkURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		uri      string
		size     int
		expected string
	}{
		{
			name:     "dynamic",
			uri:      "https://geo-media.beatport.com/image_size/{w}x{h}/abc.jpg",
			size:     600,
			expected: "https://geo-media.beatport.com/image_size/600x600/abc.jpg",
		},
		{
			name:     "fixed resolution",
			uri:      "https://geo-media.beatport.com/image_size/1400x1400/abc.jpg",
			size:     500,
			expected: "https://geo-media.beatport.com/image_size/500x500/abc.jpg",
		},
		{
			name:     "capped",
			uri:      "https://geo-media.beatport.com/image_size/250x250/abc.jpg",
			size:     3000,
			expected: "https://geo-media.beatport.com/image_size/1400x1400/abc.jpg",
		},
		{
			name:     "empty",
			uri:      "",
			size:     500,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, mapper.ArtworkURL(tc.uri, tc.size))
		})
	}
}

func TestReleaseYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2023, mapper.ReleaseYear("2023-04-01T15:00:00Z"))
	assert.Equal(t, 2021, mapper.ReleaseYear("2021-11-05"))
	assert.Equal(t, 2019, mapper.ReleaseYear("2019-01-02T10:11:12.123456"))
	assert.Equal(t, 2018, mapper.ReleaseYear("2018"))
	assert.Zero(t, mapper.ReleaseYear("soon"))
	assert.Zero(t, mapper.ReleaseYear(""))
}

func TestQualities(t *testing.T) {
	t.Parallel()

	basic := mapper.QualitiesFor("bp_basic")
	for _, q := range []types.Quality{types.QualityMinimum, types.QualityHigh, types.QualityLossless, types.QualityHiFi} {
		assert.Equal(t, mapper.FormatMedium, basic.Format(q))
	}

	pro := mapper.QualitiesFor(mapper.SubscriptionPro)
	assert.Equal(t, mapper.FormatMedium, pro.Format(types.QualityMedium))
	assert.Equal(t, mapper.FormatHigh, pro.Format(types.QualityHigh))
	assert.Equal(t, mapper.FormatLossless, pro.Format(types.QualityLossless))
	assert.Equal(t, mapper.FormatLossless, pro.Format(types.QualityHiFi))

	assert.Equal(t, 1411, mapper.Bitrate(mapper.FormatLossless))
	assert.Equal(t, 256, mapper.Bitrate(mapper.FormatHigh))
	assert.Equal(t, 128, mapper.Bitrate(mapper.FormatMedium))
	assert.Equal(t, types.CodecFLAC, mapper.Codec(mapper.FormatLossless))
	assert.Equal(t, types.CodecAAC, mapper.Codec(mapper.FormatHigh))
}

const trackJSON = `{
  "id": 10844269,
  "name": "Darkside",
  "mix_name": "Original Mix",
  "number": 3,
  "artists": [{"id": 1, "name": "Alpha"}, {"id": 2, "name": "Beta"}],
  "release": {
    "id": 555,
    "name": "Darkside EP",
    "image": {"id": 9, "uri": "https://geo-media.beatport.com/image_size/1400x1400/x.jpg", "dynamic_uri": "https://geo-media.beatport.com/image_size/{w}x{h}/x.jpg"},
    "label": {"id": 77, "name": "Label Records"}
  },
  "genre": {"id": 5, "name": "Techno"},
  "sub_genre": {"id": 6, "name": "Peak Time"},
  "key": {"id": 1, "name": "A Minor"},
  "bpm": 128,
  "catalog_number": "LBL001",
  "isrc": "GBXXX0000001",
  "publish_date": "2018-06-01",
  "length_ms": 381000,
  "is_available_for_streaming": true,
  "preorder": false
}`

func decodeTrack(t *testing.T) *catalog.Track {
	t.Helper()

	var tr catalog.Track
	require.NoError(t, json.Unmarshal([]byte(trackJSON), &tr))

	return &tr
}

func TestTrack(t *testing.T) {
	t.Parallel()

	release := &catalog.Release{
		ID:         555,
		Name:       "Darkside EP",
		Artists:    []catalog.Named{{ID: 1, Name: "Alpha"}},
		UPC:        "0123456789",
		TrackCount: 4,
	}

	info := mapper.Track(decodeTrack(t), release, mapper.FormatLossless, 1400)
	assert.Equal(t, "10844269", info.ID)
	assert.Equal(t, "Darkside (Original Mix)", info.Name)
	assert.Equal(t, "Darkside EP", info.Album)
	assert.Equal(t, "555", info.AlbumID)
	assert.Equal(t, []string{"Alpha", "Beta"}, info.Artists)
	assert.Equal(t, "1", info.ArtistID)
	assert.Equal(t, 2018, info.ReleaseYear)
	assert.Equal(t, 381, info.Duration)
	assert.Equal(t, 1411, info.Bitrate)
	assert.Equal(t, 16, info.BitDepth)
	assert.Equal(t, types.CodecFLAC, info.Codec)
	assert.Equal(t, "https://geo-media.beatport.com/image_size/1400x1400/x.jpg", info.CoverURL)
	assert.Empty(t, info.Error)

	assert.Equal(t, "Alpha", info.Tags.AlbumArtist)
	assert.Equal(t, 3, info.Tags.TrackNumber)
	assert.Equal(t, 4, info.Tags.TotalTracks)
	assert.Equal(t, "0123456789", info.Tags.UPC)
	assert.Equal(t, []string{"Techno", "Peak Time"}, info.Tags.Genres)
	assert.Equal(t, "© 2018 Label Records", info.Tags.Copyright)
	assert.Equal(t, "Label Records", info.Tags.Label)
	assert.Equal(t, map[string]string{"BPM": "128", "Key": "A Minor", "Catalog number": "LBL001"}, info.Tags.Extra)
}

func TestTrackUnavailable(t *testing.T) {
	t.Parallel()

	tr := decodeTrack(t)
	tr.IsAvailableForStreaming = false
	info := mapper.Track(tr, nil, mapper.FormatMedium, 500)
	assert.Equal(t, "track 'Darkside' is not streamable", info.Error)
	assert.Empty(t, info.Album)
	assert.Zero(t, info.BitDepth)
	assert.Equal(t, types.CodecAAC, info.Codec)

	tr = decodeTrack(t)
	tr.Preorder = true
	info = mapper.Track(tr, nil, mapper.FormatMedium, 500)
	assert.Equal(t, "track 'Darkside' is not yet released", info.Error)
}

func TestAlbum(t *testing.T) {
	t.Parallel()

	release := &catalog.Release{
		ID:          555,
		Name:        "Darkside EP",
		Artists:     []catalog.Named{{ID: 1, Name: "Alpha"}},
		PublishDate: "2018-06-01",
		UPC:         "0123",
		Image:       &catalog.Image{DynamicURI: "https://img/{w}x{h}/x.jpg"},
	}
	tracks := []catalog.Track{{ID: 1, LengthMS: 61_500}, {ID: 2, LengthMS: 120_999}, {ID: 3}}

	info := mapper.Album(release, tracks, 600)
	assert.Equal(t, "555", info.ID)
	assert.Equal(t, 2018, info.ReleaseYear)
	assert.Equal(t, 61+120, info.Duration)
	assert.Equal(t, "https://img/600x600/x.jpg", info.CoverURL)
	assert.Equal(t, "Alpha", info.Artist)
	assert.Equal(t, "1", info.ArtistID)
	assert.Equal(t, []string{"1", "2", "3"}, info.TrackIDs)
}

func TestChartCreator(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		chart    catalog.Chart
		expected string
	}{
		{name: "curator", chart: catalog.Chart{CuratorName: "DJ X", Artist: &catalog.Named{ID: 1, Name: "Alpha"}}, expected: "DJ X"},
		{name: "artist", chart: catalog.Chart{Artist: &catalog.Named{ID: 1, Name: "Alpha"}}, expected: "Alpha"},
		{name: "fallback", chart: catalog.Chart{}, expected: "Beatport"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			info := mapper.Chart(zerolog.Nop(), &tc.chart, []catalog.Track{{ID: 7}}, 500)
			assert.Equal(t, tc.expected, info.Creator)
			assert.True(t, info.IsChart)
			assert.Equal(t, []string{"7"}, info.TrackIDs)
			assert.Equal(t, types.ImageFileTypeJPG, info.CoverType)
		})
	}
}

func TestPlaylistSkipsItemsWithoutTrack(t *testing.T) {
	t.Parallel()

	p := &catalog.Playlist{
		ID:        9,
		Name:      "Warmup",
		User:      &catalog.User{ID: 4, Username: "dj"},
		CreatedAt: "2023-04-01T15:00:00Z",
		Image:     &catalog.Image{URI: "https://img/500x500/x.png"},
	}
	items := []catalog.PlaylistItem{{ID: 1, Track: &catalog.Track{ID: 11}}, {ID: 2}, {ID: 3, Track: &catalog.Track{ID: 13}}}

	info := mapper.Playlist(zerolog.Nop(), p, items, 1000)
	assert.Equal(t, []string{"11", "13"}, info.TrackIDs)
	assert.Equal(t, "dj", info.Creator)
	assert.Equal(t, "4", info.CreatorID)
	assert.Equal(t, 2023, info.ReleaseYear)
	assert.Equal(t, "https://img/1000x1000/x.png", info.CoverURL)
	assert.Equal(t, types.ImageFileTypePNG, info.CoverType)
	assert.False(t, info.IsChart)
}

func TestSearchResults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tracks", mapper.SearchType(types.LinkKindTrack))
	assert.Equal(t, "releases", mapper.SearchType(types.LinkKindAlbum))
	assert.Equal(t, "charts", mapper.SearchType(types.LinkKindPlaylist))
	assert.Equal(t, "artists", mapper.SearchType(types.LinkKindArtist))

	tracks := mapper.SearchResults(types.LinkKindTrack, []catalog.SearchItem{
		{ID: 1, Name: "Song", MixName: "Extended Mix", Artists: []catalog.Named{{Name: "A"}}, PublishDate: "2020-01-01", LengthMS: 300_000, BPM: 124, Exclusive: true},
		{ID: 2, Name: "Nameless"},
	})
	require.Len(t, tracks, 2)
	assert.Equal(t, "Song (Extended Mix)", tracks[0].Name)
	assert.Equal(t, []string{"A"}, tracks[0].Artists)
	assert.Equal(t, 2020, tracks[0].Year)
	assert.Equal(t, 300, tracks[0].Duration)
	assert.Equal(t, []string{"124BPM", "Exclusive"}, tracks[0].Additional)
	assert.Equal(t, []string{"Unknown Artist"}, tracks[1].Artists)

	charts := mapper.SearchResults(types.LinkKindPlaylist, []catalog.SearchItem{
		{ID: 3, Name: "Top 10", ChangeDate: "2022-02-02"},
	})
	require.Len(t, charts, 1)
	assert.True(t, charts[0].IsChart)
	assert.Equal(t, []string{"Beatport"}, charts[0].Artists)
	assert.Equal(t, 2022, charts[0].Year)

	albums := mapper.SearchResults(types.LinkKindAlbum, []catalog.SearchItem{
		{ID: 4, Name: "EP", CatalogNumber: "CAT9"},
	})
	assert.Equal(t, []string{"Cat: CAT9"}, albums[0].Additional)
}
