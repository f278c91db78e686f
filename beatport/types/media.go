package types

import (
	"github.com/rs/zerolog"
)

type ImageFileType string

const (
	ImageFileTypeJPG  ImageFileType = "jpg"
	ImageFileTypePNG  ImageFileType = "png"
	ImageFileTypeWEBP ImageFileType = "webp"
)

type Tags struct {
	AlbumArtist string            `json:"album_artist,omitempty"`
	TrackNumber int               `json:"track_number,omitempty"`
	TotalTracks int               `json:"total_tracks,omitempty"`
	UPC         string            `json:"upc,omitempty"`
	ISRC        string            `json:"isrc,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	ReleaseDate string            `json:"release_date,omitempty"`
	Copyright   string            `json:"copyright,omitempty"`
	Label       string            `json:"label,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

type TrackInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Album       string   `json:"album,omitempty"`
	AlbumID     string   `json:"album_id,omitempty"`
	Artists     []string `json:"artists"`
	ArtistID    string   `json:"artist_id,omitempty"`
	ReleaseYear int      `json:"release_year,omitempty"`
	// Duration is in seconds.
	Duration   int     `json:"duration,omitempty"`
	Bitrate    int     `json:"bitrate"`
	BitDepth   int     `json:"bit_depth,omitempty"`
	SampleRate float64 `json:"sample_rate"`
	CoverURL   string  `json:"cover_url,omitempty"`
	Tags       Tags    `json:"tags"`
	Codec      Codec   `json:"codec"`
	// Quality is the download quality the requested tier resolves to.
	Quality string `json:"quality"`
	// Error is set when the track exists but cannot be downloaded.
	Error string `json:"error,omitempty"`
}

func (t *TrackInfo) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("id", t.ID).
		Str("name", t.Name).
		Str("album_id", t.AlbumID).
		Strs("artists", t.Artists).
		Str("quality", t.Quality).
		Str("error", t.Error)
}

type AlbumInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ReleaseYear int      `json:"release_year,omitempty"`
	Duration    int      `json:"duration"`
	UPC         string   `json:"upc,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	ArtistID    string   `json:"artist_id,omitempty"`
	TrackIDs    []string `json:"tracks"`
	// Partial is set when fewer tracks than declared could be listed.
	Partial bool `json:"partial,omitempty"`
}

type PlaylistInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Creator     string        `json:"creator"`
	CreatorID   string        `json:"creator_id,omitempty"`
	Description string        `json:"description,omitempty"`
	ReleaseYear int           `json:"release_year,omitempty"`
	CoverURL    string        `json:"cover_url,omitempty"`
	CoverType   ImageFileType `json:"cover_type"`
	TrackIDs    []string      `json:"tracks"`
	Explicit    bool          `json:"explicit"`
	IsChart     bool          `json:"is_chart"`
	Partial     bool          `json:"partial,omitempty"`
}

type ArtistInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	TrackIDs []string `json:"tracks"`
	Partial  bool     `json:"partial,omitempty"`
}

type LabelInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ReleaseIDs []string `json:"releases"`
	TrackIDs   []string `json:"tracks"`
	Partial    bool     `json:"partial,omitempty"`
}

type SearchResult struct {
	ID         string   `json:"id"`
	Kind       LinkKind `json:"-"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Year       int      `json:"year,omitempty"`
	Duration   int      `json:"duration,omitempty"`
	Additional []string `json:"additional,omitempty"`
	CoverURL   string   `json:"cover_url,omitempty"`
	Explicit   bool     `json:"explicit"`
	IsChart    bool     `json:"is_chart,omitempty"`
}

type DownloadKind int

const (
	// DownloadKindURL is a direct file URL.
	DownloadKindURL DownloadKind = iota
	// DownloadKindHLS is an HLS playlist URL.
	DownloadKindHLS
)

func (k DownloadKind) String() string {
	switch k {
	case DownloadKindURL:
		return "url"
	case DownloadKindHLS:
		return "hls"
	}

	return "unknown"
}

type TrackDownload struct {
	Kind DownloadKind
	URL  string
}

type CoverInfo struct {
	URL      string
	FileType ImageFileType
}
