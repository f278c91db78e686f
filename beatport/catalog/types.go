package catalog

import (
	"fmt"

	"github.com/goccy/go-json"
)

type Envelope[T any] struct {
	Count   int    `json:"count"`
	Results []T    `json:"results"`
	Page    string `json:"page"`
	PerPage int    `json:"per_page"`
}

type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	ID         int64  `json:"id"`
	URI        string `json:"uri"`
	DynamicURI string `json:"dynamic_uri"`
}

// Template returns the dynamic URI when present.
func (i *Image) Template() string {
	if nil == i {
		return ""
	}

	if i.DynamicURI != "" {
		return i.DynamicURI
	}

	return i.URI
}

type ReleaseRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image *Image `json:"image"`
	Label *Named `json:"label"`
}

type Track struct {
	ID                      int64       `json:"id"`
	Name                    string      `json:"name"`
	MixName                 string      `json:"mix_name"`
	Number                  int         `json:"number"`
	Artists                 []Named     `json:"artists"`
	Remixers                []Named     `json:"remixers"`
	Release                 *ReleaseRef `json:"release"`
	Genre                   *Named      `json:"genre"`
	SubGenre                *Named      `json:"sub_genre"`
	Key                     *Named      `json:"key"`
	BPM                     int         `json:"bpm"`
	CatalogNumber           string      `json:"catalog_number"`
	ISRC                    string      `json:"isrc"`
	PublishDate             string      `json:"publish_date"`
	LengthMS                int64       `json:"length_ms"`
	IsAvailableForStreaming bool        `json:"is_available_for_streaming"`
	Preorder                bool        `json:"preorder"`
	Exclusive               bool        `json:"exclusive"`
	Explicit                bool        `json:"explicit"`
}

type Release struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Artists       []Named `json:"artists"`
	PublishDate   string  `json:"publish_date"`
	UPC           string  `json:"upc"`
	Image         *Image  `json:"image"`
	TrackCount    int     `json:"track_count"`
	CatalogNumber string  `json:"catalog_number"`
	Label         *Named  `json:"label"`
	Exclusive     bool    `json:"exclusive"`
	Explicit      bool    `json:"explicit"`
}

type Chart struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CuratorName string `json:"curator_name"`
	Artist      *Named `json:"artist"`
	PublishDate string `json:"publish_date"`
	Image       *Image `json:"image"`
	TrackCount  int    `json:"track_count"`
	Explicit    bool   `json:"explicit"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Playlist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	User        *User  `json:"user"`
	CreatedAt   string `json:"created_at"`
	Image       *Image `json:"image"`
	TracksCount int    `json:"tracks_count"`
}

// PlaylistItem wraps a track; chart listings return tracks directly.
type PlaylistItem struct {
	ID    int64  `json:"id"`
	Track *Track `json:"track"`
}

type Artist struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Image  *Image  `json:"image"`
	Genres []Named `json:"genres"`
}

type Label struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image *Image `json:"image"`
}

type Account struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Subscription string `json:"subscription"`
}

type Download struct {
	Location      string `json:"location"`
	StreamQuality string `json:"stream_quality"`
}

type Stream struct {
	StreamURL     string `json:"stream_url"`
	SampleStartMS int64  `json:"sample_start_ms"`
	SampleEndMS   int64  `json:"sample_end_ms"`
}

type SearchPerson struct {
	OwnerName string `json:"owner_name"`
}

// SearchItem is the union of the fields used from every search result type.
type SearchItem struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	MixName       string        `json:"mix_name"`
	Artists       []Named       `json:"artists"`
	Artist        *Named        `json:"artist"`
	Person        *SearchPerson `json:"person"`
	Genres        []Named       `json:"genres"`
	PublishDate   string        `json:"publish_date"`
	ChangeDate    string        `json:"change_date"`
	LengthMS      int64         `json:"length_ms"`
	BPM           int           `json:"bpm"`
	CatalogNumber string        `json:"catalog_number"`
	Image         *Image        `json:"image"`
	Exclusive     bool          `json:"exclusive"`
	Explicit      bool          `json:"explicit"`
}

// SearchResults is keyed by search type, e.g. "tracks" or "releases".
type SearchResults map[string]json.RawMessage

// Items decodes the results listed under key. A missing key yields no items.
func (r SearchResults) Items(key string) ([]SearchItem, error) {
	raw, ok := r[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items []SearchItem
	if err := json.Unmarshal(raw, &items); nil != err {
		return nil, fmt.Errorf("decode %s search results: %v", key, err)
	}

	return items, nil
}

func decode[T any](b []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(b, &v); nil != err {
		return nil, err
	}

	return &v, nil
}
