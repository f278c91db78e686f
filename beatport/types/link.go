package types

type LinkKind int

func (k LinkKind) String() string {
	switch k {
	case LinkKindTrack:
		return "track"
	case LinkKindAlbum:
		return "album"
	case LinkKindPlaylist:
		return "playlist"
	case LinkKindArtist:
		return "artist"
	case LinkKindLabel:
		return "label"
	}

	return "unknown"
}

const (
	LinkKindTrack LinkKind = iota
	LinkKindAlbum
	LinkKindPlaylist
	LinkKindArtist
	LinkKindLabel
)

func ParseLinkKind(s string) (LinkKind, bool) {
	for _, k := range []LinkKind{LinkKindTrack, LinkKindAlbum, LinkKindPlaylist, LinkKindArtist, LinkKindLabel} {
		if k.String() == s {
			return k, true
		}
	}

	return 0, false
}

type Link struct {
	Kind LinkKind
	ID   string
	// IsChart distinguishes DJ charts from user playlists. Both are
	// LinkKindPlaylist.
	IsChart bool
}
