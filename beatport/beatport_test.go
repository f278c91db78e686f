package beatport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/beatportdl/beatport"
	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/auth"
	"github.com/xeptore/beatportdl/beatport/session"
	"github.com/xeptore/beatportdl/beatport/types"
)

const landingPage = `<html><body><script id="__NEXT_DATA__" type="application/json">{"props":{"anonSession":{"access_token":"ANON","expires_in":600}}}</script></body></html>`

type fakeBeatport struct {
	mux    sync.Mutex
	routes map[string]http.HandlerFunc
	calls  map[string]int
	srv    *httptest.Server
}

func newFakeBeatport(t *testing.T) *fakeBeatport {
	t.Helper()

	f := &fakeBeatport{
		mux:    sync.Mutex{},
		routes: make(map[string]http.HandlerFunc),
		calls:  make(map[string]int),
		srv:    nil,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mux.Lock()
		f.calls[key]++
		h, ok := f.routes[key]
		f.mux.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)

	f.json("GET /", http.StatusOK, landingPage)

	return f
}

func (f *fakeBeatport) handle(key string, h http.HandlerFunc) {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.routes[key] = h
}

func (f *fakeBeatport) json(key string, status int, body string) {
	f.handle(key, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeBeatport) count(key string) int {
	f.mux.Lock()
	defer f.mux.Unlock()

	return f.calls[key]
}

func (f *fakeBeatport) options() beatport.Options {
	return beatport.Options{
		Credentials:        auth.Credentials{Username: "", Password: ""},
		Anonymous:          false,
		APIURL:             f.srv.URL + "/v4/",
		WebURL:             f.srv.URL + "/",
		SubscriptionCheck:  true,
		ValidateStreamURL:  true,
		CoverSize:          1400,
		RatePerSecond:      0,
		RateBurst:          0,
		AuthTimeout:        5 * time.Second,
		CatalogTimeout:     5 * time.Second,
		StreamCheckTimeout: 5 * time.Second,
	}
}

func validSession() session.Session {
	return session.Session{
		AccessToken:  "ACCESS",
		RefreshToken: "REFRESH",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func newClient(t *testing.T, f *fakeBeatport, subscription string) *beatport.Client {
	t.Helper()

	f.json("GET /v4/auth/o/introspect", http.StatusOK, `{"user_id":1,"username":"dj","subscription":"`+subscription+`"}`)

	c, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(validSession()), f.options())
	require.NoError(t, err)

	return c
}

func TestNewRestoresValidSession(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	c := newClient(t, f, "bp_link_pro")

	assert.Equal(t, "ACCESS", c.Session().AccessToken)
	assert.Zero(t, f.count("POST /v4/auth/o/token/"))
	assert.Equal(t, 1, f.count("GET /v4/auth/o/introspect"))
}

func TestNewRefreshesExpiredSession(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/auth/o/introspect", http.StatusOK, `{"subscription":"bp_basic"}`)
	f.handle("POST /v4/auth/o/token/", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "REFRESH", r.PostForm.Get("refresh_token"))
		_, _ = io.WriteString(w, `{"access_token":"ACCESS2","refresh_token":"REFRESH2","expires_in":600}`)
	})

	expired := validSession()
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store := session.NewMemoryStore(expired)

	c, err := beatport.New(t.Context(), zerolog.Nop(), store, f.options())
	require.NoError(t, err)
	assert.Equal(t, "ACCESS2", c.Session().AccessToken)

	persisted, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "REFRESH2", persisted.RefreshToken)
}

func TestNewInvalidGrantFallsBackToLogin(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("POST /v4/auth/o/token/", http.StatusBadRequest, `{"error":"invalid_grant"}`)

	expired := validSession()
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(expired), f.options())
	require.ErrorIs(t, err, apierr.ErrConfiguration)
	assert.Zero(t, f.count("GET /v4/auth/o/authorize/"))
}

func TestNewOtherRefreshRejectionContinues(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("POST /v4/auth/o/token/", http.StatusServiceUnavailable, `{"error":"temporarily_unavailable"}`)
	f.json("GET /v4/auth/o/introspect", http.StatusOK, `{"subscription":"bp_basic"}`)

	expired := validSession()
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	c, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(expired), f.options())
	require.NoError(t, err)
	assert.Equal(t, "ACCESS", c.Session().AccessToken)
}

func TestNewBlankCredentials(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)

	_, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(session.Session{}), f.options()) //nolint:exhaustruct
	require.ErrorIs(t, err, apierr.ErrConfiguration)
	assert.Zero(t, f.count("GET /v4/auth/o/authorize/"))
	assert.Zero(t, f.count("POST /v4/auth/login/"))
}

func TestNewAnonymous(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	opts := f.options()
	opts.Anonymous = true

	c, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(session.Session{}), opts) //nolint:exhaustruct
	require.NoError(t, err)

	sess := c.Session()
	assert.Equal(t, "ANON", sess.AccessToken)
	assert.True(t, sess.IsAnonymous())
	assert.Zero(t, f.count("GET /v4/auth/o/introspect"))
}

func TestNewWithoutSubscription(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/auth/o/introspect", http.StatusOK, `{"user_id":1,"username":"dj","subscription":null}`)

	_, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(validSession()), f.options())
	require.ErrorIs(t, err, apierr.ErrSubscriptionRequired)
}

func TestNewSkipsSubscriptionCheck(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	opts := f.options()
	opts.SubscriptionCheck = false

	_, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(validSession()), opts)
	require.NoError(t, err)
	assert.Zero(t, f.count("GET /v4/auth/o/introspect"))
}

const trackBody = `{
  "id": 42,
  "name": "Darkside",
  "mix_name": "Original Mix",
  "artists": [{"id": 1, "name": "Alpha"}],
  "release": {"id": 7, "name": "EP", "image": {"id": 1, "uri": "https://img/1400x1400/x.jpg"}, "label": {"id": 3, "name": "Label"}},
  "publish_date": "2020-02-02",
  "length_ms": 200000,
  "is_available_for_streaming": true
}`

func TestTrackInfoRegionLockedAlbum(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/tracks/42", http.StatusOK, trackBody)
	f.json("GET /v4/catalog/releases/7", http.StatusForbidden, `{"detail":"Territory Restricted."}`)
	c := newClient(t, f, "bp_link_pro")

	info, err := c.TrackInfo(t.Context(), zerolog.Nop(), "42", types.QualityLossless)
	require.NoError(t, err)
	assert.Equal(t, "album 7 is region locked", info.Error)
	assert.Equal(t, "Darkside (Original Mix)", info.Name)
	assert.Equal(t, types.CodecFLAC, info.Codec)
	assert.Empty(t, info.Album)
}

func TestTrackInfoUsesCache(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/tracks/42", http.StatusOK, trackBody)
	f.json("GET /v4/catalog/releases/7", http.StatusOK, `{"id": 7, "name": "EP", "track_count": 1, "artists": [{"id": 1, "name": "Alpha"}]}`)
	c := newClient(t, f, "bp_basic")

	for range 3 {
		info, err := c.TrackInfo(t.Context(), zerolog.Nop(), "42", types.QualityLossless)
		require.NoError(t, err)
		assert.Equal(t, "EP", info.Album)
		assert.Equal(t, "medium", info.Quality)
		assert.Equal(t, types.CodecAAC, info.Codec)
	}

	assert.Equal(t, 1, f.count("GET /v4/catalog/tracks/42"))
	assert.Equal(t, 1, f.count("GET /v4/catalog/releases/7"))
}

func TestAlbumInfo(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/releases/7", http.StatusOK, `{"id": 7, "name": "EP", "publish_date": "2020-02-02", "artists": [{"id": 1, "name": "Alpha"}], "image": {"dynamic_uri": "https://img/{w}x{h}/x.jpg"}}`)
	f.json("GET /v4/catalog/releases/7/tracks", http.StatusOK, `{"count": 2, "results": [
		{"id": 10, "name": "One", "length_ms": 60000, "release": {"id": 7}, "is_available_for_streaming": true},
		{"id": 11, "name": "Two", "length_ms": 90000, "release": {"id": 7}, "is_available_for_streaming": true}
	]}`)
	c := newClient(t, f, "bp_basic")

	album, err := c.AlbumInfo(t.Context(), zerolog.Nop(), "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, album.TrackIDs)
	assert.Equal(t, 150, album.Duration)
	assert.False(t, album.Partial)

	info, err := c.TrackInfo(t.Context(), zerolog.Nop(), "11", types.QualityHigh)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Tags.TrackNumber)
	assert.Zero(t, f.count("GET /v4/catalog/tracks/11"))
	assert.Equal(t, 1, f.count("GET /v4/catalog/releases/7"))
}

func TestAlbumInfoRegionLocked(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/releases/7", http.StatusForbidden, `{"detail":"This content is not available in your territory."}`)
	c := newClient(t, f, "bp_basic")

	_, err := c.AlbumInfo(t.Context(), zerolog.Nop(), "7")
	require.ErrorIs(t, err, apierr.ErrRegionLocked)
	assert.True(t, beatport.Degradable(err))
}

func TestPlaylistInfoPartial(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/playlists/9", http.StatusOK, `{"id": 9, "name": "Warmup", "user": {"id": 2, "username": "dj"}, "tracks_count": 5}`)
	f.handle("GET /v4/catalog/playlists/9/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = io.WriteString(w, `{"count": 5, "results": [{"id": 1, "track": {"id": 21}}, {"id": 2, "track": {"id": 22}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"count": 5, "results": []}`)
	})
	c := newClient(t, f, "bp_basic")

	info, err := c.PlaylistInfo(t.Context(), zerolog.Nop(), "9", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"21", "22"}, info.TrackIDs)
	assert.True(t, info.Partial)
	assert.Equal(t, "dj", info.Creator)
	assert.Equal(t, 2, f.count("GET /v4/catalog/playlists/9/tracks"))
}

func TestPlaylistInfoChart(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/charts/5", http.StatusOK, `{"id": 5, "name": "Top", "artist": {"id": 3, "name": "Alpha"}, "track_count": 1}`)
	f.json("GET /v4/catalog/charts/5/tracks", http.StatusOK, `{"count": 1, "results": [{"id": 31}]}`)
	c := newClient(t, f, "bp_basic")

	info, err := c.PlaylistInfo(t.Context(), zerolog.Nop(), "5", true)
	require.NoError(t, err)
	assert.True(t, info.IsChart)
	assert.Equal(t, "Alpha", info.Creator)
	assert.Equal(t, []string{"31"}, info.TrackIDs)
}

func TestLabelInfo(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/labels/3", http.StatusOK, `{"id": 3, "name": "Label"}`)
	f.json("GET /v4/catalog/labels/3/releases", http.StatusOK, `{"count": 1, "results": [{"id": 7}]}`)
	f.json("GET /v4/catalog/labels/3/tracks", http.StatusOK, `{"count": 2, "results": [{"id": 41}, {"id": 42}]}`)
	c := newClient(t, f, "bp_basic")

	info, err := c.LabelInfo(t.Context(), zerolog.Nop(), "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, info.ReleaseIDs)
	assert.Equal(t, []string{"41", "42"}, info.TrackIDs)
	assert.False(t, info.Partial)
}

func TestTrackDownload(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.handle("GET /v4/catalog/tracks/42/download", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lossless", r.URL.Query().Get("quality"))
		_, _ = io.WriteString(w, `{"location": "`+f.srv.URL+`/files/42.flac", "stream_quality": ".flac"}`)
	})
	f.json("HEAD /files/42.flac", http.StatusOK, "")
	c := newClient(t, f, "bp_link_pro")

	dl, err := c.TrackDownload(t.Context(), zerolog.Nop(), "42", types.QualityHiFi)
	require.NoError(t, err)
	assert.Equal(t, types.DownloadKindURL, dl.Kind)
	assert.Equal(t, f.srv.URL+"/files/42.flac", dl.URL)
	assert.Equal(t, 1, f.count("HEAD /files/42.flac"))
}

func TestTrackDownloadUnavailable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body func(f *fakeBeatport) string
	}{
		{
			name: "missing location",
			body: func(*fakeBeatport) string { return `{"location": null}` },
		},
		{
			name: "inaccessible location",
			body: func(f *fakeBeatport) string { return `{"location": "` + f.srv.URL + `/files/gone.m4a"}` },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeBeatport(t)
			f.json("GET /v4/catalog/tracks/42/download", http.StatusOK, tc.body(f))
			f.json("HEAD /files/gone.m4a", http.StatusGone, "")
			c := newClient(t, f, "bp_basic")

			_, err := c.TrackDownload(t.Context(), zerolog.Nop(), "42", types.QualityMedium)
			require.ErrorIs(t, err, apierr.ErrContentUnavailable)
		})
	}
}

func TestTrackStream(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/tracks/42/stream", http.StatusOK, `{"stream_url": "`+"https://needle.example/42.m3u8"+`"}`)
	opts := f.options()
	opts.ValidateStreamURL = false
	f.json("GET /v4/auth/o/introspect", http.StatusOK, `{"subscription":"bp_basic"}`)

	c, err := beatport.New(t.Context(), zerolog.Nop(), session.NewMemoryStore(validSession()), opts)
	require.NoError(t, err)

	dl, err := c.TrackStream(t.Context(), zerolog.Nop(), "42")
	require.NoError(t, err)
	assert.Equal(t, types.DownloadKindHLS, dl.Kind)
	assert.Equal(t, "https://needle.example/42.m3u8", dl.URL)
}

func TestTrackCover(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.json("GET /v4/catalog/tracks/42", http.StatusOK, trackBody)
	c := newClient(t, f, "bp_basic")

	cover, err := c.TrackCover(t.Context(), zerolog.Nop(), "42", 600)
	require.NoError(t, err)
	assert.Equal(t, "https://img/600x600/x.jpg", cover.URL)
	assert.Equal(t, types.ImageFileTypeJPG, cover.FileType)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.handle("GET /v4/catalog/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "darkside", q.Get("q"))
		assert.Equal(t, "releases", q.Get("type"))
		assert.Equal(t, "100", q.Get("per_page"))
		_, _ = io.WriteString(w, `{"releases": [{"id": 7, "name": "EP", "artists": [{"id": 1, "name": "Alpha"}], "catalog_number": "CAT1"}]}`)
	})
	c := newClient(t, f, "bp_basic")

	res, err := c.Search(t.Context(), zerolog.Nop(), types.LinkKindAlbum, "darkside", 500)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "7", res[0].ID)
	assert.Equal(t, []string{"Alpha"}, res[0].Artists)
	assert.Equal(t, []string{"Cat: CAT1"}, res[0].Additional)
}

func TestCatalogRequestRetriesAfterRefresh(t *testing.T) {
	t.Parallel()

	f := newFakeBeatport(t)
	f.handle("GET /v4/catalog/artists/8", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ACCESS2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"expired"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id": 8, "name": "Alpha"}`)
	})
	f.json("GET /v4/catalog/artists/8/tracks", http.StatusOK, `{"count": 0, "results": []}`)
	f.json("POST /v4/auth/o/token/", http.StatusOK, `{"access_token":"ACCESS2","refresh_token":"REFRESH2","expires_in":600}`)
	c := newClient(t, f, "bp_basic")

	info, err := c.ArtistInfo(t.Context(), zerolog.Nop(), "8")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", info.Name)
	assert.Empty(t, info.TrackIDs)
	assert.Equal(t, 1, f.count("POST /v4/auth/o/token/"))
	assert.Equal(t, "ACCESS2", c.Session().AccessToken)
}

func TestParseLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		link     string
		expected types.Link
	}{
		{
			name:     "track",
			link:     "https://www.beatport.com/track/darkside/10844269",
			expected: types.Link{Kind: types.LinkKindTrack, ID: "10844269", IsChart: false},
		},
		{
			name:     "localized release",
			link:     "https://www.beatport.com/de/release/darkside-ep/4012345",
			expected: types.Link{Kind: types.LinkKindAlbum, ID: "4012345", IsChart: false},
		},
		{
			name:     "chart",
			link:     "https://beatport.com/chart/summer-picks/765432",
			expected: types.Link{Kind: types.LinkKindPlaylist, ID: "765432", IsChart: true},
		},
		{
			name:     "playlist",
			link:     "https://www.beatport.com/playlists/share/123",
			expected: types.Link{Kind: types.LinkKindPlaylist, ID: "123", IsChart: false},
		},
		{
			name:     "artist",
			link:     "http://www.beatport.com/artist/alpha/55",
			expected: types.Link{Kind: types.LinkKindArtist, ID: "55", IsChart: false},
		},
		{
			name:     "label",
			link:     "https://www.beatport.com/label/label-records/77",
			expected: types.Link{Kind: types.LinkKindLabel, ID: "77", IsChart: false},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			link, err := beatport.ParseLink(tc.link)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, link)
		})
	}

	for _, l := range []string{"https://www.beatport.com/genre/techno/6", "https://example.com/track/x/1", "not a link"} {
		_, err := beatport.ParseLink(l)
		require.ErrorIs(t, err, beatport.ErrUnsupportedLink, l)
	}
}

func TestDegradable(t *testing.T) {
	t.Parallel()

	assert.True(t, beatport.Degradable(apierr.New(apierr.KindNotFound, "gone", 404, "x")))
	assert.False(t, beatport.Degradable(apierr.New(apierr.KindUnauthorized, "no", 401, "x")))
	assert.False(t, beatport.Degradable(context.Canceled))
}
