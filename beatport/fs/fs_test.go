package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/beatportdl/beatport/fs"
	"github.com/xeptore/beatportdl/beatport/types"
)

func TestLayout(t *testing.T) {
	t.Parallel()

	dir := fs.DownloadDirFrom("/downloads")

	single := dir.Single("42")
	assert.Equal(t, filepath.Join("/downloads", "42.flac"), single.Path(".flac"))
	assert.Equal(t, filepath.Join("/downloads", "42.json"), single.Info.Path)
	assert.Equal(t, filepath.Join("/downloads", "42.part"), single.PartPath())

	album := dir.Collection(types.LinkKindAlbum, "7")
	assert.Equal(t, filepath.Join("/downloads", "albums", "7"), album.DirPath)
	assert.Equal(t, filepath.Join("/downloads", "albums", "7", "info.json"), album.Info.Path)
	assert.Equal(t, filepath.Join("/downloads", "albums", "7", "42.m4a"), album.Track("42").Path(".m4a"))
}

func TestFind(t *testing.T) {
	t.Parallel()

	dir := fs.DownloadDirFrom(t.TempDir())
	track := dir.Single("42")

	_, ok, err := track.Find()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(track.Path(".m4a"), []byte("x"), 0o600))

	path, ok, err := track.Find()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, track.Path(".m4a"), path)
}

func TestCoverWrite(t *testing.T) {
	t.Parallel()

	dir := fs.DownloadDirFrom(t.TempDir())
	cover := dir.Single("42").Cover

	path, err := cover.Write([]byte("image"), ".png")
	require.NoError(t, err)

	found, ok, err := cover.Find()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, path, found)
}

func TestInfoFile(t *testing.T) {
	t.Parallel()

	dir := fs.DownloadDirFrom(t.TempDir())
	album := dir.Collection(types.LinkKindAlbum, "7")
	require.NoError(t, album.Create())

	in := types.AlbumInfo{ID: "7", Name: "EP", TrackIDs: []string{"1", "2"}} //nolint:exhaustruct
	require.NoError(t, album.Info.Write(in))

	var out types.AlbumInfo
	require.NoError(t, album.Info.Read(&out))
	assert.Equal(t, in, out)
}
