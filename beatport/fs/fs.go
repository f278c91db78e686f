package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/xeptore/beatportdl/beatport/types"
)

// DownloadDir lays out downloaded media. Singles go to the root; tracks of a
// collection share a directory named after its kind and id.
type DownloadDir string

func DownloadDirFrom(d string) DownloadDir {
	return DownloadDir(d)
}

func (dir DownloadDir) path() string {
	return string(dir)
}

func (dir DownloadDir) Single(id string) Track {
	return trackIn(dir.path(), id)
}

func (dir DownloadDir) Collection(kind types.LinkKind, id string) Collection {
	dirPath := filepath.Join(dir.path(), kind.String()+"s", id)

	return Collection{
		DirPath: dirPath,
		Info:    InfoFile{Path: filepath.Join(dirPath, "info.json")},
	}
}

type Collection struct {
	DirPath string
	Info    InfoFile
}

func (c Collection) Create() error {
	if err := os.MkdirAll(c.DirPath, 0o0755); nil != err {
		return fmt.Errorf("failed to create collection directory: %v", err)
	}

	return nil
}

func (c Collection) Track(id string) Track {
	return trackIn(c.DirPath, id)
}

func trackIn(dirPath, id string) Track {
	base := filepath.Join(dirPath, id)

	return Track{
		Base:  base,
		Info:  InfoFile{Path: base + ".json"},
		Cover: Cover{Base: base},
	}
}

// Track paths are extensionless until the downloaded content tells which
// extension it needs.
type Track struct {
	Base  string
	Info  InfoFile
	Cover Cover
}

func (t Track) PartPath() string {
	return t.Base + ".part"
}

func (t Track) Path(ext string) string {
	return t.Base + ext
}

// Find returns the path of an already downloaded file of this track.
func (t Track) Find() (string, bool, error) {
	return findWithExt(t.Base, ".flac", ".m4a", ".mp4", ".aac", ".mp3")
}

func (t Track) RemovePart() error {
	if err := os.Remove(t.PartPath()); nil != err && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove incomplete track file: %v", err)
	}

	return nil
}

type Cover struct {
	Base string
}

func (c Cover) Find() (string, bool, error) {
	return findWithExt(c.Base, ".jpg", ".png", ".webp")
}

func (c Cover) Write(b []byte, ext string) (path string, err error) {
	path = c.Base + ext

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_SYNC, 0o600)
	if nil != err {
		return "", fmt.Errorf("failed to open cover file for write: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close cover file: %v", closeErr))
		}

		if nil != err {
			if removeErr := os.Remove(path); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove incomplete cover file: %v", removeErr))
			}
		}
	}()

	if _, err := f.Write(b); nil != err {
		return "", fmt.Errorf("failed to write cover file: %v", err)
	}

	if err := f.Sync(); nil != err {
		return "", fmt.Errorf("failed to sync cover file: %v", err)
	}

	return path, nil
}

func findWithExt(base string, exts ...string) (string, bool, error) {
	for _, ext := range exts {
		ok, err := fileExists(base + ext)
		if nil != err {
			return "", false, err
		}

		if ok {
			return base + ext, true, nil
		}
	}

	return "", false, nil
}

func fileExists(path string) (bool, error) {
	if _, err := os.Stat(path); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to stat file: %v", err)
	}

	return true, nil
}

type InfoFile struct {
	Path string
}

func (p InfoFile) Read(v any) (err error) {
	f, err := os.OpenFile(p.Path, os.O_RDONLY, 0o0600)
	if nil != err {
		return fmt.Errorf("failed to open info file for read: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close info file: %v", closeErr))
		}
	}()

	if err := json.NewDecoder(f).Decode(v); nil != err {
		return fmt.Errorf("failed to decode info file contents: %v", err)
	}

	return nil
}

func (p InfoFile) Write(v any) (err error) {
	f, err := os.OpenFile(p.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o0600)
	if nil != err {
		return fmt.Errorf("failed to open info file for write: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close info file: %v", closeErr))
		}

		if nil != err {
			if removeErr := os.Remove(p.Path); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove incomplete info file: %v", removeErr))
			}
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); nil != err {
		return fmt.Errorf("failed to write info content: %v", err)
	}

	return nil
}
