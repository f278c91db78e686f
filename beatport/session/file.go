package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// FileStore keeps the session as one JSON document. Writes go to a temporary
// file that is renamed over the previous one.
type FileStore string

type fileContent struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires,omitempty"`
}

func (f FileStore) Load(_ context.Context) (sess *Session, err error) {
	file, err := os.OpenFile(string(f), os.O_RDONLY, 0o0600)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{}, nil //nolint:exhaustruct
		}

		return nil, fmt.Errorf("open session file: %v", err)
	}
	defer func() {
		if closeErr := file.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("close session file: %v", closeErr))
		}
	}()

	var c fileContent
	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.DecodeWithOption(&c, json.DecodeFieldPriorityFirstWin()); nil != err {
		return nil, fmt.Errorf("decode session file contents: %v", err)
	}

	sess = &Session{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    time.Time{},
	}
	if c.ExpiresAt != 0 {
		sess.ExpiresAt = time.Unix(c.ExpiresAt, 0)
	}

	return sess, nil
}

func (f FileStore) Save(_ context.Context, sess Session) (err error) {
	c := fileContent{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    0,
	}
	if !sess.ExpiresAt.IsZero() {
		c.ExpiresAt = sess.ExpiresAt.Unix()
	}

	tmp, err := os.CreateTemp(filepath.Dir(string(f)), ".session-*.json")
	if nil != err {
		return fmt.Errorf("create temporary session file: %v", err)
	}
	defer func() {
		if nil != err {
			if removeErr := os.Remove(tmp.Name()); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("remove temporary session file: %v", removeErr))
			}
		}
	}()

	if err := json.NewEncoder(tmp).EncodeWithOption(c); nil != err {
		return errors.Join(fmt.Errorf("encode session file: %v", err), tmp.Close())
	}

	if err := tmp.Sync(); nil != err {
		return errors.Join(fmt.Errorf("sync session file: %v", err), tmp.Close())
	}

	if err := tmp.Close(); nil != err {
		return fmt.Errorf("close temporary session file: %v", err)
	}

	if err := os.Chmod(tmp.Name(), 0o600); nil != err {
		return fmt.Errorf("chmod session file: %v", err)
	}

	if err := os.Rename(tmp.Name(), string(f)); nil != err {
		return fmt.Errorf("replace session file: %v", err)
	}

	return nil
}

func (f FileStore) Delete(_ context.Context) error {
	if err := os.Remove(string(f)); nil != err && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %v", err)
	}

	return nil
}
