package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketName      = []byte("beatport")
	accessTokenKey  = []byte("access_token")
	refreshTokenKey = []byte("refresh_token")
	expiresKey      = []byte("expires")
)

// BoltStore keeps the session under three keys that are always written
// together in a single transaction.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	opts := &bbolt.Options{ //nolint:exhaustruct
		NoFreelistSync: true,
		ReadOnly:       false,
		Timeout:        1 * time.Second,
		NoGrowSync:     false,
		FreelistType:   bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(path, 0o600, opts)
	if nil != err {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := createBuckets(db); nil != err {
		return nil, fmt.Errorf("failed to create buckets: %v", err)
	}

	return &BoltStore{db: db}, nil
}

func createBuckets(db *bbolt.DB) error {
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketName); nil != err {
			return fmt.Errorf("failed to create session bucket: %v", err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to create buckets: %v", err)
	}

	return nil
}

func (s *BoltStore) Close() error {
	if err := s.db.Close(); nil != err {
		return fmt.Errorf("failed to close database: %v", err)
	}

	return nil
}

func (s *BoltStore) Load(_ context.Context) (*Session, error) {
	var sess Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		sess.AccessToken = string(b.Get(accessTokenKey))
		sess.RefreshToken = string(b.Get(refreshTokenKey))

		if v := b.Get(expiresKey); len(v) > 0 {
			unix, err := strconv.ParseInt(string(v), 10, 64)
			if nil != err {
				return fmt.Errorf("failed to parse expiry %q: %v", v, err)
			}
			sess.ExpiresAt = time.Unix(unix, 0)
		}

		return nil
	})
	if nil != err {
		return nil, fmt.Errorf("failed to load session: %v", err)
	}

	return &sess, nil
}

func (s *BoltStore) Save(_ context.Context, sess Session) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := putOrDelete(b, accessTokenKey, sess.AccessToken); nil != err {
			return err
		}

		if err := putOrDelete(b, refreshTokenKey, sess.RefreshToken); nil != err {
			return err
		}

		var expires string
		if !sess.ExpiresAt.IsZero() {
			expires = strconv.FormatInt(sess.ExpiresAt.Unix(), 10)
		}

		return putOrDelete(b, expiresKey, expires)
	})
	if nil != err {
		return fmt.Errorf("failed to store session: %v", err)
	}

	return nil
}

func (s *BoltStore) Delete(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range [][]byte{accessTokenKey, refreshTokenKey, expiresKey} {
			if err := b.Delete(k); nil != err {
				return fmt.Errorf("failed to delete %s: %v", k, err)
			}
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to delete session: %v", err)
	}

	return nil
}

// An absent key means the field is unset.
func putOrDelete(b *bbolt.Bucket, k []byte, v string) error {
	if v == "" {
		if err := b.Delete(k); nil != err {
			return fmt.Errorf("failed to delete %s: %v", k, err)
		}

		return nil
	}

	if err := b.Put(k, []byte(v)); nil != err {
		return fmt.Errorf("failed to put %s: %v", k, err)
	}

	return nil
}
