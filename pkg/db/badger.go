package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mxpv/ytlink/pkg/model"
)

const (
	versionPath = "ytlink/version"
	videoPrefix = "video/"
	videoPath   = "video/%s"

	// Concurrent writers of the same video are serialized by retrying conflicted transactions
	maxConflictRetries = 100
)

// BadgerConfig represents BadgerDB configuration parameters
type BadgerConfig struct {
	Truncate bool `toml:"truncate"`
	FileIO   bool `toml:"file_io"`
}

type Badger struct {
	db *badger.DB
}

var _ Storage = (*Badger)(nil)

func NewBadger(config *Config) (*Badger, error) {
	var (
		dir = config.Dir
	)

	log.Infof("opening database %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir database dir")
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(log.StandardLogger()).
		WithTruncate(true)

	if config.Badger != nil {
		opts.Truncate = config.Badger.Truncate
		if config.Badger.FileIO {
			opts.ValueLogLoadingMode = options.FileIO
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	storage := &Badger{db: db}

	if err := db.Update(func(txn *badger.Txn) error {
		if err := storage.setObj(txn, []byte(versionPath), CurrentVersion, false); err != nil && err != model.ErrAlreadyExists {
			return err
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to read database version")
	}

	return storage, nil
}

func (b *Badger) Close() error {
	log.Debug("closing database")
	return b.db.Close()
}

func (b *Badger) Version() (int, error) {
	var (
		version = -1
	)

	err := b.db.View(func(txn *badger.Txn) error {
		return b.getObj(txn, []byte(versionPath), &version)
	})

	return version, err
}

func (b *Badger) AddVideo(_ context.Context, video *model.Video) error {
	if video.Code == "" {
		return errors.New("can't save video without code")
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		key := b.getKey(videoPath, video.Code)
		return b.setObj(txn, key, video, false)
	})

	// The only key read by this transaction is the video itself,
	// so a conflict means someone else has just inserted it
	if err == badger.ErrConflict {
		return model.ErrAlreadyExists
	}

	return err
}

func (b *Badger) GetVideo(_ context.Context, code string) (*model.Video, error) {
	var (
		video model.Video
		key   = b.getKey(videoPath, code)
	)

	if err := b.db.View(func(txn *badger.Txn) error {
		return b.getObj(txn, key, &video)
	}); err != nil {
		return nil, err
	}

	return &video, nil
}

func (b *Badger) UpdateVideo(code string, cb func(video *model.Video) error) error {
	key := b.getKey(videoPath, code)

	return b.update(func(txn *badger.Txn) error {
		var video model.Video
		if err := b.getObj(txn, key, &video); err != nil {
			return err
		}

		if err := cb(&video); err != nil {
			return err
		}

		if video.Code != code {
			return errors.New("can't change video code")
		}

		return b.setObj(txn, key, &video, true)
	})
}

func (b *Badger) WalkVideos(_ context.Context, cb func(video *model.Video) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = b.getKey(videoPrefix)
		opts.PrefetchValues = true
		return b.iterator(txn, opts, func(item *badger.Item) error {
			video := &model.Video{}
			if err := b.unmarshalObj(item, video); err != nil {
				return err
			}

			return cb(video)
		})
	})
}

func (b *Badger) DeleteVideo(_ context.Context, code string) error {
	key := b.getKey(videoPath, code)
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return model.ErrNotFound
			}
			return err
		}

		if err := txn.Delete(key); err != nil {
			return errors.Wrapf(err, "failed to delete video %q", code)
		}

		return nil
	})
}

func (b *Badger) DeleteVideoIf(_ context.Context, code string, cond func(video *model.Video) bool) (bool, error) {
	var (
		key     = b.getKey(videoPath, code)
		deleted bool
	)

	err := b.update(func(txn *badger.Txn) error {
		deleted = false

		var video model.Video
		if err := b.getObj(txn, key, &video); err != nil {
			return err
		}

		if !cond(&video) {
			return nil
		}

		if err := txn.Delete(key); err != nil {
			return errors.Wrapf(err, "failed to delete video %q", code)
		}

		deleted = true
		return nil
	})

	return deleted, err
}

// update runs fn in a read-write transaction, retrying it when a concurrent transaction
// has modified the keys it read
func (b *Badger) update(fn func(txn *badger.Txn) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Millisecond
	policy.MaxInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := b.db.Update(fn)
		if err == nil || err == badger.ErrConflict {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithMaxRetries(policy, maxConflictRetries))
}

func (b *Badger) iterator(txn *badger.Txn, opts badger.IteratorOptions, callback func(item *badger.Item) error) error {
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		if err := callback(item); err != nil {
			return err
		}
	}

	return nil
}

func (b *Badger) getKey(format string, a ...interface{}) []byte {
	resourcePath := fmt.Sprintf(format, a...)
	fullPath := fmt.Sprintf("ytlink/v%d/%s", CurrentVersion, resourcePath)

	return []byte(fullPath)
}

func (b *Badger) setObj(txn *badger.Txn, key []byte, obj interface{}, overwrite bool) error {
	if !overwrite {
		// Overwrites are not allowed, make sure there is no object with the given key
		_, err := txn.Get(key)
		if err == nil {
			return model.ErrAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrap(err, "failed to check whether key exists")
		}
	}

	data, err := b.marshalObj(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize object for key %q", key)
	}

	return txn.Set(key, data)
}

func (b *Badger) getObj(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return model.ErrNotFound
		}

		return err
	}

	return b.unmarshalObj(item, out)
}

func (b *Badger) marshalObj(obj interface{}) ([]byte, error) {
	return json.Marshal(obj)
}

func (b *Badger) unmarshalObj(item *badger.Item, out interface{}) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
