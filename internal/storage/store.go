package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bookmarksBucket = []byte("bookmarks")
	seenBucket      = []byte("seen")
	metaBucket      = []byte("metadata")
)

// ErrNotFound is returned when a bookmark does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting at most timeout for the
// file lock held by another instance.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bookmarksBucket, seenBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func articleKey(article *Article) []byte {
	if article.ID != "" {
		return []byte(article.ID)
	}
	return []byte(ArticleID(article.URL))
}

func (s *Store) SaveBookmark(article *Article) (*Bookmark, error) {
	if article == nil || article.URL == "" {
		return nil, fmt.Errorf("bookmark needs an article with a URL")
	}
	bm := &Bookmark{Article: article, SavedAt: time.Now()}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(bm)
		if err != nil {
			return err
		}
		return tx.Bucket(bookmarksBucket).Put(articleKey(article), data)
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

func (s *Store) DeleteBookmark(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bookmarksBucket)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) IsBookmarked(id string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bookmarksBucket).Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

func (s *Store) GetBookmark(id string) (*Bookmark, error) {
	var bm Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bookmarksBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &bm)
	})
	if err != nil {
		return nil, err
	}
	return &bm, nil
}

// GetBookmarks returns bookmarks newest first.
func (s *Store) GetBookmarks() ([]*Bookmark, error) {
	var bookmarks []*Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bookmarksBucket).ForEach(func(_ []byte, v []byte) error {
			var bm Bookmark
			if err := json.Unmarshal(v, &bm); err != nil {
				return nil
			}
			if bm.Article != nil {
				bookmarks = append(bookmarks, &bm)
			}
			return nil
		})
	})
	sort.Slice(bookmarks, func(i, j int) bool {
		return bookmarks[i].SavedAt.After(bookmarks[j].SavedAt)
	})
	return bookmarks, err
}

// BookmarkedIDs returns the subset of ids that are bookmarked.
func (s *Store) BookmarkedIDs(ids []string) (map[string]bool, error) {
	return s.lookup(bookmarksBucket, ids)
}

func (s *Store) MarkSeen(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		stamp, err := time.Now().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(seenBucket).Put([]byte(id), stamp)
	})
}

// SeenIDs returns the subset of ids the user has opened before.
func (s *Store) SeenIDs(ids []string) (map[string]bool, error) {
	return s.lookup(seenBucket, ids)
}

func (s *Store) lookup(bucket []byte, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		for _, id := range ids {
			if b.Get([]byte(id)) != nil {
				out[id] = true
			}
		}
		return nil
	})
	return out, err
}

// SetMeta stores a small string value, such as the last visited route.
func (s *Store) SetMeta(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}

func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(metaBucket).Get([]byte(key)); data != nil {
			value = string(data)
		}
		return nil
	})
	return value, err
}
