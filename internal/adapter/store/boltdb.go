package store

import (
	"fmt"

	"go.etcd.io/bbolt"

	"devassist/internal/port"
)

// Setting keys read by the CLI.
const (
	KeyGitHubToken    = "github_token"
	KeyOllamaURL      = "ollama_url"
	KeyChatModel      = "chat_model"
	KeyEmbeddingModel = "embedding_model"
	KeyRepoURL        = "repo_url"
)

var (
	bucketSettings = []byte("settings")
	bucketMeta     = []byte("meta")
)

// BoltStore keeps user settings in a single bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.SettingsStore = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the settings database at path and brings
// its schema up to date.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSettings).Get([]byte(key))
		if data == nil {
			return nil
		}
		value, found = string(data), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, found, nil
}

func (s *BoltStore) Put(key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key must not be empty")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

func (s *BoltStore) List() (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return out, nil
}

// GetOr returns the stored value for key, or fallback when it is unset or blank.
func (s *BoltStore) GetOr(key, fallback string) string {
	v, ok, err := s.Get(key)
	if err != nil || !ok || v == "" {
		return fallback
	}
	return v
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
