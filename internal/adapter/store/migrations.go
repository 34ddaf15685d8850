package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is bumped on breaking changes to the on-disk layout.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// legacyKeys maps camelCase keys written by schema v1 to their current names.
var legacyKeys = map[string]string{
	"githubToken":    KeyGitHubToken,
	"ollamaUrl":      KeyOllamaURL,
	"chatModel":      KeyChatModel,
	"embeddingModel": KeyEmbeddingModel,
	"repoUrl":        KeyRepoURL,
}

// SchemaVersion returns the stored schema version, 0 for a fresh file.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate runs every pending migration in order and records the new version.
func (s *BoltStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("settings database created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for v := version; v < CurrentSchemaVersion; v++ {
			if err := runMigration(tx, v, v+1); err != nil {
				return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
			}
		}
		data, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

func runMigration(tx *bbolt.Tx, from, to int) error {
	switch {
	case from == 0 && to == 1:
		_, err := tx.CreateBucketIfNotExists(bucketSettings)
		return err
	case from == 1 && to == 2:
		b := tx.Bucket(bucketSettings)
		for old, current := range legacyKeys {
			v := b.Get([]byte(old))
			if v == nil {
				continue
			}
			if b.Get([]byte(current)) == nil {
				if err := b.Put([]byte(current), append([]byte(nil), v...)); err != nil {
					return err
				}
			}
			if err := b.Delete([]byte(old)); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
