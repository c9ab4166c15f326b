// Package tokenstore keeps the tokens of established sessions in a BBolt database,
// keyed by account name.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("accounts")

var ErrNotFound = errors.New("account not found")

// Entry is what is kept per account.
type Entry struct {
	AccountName  string    `json:"account_name"`
	SteamID      uint64    `json:"steam_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	GuardData    string    `json:"guard_data,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Store struct {
	db *bbolt.DB
}

func New(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Open opens the BBolt database at path, creating it if needed.
func Open(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores entry, replacing what was kept for the account. A new entry without
// guard data keeps the old one.
func (s *Store) Put(entry Entry) error {
	if entry.AccountName == "" {
		return errors.New("entry has no account name")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)

		if entry.GuardData == "" {
			if old := b.Get([]byte(entry.AccountName)); old != nil {
				var prev Entry
				if err := json.Unmarshal(old, &prev); err == nil {
					entry.GuardData = prev.GuardData
				}
			}
		}

		if entry.UpdatedAt.IsZero() {
			entry.UpdatedAt = time.Now()
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(entry.AccountName), data)
	})
}

func (s *Store) Get(accountName string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(accountName))
		if data == nil {
			return fmt.Errorf("%s: %w", accountName, ErrNotFound)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *Store) Delete(accountName string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(accountName)) == nil {
			return fmt.Errorf("%s: %w", accountName, ErrNotFound)
		}
		return b.Delete([]byte(accountName))
	})
}

// List returns the stored account names in key order.
func (s *Store) List() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})

	return names, err
}
