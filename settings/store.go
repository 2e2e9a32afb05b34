// Copyright 2018 Andrew Bates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package settings holds the operator's command templates, one text
// value per relay.SlotKey, and persists them as an XML document.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/abates/relay"
)

// Values maps slot keys to their text templates
type Values map[relay.SlotKey]string

// Defaults returns every slot in the enumeration set to the empty string
func Defaults() Values {
	values := make(Values)
	for _, key := range relay.Keys() {
		values[key] = ""
	}
	return values
}

// Copy returns an independent copy of v
func (v Values) Copy() Values {
	c := make(Values, len(v))
	for key, value := range v {
		c[key] = value
	}
	return c
}

// Getter is the read side of a Store
type Getter interface {
	// Get returns the template for key or the empty string when the
	// key is unset
	Get(key relay.SlotKey) string
}

// Store is the collection of command templates.  Values are only ever
// changed in batches so that a reader never sees half of an edit.
type Store interface {
	Getter

	// Values returns a snapshot of every slot
	Values() Values

	// UpdateAll merges values into the store, keeping slots not named
	// in values, and persists the result as a single write.  A batch
	// naming an unknown key or holding text the document cannot store
	// is rejected whole.
	UpdateAll(values Values) error
}

// NewMemStore returns a memory backed store seeded with the defaults
func NewMemStore() Store {
	return &memStore{values: Defaults()}
}

type memStore struct {
	sync.Mutex
	values Values
}

func (s *memStore) Get(key relay.SlotKey) string {
	s.Lock()
	defer s.Unlock()
	return s.values[key]
}

func (s *memStore) Values() Values {
	s.Lock()
	defer s.Unlock()
	return s.values.Copy()
}

func (s *memStore) UpdateAll(values Values) error {
	s.Lock()
	defer s.Unlock()
	return s.merge(values)
}

// merge must be called with the lock held
func (s *memStore) merge(values Values) error {
	for key, value := range values {
		if !key.Valid() {
			return fmt.Errorf("%w: %v", relay.ErrUnknownKey, key)
		}

		if !storable(value) {
			return fmt.Errorf("%w: %v=%q", relay.ErrUnstorableText, key, value)
		}
	}

	for key, value := range values {
		s.values[key] = value
	}
	return nil
}

// FileStore is a Store persisted to an XML document on disk.  The
// document is rewritten in full on every UpdateAll.
type FileStore struct {
	memStore
	filename string
}

// Load reads the settings document at filename.  A missing, unreadable
// or malformed document is replaced with the defaults, which are
// written back immediately.  The returned store is always usable; the
// error is non-nil only when writing the defaults failed.
func Load(filename string) (*FileStore, error) {
	s := &FileStore{
		memStore: memStore{values: Defaults()},
		filename: filename,
	}

	values, err := readFile(filename)
	if err == nil {
		s.values = values
		relay.Log.Debugf("Settings loaded from %s", filename)
		return s, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		relay.Log.Infof("Settings file %s not found, creating defaults", filename)
	} else {
		relay.Log.Infof("Error loading settings: %v", err)
		backup(filename)
	}

	return s, s.save()
}

// Filename is the path of the backing document
func (s *FileStore) Filename() string { return s.filename }

// UpdateAll merges values and rewrites the document.  If the write
// fails the merged values remain in memory and the returned error
// wraps relay.ErrPersistenceWrite.
func (s *FileStore) UpdateAll(values Values) error {
	s.Lock()
	defer s.Unlock()

	err := s.merge(values)
	if err == nil {
		err = s.save()
	}
	return err
}

// Reset replaces every slot with the empty string and persists the result
func (s *FileStore) Reset() error {
	s.Lock()
	defer s.Unlock()
	s.values = Defaults()
	return s.save()
}

// save must be called with the lock held
func (s *FileStore) save() error {
	err := writeFile(s.filename, s.values)
	if err != nil {
		relay.Log.Infof("Error saving settings: %v", err)
		return fmt.Errorf("%w: %w", relay.ErrPersistenceWrite, relay.TraceError(err))
	}
	relay.Log.Debugf("Settings saved to %s", s.filename)
	return nil
}

func readFile(filename string) (Values, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadDocument(file)
}

// writeFile replaces filename atomically by writing a sibling temporary
// file and renaming it over the original
func writeFile(filename string, values Values) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteDocument(tmp, values); err != nil {
		return err
	}

	if err = tmp.Sync(); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

// backup moves an unreadable document aside so the defaults do not
// destroy the operator's only copy
func backup(filename string) {
	bak := filename + ".bak"
	if err := os.Rename(filename, bak); err == nil {
		relay.Log.Infof("Moved unreadable settings to %s", bak)
	}
}
