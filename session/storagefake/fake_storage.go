package storagefake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-finance-client/session"
)

var _ session.Storage = (*FakeStorage)(nil)

// ErrInjected is returned by Save when the fake is told to fail.
var ErrInjected = errors.New("injected storage failure")

type FakeStorage struct {
	records   map[string][]byte
	saves     int
	failSaves bool
	lock      sync.RWMutex
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		records: make(map[string][]byte),
	}
}

func (fs *FakeStorage) Load(key string) ([]byte, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	raw, ok := fs.records[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (fs *FakeStorage) Save(key string, data []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.failSaves {
		return ErrInjected
	}
	fs.saves++
	fs.records[key] = append([]byte(nil), data...)
	return nil
}

func (fs *FakeStorage) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	delete(fs.records, key)
	return nil
}

// Put seeds a raw record, as if written by an earlier run.
func (fs *FakeStorage) Put(key string, data []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.records[key] = append([]byte(nil), data...)
}

// Saves reports how many successful writes happened.
func (fs *FakeStorage) Saves() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.saves
}

func (fs *FakeStorage) FailSaves(fail bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failSaves = fail
}
