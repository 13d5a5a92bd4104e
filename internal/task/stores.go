package task

import (
	"context"
	"sync"
)

// StoreSet hands out one Store per user over a shared repo. The first
// lookup for a user triggers the initial fetch.
type StoreSet struct {
	repo Repo

	mu     sync.Mutex
	stores map[string]*Store
}

func NewStoreSet(repo Repo) *StoreSet {
	return &StoreSet{
		repo:   repo,
		stores: map[string]*Store{},
	}
}

func (ss *StoreSet) For(ctx context.Context, userID string) *Store {
	ss.mu.Lock()
	st, ok := ss.stores[userID]
	if !ok {
		st = NewStore(ss.repo, userID)
		ss.stores[userID] = st
	}
	ss.mu.Unlock()

	if !ok {
		_ = st.FetchAll(ctx)
	}
	return st
}
