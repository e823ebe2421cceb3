package resume

import "sync"

// Snapshot is a document together with the store version that produced it.
type Snapshot struct {
	Version  uint64   `json:"version"`
	Document Document `json:"document"`
}

// Edit derives a new document from the current one.
type Edit func(Document) (Document, error)

// Store owns the current document of an editing session. Edits are applied one at a time and
// each successful edit swaps in the new snapshot and bumps the version.
type Store struct {
	mu      sync.Mutex
	current Snapshot

	// notifyMu is taken before mu is released so subscribers see snapshots in version order.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	nextID   int
	subs     []subscriber
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewStore returns a store holding doc at version 1.
func NewStore(doc Document) *Store {
	return &Store{
		current: Snapshot{Version: 1, Document: doc},
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies edit to the current document. On error nothing changes and nobody is notified.
func (s *Store) Update(edit Edit) (Snapshot, error) {
	s.mu.Lock()
	doc, err := edit(s.current.Document)
	if err != nil {
		cur := s.current
		s.mu.Unlock()
		return cur, err
	}
	s.current = Snapshot{Version: s.current.Version + 1, Document: doc}
	snap := s.current
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Subscribe registers fn to be called with every new snapshot. The returned func removes it.
// Subscribers run synchronously in registration order and must not call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := s.subs
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}
