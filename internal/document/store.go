package document

import (
	"sort"
	"sync"
)

// Store is a thread-safe in-memory document registry. Documents live only
// for the process lifetime; persistence is out of scope.
type Store struct {
	mu   sync.Mutex
	docs map[string]Document
}

func NewStore() *Store {
	return &Store{docs: make(map[string]Document)}
}

func (s *Store) Put(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

func (s *Store) Get(id string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// GetAll resolves a list of IDs, skipping unknown ones. Order follows ids.
func (s *Store) GetAll(ids []string) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// List returns all documents ordered by upload time.
func (s *Store) List() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
