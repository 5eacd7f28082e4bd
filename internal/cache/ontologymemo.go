package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// OntologyMemo memoizes the tumor-ontology catalogue in-process, mirroring
// oncotree.py's self._cache dict — the full catalogue is fetched once and
// reused for every ResolveTumorType lookup in the process lifetime.
type OntologyMemo struct {
	cache *lru.Cache[string, any]
}

// NewOntologyMemo builds a memo with room for size distinct catalogue
// snapshots (in practice just one: the key "catalogue").
func NewOntologyMemo(size int) (*OntologyMemo, error) {
	if size <= 0 {
		size = 4
	}
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &OntologyMemo{cache: c}, nil
}

func (m *OntologyMemo) Get(key string) (any, bool) {
	return m.cache.Get(key)
}

func (m *OntologyMemo) Set(key string, value any) {
	m.cache.Add(key, value)
}

func (m *OntologyMemo) Purge() {
	m.cache.Purge()
}
