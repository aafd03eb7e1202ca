package service

import "sync"

// generationTable implements last-request-wins per caller: each request
// records the generation it started with, and is discarded when a newer
// request from the same caller has begun in the meantime. Anonymous callers
// are not tracked, so they never supersede one another.
type generationTable struct {
	mu       sync.Mutex
	byCaller map[string]uint64
}

func newGenerationTable() *generationTable {
	return &generationTable{byCaller: make(map[string]uint64)}
}

// begin records the start of a new request for the caller and returns its
// generation.
func (t *generationTable) begin(caller string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byCaller[caller]++
	return t.byCaller[caller]
}

// superseded reports whether a newer request from the caller has begun since
// gen was issued.
func (t *generationTable) superseded(caller string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byCaller[caller] != gen
}
