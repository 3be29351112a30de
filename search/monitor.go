package search

import "github.com/viannik/memoria-tg-bot/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterVectorSearch(matches []*core.ChunkMatch)
	VerbatimHit(chunk *core.ChunkEmbedding)
	Finish(results []*core.ChunkMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)        {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ChunkMatch) {}
func (n *noopMonitor) VerbatimHit(_ *core.ChunkEmbedding)     {}
func (n *noopMonitor) Finish(_ []*core.ChunkMatch)            {}
