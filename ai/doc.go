// Package ai defines the embedding collaborator contract.
//
// The Embedder interface converts chunk text into vectors for similarity
// search. Two implementations exist: ai/openai talks to any OpenAI-compatible
// embedding API, and ai/mock provides deterministic vectors for tests.
package ai
