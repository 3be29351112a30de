// Package openai implements the ai.Embedder contract against any
// OpenAI-compatible embedding API (Ollama, LocalAI, vLLM, OpenAI itself).
package openai
