// Package reembed provides functionality for recomputing chunk vectors
// with a new or updated embedding model.
//
// This package supports batch processing of stored chunks, progress
// tracking, retry logic with exponential backoff, and vector normalization
// to ensure compatibility with cosine similarity search.
package reembed
