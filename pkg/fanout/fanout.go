// Package fanout splits bulk work into ceiling-sized chunks and runs them one
// after another, counting per-item outcomes.
//
// It is used for both halves of a notification fan-out: persisting records
// through the store's atomic batch and sending pushes through the transport's
// multicast, which share the same 500-item ceiling.
package fanout

import (
	"context"
)

// DefaultBatchSize is the storage/push batch ceiling
const DefaultBatchSize = 500

// Result aggregates item counts over all chunks
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Add merges another result into r
func (r *Result) Add(o Result) {
	r.Attempted += o.Attempted
	r.Succeeded += o.Succeeded
	r.Failed += o.Failed
}

// Chunk splits items into consecutive slices of at most size elements,
// preserving order. An empty input yields no chunks.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// DedupeBy keeps the first item for each key, preserving order.
// Items whose key is the zero value are dropped.
func DedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	var zero K
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == zero {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Worker processes one chunk and reports how many of its items succeeded.
// Returning an error marks the whole chunk failed.
type Worker[T any] func(ctx context.Context, chunk []T) (int, error)

// ChunkError is reported to the OnError hook for every failed chunk
type ChunkError struct {
	Index int
	Size  int
	Err   error
}

// Option tunes RunChunked
type Option func(*options)

type options struct {
	onError func(ChunkError)
}

// OnError registers a hook called for each failed chunk, typically to log it
func OnError(fn func(ChunkError)) Option {
	return func(o *options) { o.onError = fn }
}

// RunChunked runs worker over chunks strictly in order. A failing chunk is
// counted as failed for all its items and the next chunk still runs.
func RunChunked[T any](ctx context.Context, chunks [][]T, worker Worker[T], opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	for i, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		res.Attempted += len(chunk)

		ok, err := worker(ctx, chunk)
		if err != nil {
			res.Failed += len(chunk)
			if o.onError != nil {
				o.onError(ChunkError{Index: i, Size: len(chunk), Err: err})
			}
			continue
		}
		ok = max(0, min(ok, len(chunk)))
		res.Succeeded += ok
		res.Failed += len(chunk) - ok
	}
	return res
}
