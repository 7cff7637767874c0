// Package types holds the small set of value types shared across every
// package in searchd, so that store, index, pool, and dispatcher never
// need to import one another just to agree on a FileID.
package types

// FileID is an opaque handle for a loaded file, derived deterministically
// from its absolute path. Zero is the sentinel value: it is never indexed
// and never returned to a client.
type FileID uint64

// SentinelFileID is returned by the content store when a load fails.
const SentinelFileID FileID = 0

// Priority orders work submitted to the pool. Smaller values run first.
type Priority byte

const (
	// PriorityHandleClient is used for per-connection work; it preempts
	// reindex work whenever both are queued.
	PriorityHandleClient Priority = 1
	// PriorityUpdateIndex is used for reindex slices submitted by the
	// orchestrator's periodic fan-out.
	PriorityUpdateIndex Priority = 2
)
