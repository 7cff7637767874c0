// Package index implements the inverted index: normalized-token ->
// posting-list mapping and ranked multi-term search.
package index

import (
	"sort"
	"sync"

	"github.com/standardbeagle/searchd/internal/logging"
	"github.com/standardbeagle/searchd/internal/types"
)

var log = logging.For("index")

// InvertedIndex maps normalized tokens to the FileIDs that contain them.
type InvertedIndex struct {
	mu       sync.RWMutex
	postings map[string][]types.FileID
}

func New() *InvertedIndex {
	return &InvertedIndex{postings: make(map[string][]types.FileID)}
}

// Add tokenizes content, deduplicates per-file, and appends fileID to
// the posting list of every surviving token exactly once.
func (idx *InvertedIndex) Add(fileID types.FileID, content []byte) {
	tokens := tokenize(content)
	if len(tokens) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for tok := range tokens {
		idx.postings[tok] = append(idx.postings[tok], fileID)
	}
}

// Search tokenizes query identically to Add, ranks matching FileIDs by
// distinct-term occurrence count descending, and returns them in a
// stable-within-call order. Ties keep first-seen-by-term order.
func (idx *InvertedIndex) Search(query string) []types.FileID {
	terms := tokenize([]byte(query))
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	counts := make(map[types.FileID]int)
	order := make([]types.FileID, 0)
	seen := make(map[types.FileID]bool)

	for term := range terms {
		for _, id := range idx.postings[term] {
			counts[id]++
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	return order
}

// tokenize splits content on runs of ASCII whitespace, strips every
// non-ASCII-letter byte from each span, and lowercases the remainder.
// Empty normalized tokens are discarded. The returned set is keyed by
// normalized token so callers get per-call dedup for free.
func tokenize(content []byte) map[string]struct{} {
	out := make(map[string]struct{})
	start := -1
	for i := 0; i <= len(content); i++ {
		atEnd := i == len(content)
		isSpace := !atEnd && isASCIIWhitespace(content[i])
		if atEnd || isSpace {
			if start >= 0 {
				addNormalized(out, content[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return out
}

func addNormalized(out map[string]struct{}, span []byte) {
	buf := make([]byte, 0, len(span))
	for _, b := range span {
		if b >= 'a' && b <= 'z' {
			buf = append(buf, b)
		} else if b >= 'A' && b <= 'Z' {
			buf = append(buf, b+('a'-'A'))
		}
	}
	if len(buf) == 0 {
		return
	}
	out[string(buf)] = struct{}{}
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// PostingCount returns the length of term's posting list. A FileID passed
// to Add more than once appears once per Add call.
func (idx *InvertedIndex) PostingCount(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings[term])
}
