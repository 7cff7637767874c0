package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/searchd/internal/types"
)

func TestAddAndSearchBasic(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("hello world"))
	idx.Add(types.FileID(2), []byte("hello there"))

	results := idx.Search("hello")
	assert.ElementsMatch(t, []types.FileID{1, 2}, results)
}

func TestSearchRanksByDistinctTermCount(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("hello world"))
	idx.Add(types.FileID(2), []byte("hello there"))

	results := idx.Search("hello world")
	if assert.Len(t, results, 2) {
		assert.Equal(t, types.FileID(1), results[0])
		assert.Equal(t, types.FileID(2), results[1])
	}
}

func TestNormalizationStripsPunctuationAndCase(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(3), []byte("Hello, World!"))

	assert.Equal(t, []types.FileID{3}, idx.Search("hello"))
}

func TestPerFileDedupWithinOneAdd(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("go go go gopher"))

	assert.Equal(t, 1, idx.PostingCount("go"))
}

func TestSearchMonotonicitySubsetQuery(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("alpha beta"))
	idx.Add(types.FileID(2), []byte("alpha"))

	subset := idx.Search("alpha")
	superset := idx.Search("alpha beta")

	subsetSet := map[types.FileID]bool{}
	for _, id := range subset {
		subsetSet[id] = true
	}
	for id := range subsetSet {
		assert.Contains(t, superset, id)
	}
}

func TestEmptyQueryYieldsNoResults(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("hello"))

	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("   "))
}

func TestQueryWithOnlyNonLettersYieldsNoResults(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("hello"))

	assert.Empty(t, idx.Search("12345 !!! ---"))
}

func TestRepeatedAddPreservesRelativeRanking(t *testing.T) {
	idx := New()
	idx.Add(types.FileID(1), []byte("hello world"))
	idx.Add(types.FileID(2), []byte("hello"))
	idx.Add(types.FileID(1), []byte("hello world"))

	results := idx.Search("hello world")
	if assert.Len(t, results, 2) {
		assert.Equal(t, types.FileID(1), results[0])
	}
}
