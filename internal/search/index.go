// Package search maintains the substring index over text history entries.
//
// Text is Unicode case-folded before indexing, and every document is split
// into rune trigrams. A query intersects the posting lists of its own
// trigrams to find candidates, then confirms each with a substring test on
// the folded document. Terms shorter than a trigram fall back to scanning
// every indexed document.
//
// Index is not safe for concurrent mutation. The history store mutates it
// only inside its write lock and queries it under its read lock, which keeps
// results consistent with the store after every completed mutation.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

const gramSize = 3

// Index maps entry ids to their folded text and trigram postings.
type Index struct {
	docs  map[string]string
	grams map[string]map[string]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		docs:  make(map[string]string),
		grams: make(map[string]map[string]struct{}),
	}
}

// Fold returns the case-folded form of s used for indexing and matching.
// A fresh Caser is used per call since Casers carry state.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Add indexes text under id, replacing any previous document for id.
func (ix *Index) Add(id, text string) {
	if _, ok := ix.docs[id]; ok {
		ix.Remove(id)
	}
	folded := Fold(text)
	ix.docs[id] = folded
	for g := range trigrams(folded) {
		posting, ok := ix.grams[g]
		if !ok {
			posting = make(map[string]struct{})
			ix.grams[g] = posting
		}
		posting[id] = struct{}{}
	}
}

// Remove drops id from the index. Unknown ids are ignored.
func (ix *Index) Remove(id string) {
	folded, ok := ix.docs[id]
	if !ok {
		return
	}
	delete(ix.docs, id)
	for g := range trigrams(folded) {
		posting := ix.grams[g]
		delete(posting, id)
		if len(posting) == 0 {
			delete(ix.grams, g)
		}
	}
}

// Reset drops every document.
func (ix *Index) Reset() {
	ix.docs = make(map[string]string)
	ix.grams = make(map[string]map[string]struct{})
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Has reports whether id is indexed.
func (ix *Index) Has(id string) bool {
	_, ok := ix.docs[id]
	return ok
}

// Query returns the ids of every document containing term, compared
// case-insensitively. The empty term matches every document.
func (ix *Index) Query(term string) map[string]struct{} {
	folded := Fold(term)
	out := make(map[string]struct{})

	grams := trigrams(folded)
	if len(grams) == 0 {
		for id, doc := range ix.docs {
			if strings.Contains(doc, folded) {
				out[id] = struct{}{}
			}
		}
		return out
	}

	// Walk the smallest posting list; a missing gram means no match at all.
	var smallest map[string]struct{}
	for g := range grams {
		posting, ok := ix.grams[g]
		if !ok {
			return out
		}
		if smallest == nil || len(posting) < len(smallest) {
			smallest = posting
		}
	}

	for id := range smallest {
		if strings.Contains(ix.docs[id], folded) {
			out[id] = struct{}{}
		}
	}
	return out
}

// trigrams returns the distinct rune trigrams of s.
func trigrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < gramSize {
		return nil
	}
	out := make(map[string]struct{}, len(runes)-gramSize+1)
	for i := 0; i+gramSize <= len(runes); i++ {
		out[string(runes[i:i+gramSize])] = struct{}{}
	}
	return out
}
