// Package animation maps spoken words to sign animation ids.
package animation

import (
	"strings"
	"unicode"
)

// defaultTable is the built-in word -> animation id mapping.
var defaultTable = map[string]string{
	"hi":           "hi",
	"focus":        "focus",
	"health":       "health",
	"work":         "work",
	"improve":      "growth_chart",
	"productivity": "growth_chart",
	"find":         "find",
	"love":         "love",
	"success":      "success",
	"you've":       "you've",
}

// Lookup resolves words against a fixed table. A Lookup is immutable and safe
// for concurrent use.
type Lookup struct {
	table map[string]string
}

// New returns a Lookup over a copy of table. Keys are normalized.
func New(table map[string]string) *Lookup {
	t := make(map[string]string, len(table))
	for word, id := range table {
		t[Normalize(word)] = id
	}
	return &Lookup{table: t}
}

// Default returns a Lookup over the built-in table.
func Default() *Lookup {
	return New(defaultTable)
}

// Lookup returns the animation id for word. A missing mapping is a normal
// outcome and reports false.
func (l *Lookup) Lookup(word string) (string, bool) {
	if l == nil {
		return "", false
	}
	id, ok := l.table[Normalize(word)]
	return id, ok
}

// Len returns the number of mapped words.
func (l *Lookup) Len() int {
	return len(l.table)
}

// Normalize strips surrounding white space and punctuation and lower-cases
// the result. Inner punctuation ("you've") is kept.
func Normalize(word string) string {
	w := strings.TrimSpace(word)
	w = strings.TrimFunc(w, unicode.IsPunct)
	return strings.ToLower(w)
}

// LastWord returns the final white-space separated word of a transcript,
// or "" when there is none.
func LastWord(transcript string) string {
	fields := strings.Fields(transcript)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
