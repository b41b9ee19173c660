// Package rag builds the career document index and answers grounded
// queries against it.
package rag

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, from paragraph breaks down to
// single characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// LengthFunc measures a piece of text in the splitter's unit.
type LengthFunc func(string) int

// RuneLength measures text in characters.
func RuneLength(s string) int { return utf8.RuneCountInString(s) }

// Splitter cuts text into overlapping chunks of at most ChunkSize units,
// preferring to break on the earliest separator that occurs in the text.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
	Length       LengthFunc
}

// NewSplitter validates the sizes and returns a recursive splitter.
// A nil length measures characters.
func NewSplitter(size, overlap int, length LengthFunc) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("op=rag.NewSplitter: chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("op=rag.NewSplitter: overlap %d must be in [0,%d)", overlap, size)
	}
	if length == nil {
		length = RuneLength
	}
	return &Splitter{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Separators:   DefaultSeparators,
		Length:       length,
	}, nil
}

// Split returns the chunks of text. Whitespace-only chunks are dropped.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var next []string
	for i, c := range separators {
		if c == "" {
			sep = ""
			break
		}
		if strings.Contains(text, c) {
			sep = c
			next = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, good []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if s.Length(p) < s.ChunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, sep)...)
			good = nil
		}
		if len(next) == 0 {
			out = append(out, p)
		} else {
			out = append(out, s.split(p, next)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, sep)...)
	}
	return out
}

// merge packs small pieces into chunks, carrying up to ChunkOverlap units of
// the previous chunk's tail into the next one.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := s.Length(sep)
	joinCost := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var docs, cur []string
	total := 0
	emit := func() {
		if doc := strings.TrimSpace(strings.Join(cur, sep)); doc != "" {
			docs = append(docs, doc)
		}
	}
	for _, p := range pieces {
		l := s.Length(p)
		if total+l+joinCost(len(cur)) > s.ChunkSize && len(cur) > 0 {
			emit()
			for total > s.ChunkOverlap || (total+l+joinCost(len(cur)) > s.ChunkSize && total > 0) {
				total -= s.Length(cur[0]) + joinCost(len(cur)-1)
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += l + joinCost(len(cur)-1)
	}
	emit()
	return docs
}
