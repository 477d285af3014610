package ingest

import (
	"strings"
	"unicode/utf8"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// splitter breaks text on the coarsest separator present, recursing into any
// piece that is still too large, then merges neighbouring pieces back up to
// chunkSize runes with up to overlap runes carried between chunks.
type splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func newSplitter(chunkSize int, overlap int) *splitter {
	return &splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

func (s *splitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		pieces = strings.Split(text, "")
	} else {
		for _, p := range strings.Split(text, separator) {
			if p != "" {
				pieces = append(pieces, p)
			}
		}
	}

	var chunks []string
	var fitting []string
	for _, piece := range pieces {
		if runeLen(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}
	return chunks
}

func (s *splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)

	var chunks []string
	var current []string
	total := 0
	for _, piece := range pieces {
		length := runeLen(piece)
		if total+length+joinCost(current, sepLen) > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// drop from the front until only the overlap is left and the next piece fits
			for total > s.overlap || (total > 0 && total+length+joinCost(current, sepLen) > s.chunkSize) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += length
		if len(current) > 1 {
			total += sepLen
		}
	}
	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinCost(current []string, sepLen int) int {
	if len(current) == 0 {
		return 0
	}
	return sepLen
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
