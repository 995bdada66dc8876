package voice

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minIdeaLength = 10 // candidates must be longer than this
	maxIdeas      = 10
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// ExtractIdeas splits a transcript into sentences and keeps the first ten
// that are longer than ten characters.
func ExtractIdeas(transcript string) []string {
	ideas := make([]string, 0)
	for _, s := range sentenceBoundary.Split(transcript, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) <= minIdeaLength {
			continue
		}
		ideas = append(ideas, s)
		if len(ideas) == maxIdeas {
			break
		}
	}
	return ideas
}
