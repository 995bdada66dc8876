package classify

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brainvault/brainvault-server/internal/domain"
)

// emotionKeywords is checked in order; the first emotion with a hit wins.
var emotionKeywords = []struct {
	emotion  string
	keywords []string
}{
	{"excited", []string{"excited", "thrilled", "amazing", "awesome", "fantastic"}},
	{"happy", []string{"happy", "joy", "pleased", "satisfied", "content"}},
	{"curious", []string{"curious", "interested", "wonder", "explore", "discover"}},
	{"concerned", []string{"worried", "concerned", "anxious", "nervous", "stress"}},
	{"frustrated", []string{"frustrated", "annoyed", "irritated", "angry", "mad"}},
}

var (
	projectMarkers = map[string]bool{"project": true, "app": true, "website": true, "platform": true, "system": true, "tool": true}
	themeMarkers   = map[string]bool{"about": true, "focus": true, "topic": true, "subject": true, "area": true}
)

// skipWords are passed over when looking for the word a marker introduces.
var skipWords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "your": true, "this": true,
	"that": true, "of": true, "for": true, "on": true, "to": true, "is": true, "called": true,
	"named": true, "new": true, "some": true,
}

// lookahead bounds how far past a marker the label search goes.
const lookahead = 3

// KeywordClassifier labels content with fixed keyword tables. It never fails
// and needs no network.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, content string) (domain.Classification, error) {
	words := tokenize(content)
	return domain.Classification{
		Project: k.labelAfter(words, projectMarkers),
		Theme:   k.labelAfter(words, themeMarkers),
		Emotion: emotionOf(words),
	}, nil
}

// labelAfter returns the first content word following any marker, title cased.
func (k *KeywordClassifier) labelAfter(words []string, markers map[string]bool) string {
	for i, w := range words {
		if !markers[strings.ToLower(w)] {
			continue
		}
		for j := i + 1; j < len(words) && j <= i+lookahead; j++ {
			candidate := strings.ToLower(words[j])
			if skipWords[candidate] || markers[candidate] {
				continue
			}
			if !isWord(candidate) {
				break
			}
			// Casers carry state, so one per call.
			return cases.Title(language.English).String(candidate)
		}
	}
	return ""
}

func emotionOf(words []string) string {
	for _, entry := range emotionKeywords {
		for _, w := range words {
			lw := strings.ToLower(w)
			for _, kw := range entry.keywords {
				if matchesKeyword(lw, kw) {
					return entry.emotion
				}
			}
		}
	}
	return ""
}

// matchesKeyword matches short keywords exactly so "mad" does not hit "made";
// longer ones also match inflections such as "stressed".
func matchesKeyword(word, kw string) bool {
	if len(kw) < 5 {
		return word == kw
	}
	return strings.HasPrefix(word, kw)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
