package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}]+`)
	vowelGroups      = regexp.MustCompile(`[aeiouy]+`)
)

// document is the tokenized form of a cleaned transcript.
type document struct {
	text      string
	sentences [][]string
	words     []string
	lower     []string
}

func tokenize(text string) document {
	doc := document{text: text}

	for _, segment := range sentenceBoundary.Split(text, -1) {
		words := wordPattern.FindAllString(segment, -1)
		if len(words) == 0 {
			continue
		}
		doc.sentences = append(doc.sentences, words)
		doc.words = append(doc.words, words...)
	}

	doc.lower = make([]string, len(doc.words))
	for i, w := range doc.words {
		doc.lower[i] = strings.ToLower(w)
	}

	return doc
}

func (d document) wordCount() int     { return len(d.words) }
func (d document) sentenceCount() int { return len(d.sentences) }

// characterCount counts letters and digits only.
func (d document) characterCount() int {
	n := 0
	for _, w := range d.words {
		n += utf8.RuneCountInString(w)
	}
	return n
}

// countSyllables uses vowel clusters, dropping a trailing silent "e".
func countSyllables(word string) int {
	w := strings.ToLower(word)
	groups := vowelGroups.FindAllStringIndex(w, -1)
	n := len(groups)

	if n > 1 && !strings.HasSuffix(w, "le") {
		last := groups[n-1]
		if last[1] == len(w) && w[last[0]:last[1]] == "e" {
			n--
		}
	}

	if n < 1 {
		return 1
	}
	return n
}

// countPhrase counts occurrences of a multi-word phrase on word boundaries.
func countPhrase(lower []string, phrase ...string) int {
	if len(phrase) == 0 || len(lower) < len(phrase) {
		return 0
	}

	count := 0
	for i := 0; i+len(phrase) <= len(lower); i++ {
		match := true
		for j, p := range phrase {
			if lower[i+j] != p {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}
