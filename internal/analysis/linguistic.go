package analysis

import (
	"strings"
	"unicode"
)

func computeLinguistic(doc document, includeAdvanced bool) *LinguisticFeatures {
	words := float64(doc.wordCount())
	sentences := float64(doc.sentenceCount())

	var pron, det, prep, conj, aux, markers, subs, hesitations int
	for _, w := range doc.lower {
		if inSet(pronouns, w) {
			pron++
		}
		if inSet(determiners, w) {
			det++
		}
		if inSet(prepositions, w) {
			prep++
		}
		if inSet(conjunctions, w) {
			conj++
		}
		if inSet(auxiliaries, w) {
			aux++
		}
		if inSet(discourseMarkers, w) {
			markers++
		}
		if inSet(subordinators, w) {
			subs++
		}
		if inSet(hesitationWords, w) {
			hesitations++
		}
	}
	hesitations += countPhrase(doc.lower, "you", "know")

	immediate, near := countRepetitions(doc.lower)

	lf := &LinguisticFeatures{
		PronounRatio:             Clamp01(ratio(float64(pron), words)),
		DeterminerRatio:          Clamp01(ratio(float64(det), words)),
		PrepositionRatio:         Clamp01(ratio(float64(prep), words)),
		ConjunctionRatio:         Clamp01(ratio(float64(conj), words)),
		AuxiliaryRatio:           Clamp01(ratio(float64(aux), words)),
		DiscourseMarkerCount:     markers,
		DiscourseMarkerRatio:     Clamp01(ratio(float64(markers), sentences)),
		SubordinatorsPerSentence: ratio(float64(subs), sentences),
		HesitationCount:          hesitations,
		HesitationRatio:          Clamp01(ratio(float64(hesitations), words)),
		ImmediateRepetitions:     immediate,
		NearRepetitions:          near,
		PauseIndicatorCount:      countPauseIndicators(doc.text),
	}

	if includeAdvanced {
		lf.Advanced = computeAdvanced(doc, subs)
	}

	return lf
}

// countRepetitions counts a word repeated at the next position, and each
// repeat two or three positions later.
func countRepetitions(lower []string) (immediate, near int) {
	for i, w := range lower {
		if i+1 < len(lower) && lower[i+1] == w {
			immediate++
		}
		for _, offset := range []int{2, 3} {
			if i+offset < len(lower) && lower[i+offset] == w {
				near++
			}
		}
	}
	return immediate, near
}

func countPauseIndicators(text string) int {
	ellipses := strings.Count(text, "...")
	dashes := strings.Count(text, "--")
	return ellipses + dashes + strings.Count(text, ",") + strings.Count(text, ";")
}

func computeAdvanced(doc document, subordinatorCount int) *AdvancedLinguistics {
	entities, properNouns := 0, 0
	for _, sentence := range doc.sentences {
		inEntity := false
		for i, w := range sentence {
			if i > 0 && isCapitalized(w) && w != "I" {
				properNouns++
				if !inEntity {
					entities++
				}
				inEntity = true
				continue
			}
			inEntity = false
		}
	}

	articulated := 0
	categories := make(map[string]int, len(semanticCategories))
	for name := range semanticCategories {
		categories[name] = 0
	}
	for _, w := range doc.lower {
		for _, cluster := range articulationClusters {
			if strings.Contains(w, cluster) {
				articulated++
				break
			}
		}
		for name, set := range semanticCategories {
			if inSet(set, w) {
				categories[name]++
			}
		}
	}

	words := float64(doc.wordCount())
	sentences := float64(doc.sentenceCount())

	temporal, abstract, longWords := 0, 0, 0
	lengths := make(map[int]int)
	for i, w := range doc.lower {
		if inSet(temporalWords, w) || isYear(w) {
			temporal++
		}
		if isAbstractNoun(w) {
			abstract++
		}
		n := len([]rune(doc.words[i]))
		lengths[n]++
		if n > complexWordLength {
			longWords++
		}
	}

	complexSentences := 0
	connectivity := 0.0
	for i, sentence := range doc.sentences {
		subs, links := 0, 0
		for _, w := range sentence {
			lw := strings.ToLower(w)
			if inSet(subordinators, lw) {
				subs++
			}
			if inSet(pronouns, lw) || inSet(determiners, lw) {
				links++
			}
		}
		if subs > 1 {
			complexSentences++
		}
		if i > 0 {
			connectivity += float64(links) / float64(len(sentence))
		}
	}
	if len(doc.sentences) > 1 {
		connectivity /= float64(len(doc.sentences) - 1)
	}

	return &AdvancedLinguistics{
		NamedEntityCount:        entities,
		ProperNounRatio:         Clamp01(ratio(float64(properNouns), words)),
		SubordinationRatio:      Clamp01(ratio(float64(subordinatorCount), words)),
		ArticulationComplexity:  Clamp01(ratio(float64(articulated), words)),
		SemanticCategories:      categories,
		TemporalExpressionCount: temporal,
		TemporalDensity:         ratio(float64(temporal), sentences),
		SentenceConnectivity:    Clamp01(connectivity),
		OverallComplexity:       Clamp01(ratio(float64(subordinatorCount+longWords+entities), words)),
		CognitiveDemand:         ratio(float64(subordinatorCount+abstract), sentences),
		WordLengths:             lengths,
		LongWordRatio:           Clamp01(ratio(float64(longWords), words)),
		ComplexSentenceCount:    complexSentences,
		AbstractNounCount:       abstract,
	}
}

// isYear matches four-digit years from 1900 to 2099.
func isYear(w string) bool {
	if len(w) != 4 || !(strings.HasPrefix(w, "19") || strings.HasPrefix(w, "20")) {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAbstractNoun(w string) bool {
	if len([]rune(w)) <= 7 || inSet(stopwords, w) {
		return false
	}
	for _, suffix := range nominalSuffixes {
		if strings.HasSuffix(w, suffix) {
			return true
		}
	}
	return false
}

func isCapitalized(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}
