package analysis

import "math"

type weightedFeature struct {
	name   FeatureName
	weight float64
}

// Hesitation and repetition are penalized.
var cognitiveWeights = []weightedFeature{
	{SyntacticComplexity, 0.20},
	{InformationDensity, 0.25},
	{SemanticFluency, 0.25},
	{HesitationRatio, -0.15},
	{RepetitionScore, -0.15},
}

// BuildCognitive derives the cognitive category from the other categories.
// Missing upstream categories contribute zeros.
func BuildCognitive(fv *FeatureVector) *CognitiveFeatures {
	var (
		basic      BasicFeatures
		lexical    LexicalFeatures
		linguistic LinguisticFeatures
	)
	if fv.Basic != nil {
		basic = *fv.Basic
	}
	if fv.Lexical != nil {
		lexical = *fv.Lexical
	}
	if fv.Linguistic != nil {
		linguistic = *fv.Linguistic
	}

	hesitation := linguistic.HesitationRatio
	if fv.Speech != nil {
		hesitation = fv.Speech.HesitationMarkers.Ratio
	}

	repetitions := float64(linguistic.ImmediateRepetitions + linguistic.NearRepetitions)

	cf := &CognitiveFeatures{
		SyntacticComplexity: Clamp01(
			0.5*math.Min(basic.AverageWordsPerSentence/25, 1) +
				0.5*math.Min(linguistic.SubordinatorsPerSentence, 1),
		),
		InformationDensity: Clamp01(lexical.ContentWordRatio),
		HesitationRatio:    Clamp01(hesitation),
		RepetitionScore:    Clamp01(ratio(repetitions, basic.WordCount)),
		SemanticFluency: Clamp01(
			0.5*lexical.LexicalDiversity +
				0.3*basic.TypeTokenRatio +
				0.2*linguistic.DiscourseMarkerRatio,
		),
	}

	cf.CognitiveHealthScore = cognitiveComposite(FeatureSet{
		SyntacticComplexity: cf.SyntacticComplexity,
		InformationDensity:  cf.InformationDensity,
		SemanticFluency:     cf.SemanticFluency,
		HesitationRatio:     cf.HesitationRatio,
		RepetitionScore:     cf.RepetitionScore,
	})

	return cf
}

// cognitiveComposite computes clamp01((Σ v·w + Σ|w|/2) / Σ|w|), which maps
// an all-zero input to 0.5.
func cognitiveComposite(values FeatureSet) float64 {
	sum, absSum := 0.0, 0.0
	for _, wf := range cognitiveWeights {
		sum += values[wf.name] * wf.weight
		absSum += math.Abs(wf.weight)
	}
	if absSum == 0 {
		return 0.5
	}
	return Clamp01((sum + absSum/2) / absSum)
}
