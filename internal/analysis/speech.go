package analysis

const (
	pauseThresholdSeconds     = 0.25
	longPauseThresholdSeconds = 1.0
)

// computeSpeech derives rate and timing-variation metrics. textHesitations
// are filler words already found in the transcript; long pauses add to them.
func computeSpeech(doc document, timing *TimingMetadata, textHesitations int) *SpeechFeatures {
	words := float64(doc.wordCount())
	duration := timing.Duration

	var pauses, wordDurations, segmentDurations []float64
	longPauses := 0
	totalPause := 0.0

	for i, w := range timing.Words {
		wordDurations = append(wordDurations, w.End-w.Start)
		if i == 0 {
			continue
		}
		gap := w.Start - timing.Words[i-1].End
		if gap < pauseThresholdSeconds {
			continue
		}
		pauses = append(pauses, gap)
		totalPause += gap
		if gap > longPauseThresholdSeconds {
			longPauses++
		}
	}
	for _, s := range timing.Segments {
		segmentDurations = append(segmentDurations, s.End-s.Start)
	}

	rate := ratio(words, duration)
	hesitations := textHesitations + longPauses

	return &SpeechFeatures{
		DurationSeconds: duration,
		SpeechRate:      rate,
		WordsPerMinute:  rate * 60,
		HesitationMarkers: HesitationMarkers{
			Count: hesitations,
			Ratio: Clamp01(ratio(float64(hesitations), words)),
		},
		LongPauseCount:           longPauses,
		MeanPauseSeconds:         Mean(pauses),
		MedianPauseSeconds:       median(pauses),
		PauseRatio:               Clamp01(ratio(totalPause, duration)),
		WordDurationVariation:    CoefficientOfVariation(wordDurations),
		SegmentDurationVariation: CoefficientOfVariation(segmentDurations),
	}
}
