package search

// Confidence bands layered on top of the caller's score threshold. The
// threshold is query-scoped; the bands are a fixed secondary signal.
const (
	// HighConfidenceScore is the lower bound of the high-confidence band.
	HighConfidenceScore = 0.5
	// ConfidenceFloor is the score below which results are excluded entirely.
	ConfidenceFloor = 0.3
)

// Band classifies a similarity score.
type Band int

const (
	// BandExcluded marks scores below ConfidenceFloor; dropped from results.
	BandExcluded Band = iota
	// BandLow marks scores in [ConfidenceFloor, HighConfidenceScore);
	// included but flagged so callers may surface or suppress them.
	BandLow
	// BandHigh marks scores at or above HighConfidenceScore.
	BandHigh
)

// Classify places a similarity score into its confidence band.
func Classify(score float64) Band {
	switch {
	case score >= HighConfidenceScore:
		return BandHigh
	case score >= ConfidenceFloor:
		return BandLow
	default:
		return BandExcluded
	}
}
