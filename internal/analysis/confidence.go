package analysis

// Confidence calibration. The result is a bounded reliability estimate,
// not a statistical probability.
const (
	confidenceBase     = 0.60
	confidenceCap      = 0.95
	transcriptBonus    = 0.05 // per transcript beyond the first
	maxTranscriptBonus = 0.15
	factorBonus        = 0.03 // per supporting factor
	maxFactorBonus     = 0.15
	metadataBonus      = 0.05 // structured metadata present (e.g. reason_for_call)
)

// ConfidenceScore scores an explanation's reliability from evidence density
// and metadata richness. Always in [0.60, 0.95]; pure and total.
func ConfidenceScore(transcriptCount, factorCount int, hasStructuredMetadata bool) float64 {
	confidence := confidenceBase

	if transcriptCount > 1 {
		bonus := float64(transcriptCount-1) * transcriptBonus
		if bonus > maxTranscriptBonus {
			bonus = maxTranscriptBonus
		}
		confidence += bonus
	}

	if factorCount > 0 {
		bonus := float64(factorCount) * factorBonus
		if bonus > maxFactorBonus {
			bonus = maxFactorBonus
		}
		confidence += bonus
	}

	if hasStructuredMetadata {
		confidence += metadataBonus
	}

	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	if confidence < confidenceBase {
		confidence = confidenceBase
	}
	return confidence
}
